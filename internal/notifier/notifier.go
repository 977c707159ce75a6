package notifier

import (
	"context"
	"errors"
	"fmt"

	"campus-events/internal/model"
	"campus-events/pkg/logger"

	"go.uber.org/zap"
)

// ErrTransient 標記可重試的投遞失敗（網路錯誤、對方 5xx 或限流）
var ErrTransient = errors.New("transient notify failure")

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Notifier 對外公告活動生命週期事件；投遞是盡力而為
type Notifier interface {
	Name() string
	Notify(ctx context.Context, notice *model.EventNotice) error
}

// LogNotifier 只寫 log，沒有設定任何外部通道時使用
type LogNotifier struct{}

func NewLogNotifier() Notifier {
	return LogNotifier{}
}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(ctx context.Context, notice *model.EventNotice) error {
	logger.WithComponent("notifier").Info("event published",
		zap.String("event_id", notice.EventID.String()),
		zap.String("event_name", notice.EventName),
		zap.String("organizer", notice.OrganizerName),
		zap.String("event_type", string(notice.EventType)),
		zap.Time("start_date", notice.StartDate),
	)
	return nil
}

// MultiNotifier 依序送往每個通道，單一通道失敗不影響其他通道
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) Notifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Name() string { return "multi" }

func (m *MultiNotifier) Notify(ctx context.Context, notice *model.EventNotice) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, notice); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
