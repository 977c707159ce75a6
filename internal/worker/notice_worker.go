package worker

import (
	"context"
	"sync"

	"campus-events/internal/notifier"
	"campus-events/internal/queue"
	"campus-events/pkg/logger"

	"go.uber.org/zap"
)

type NoticeWorker interface {
	// 訂閱通知隊列並開始投遞
	Start(ctx context.Context) error
	// Wait 等待投遞迴圈結束（ctx 取消後）
	Wait()
}

type NoticeWorkerImpl struct {
	notifier notifier.Notifier
	queue    queue.NoticeQueue
	done     sync.WaitGroup
}

func NewNoticeWorker(n notifier.Notifier, q queue.NoticeQueue) NoticeWorker {
	return &NoticeWorkerImpl{
		notifier: n,
		queue:    q,
	}
}

func (w *NoticeWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeNotices(ctx)
	if err != nil {
		return err
	}

	w.done.Add(1)
	go func() {
		defer w.done.Done()
		log := logger.WithComponent("worker")
		for msg := range msgs {
			err := w.notifier.Notify(ctx, msg.Data)
			if err == nil {
				msg.Ack()
				continue
			}
			// 通知失敗不影響活動狀態；暫時性錯誤交給隊列重送，到上限後丟棄
			transient := notifier.IsTransient(err)
			log.Warn("deliver event notice failed",
				zap.String("event_id", msg.Data.EventID.String()),
				zap.String("notifier", w.notifier.Name()),
				zap.Int("attempt", msg.Attempt),
				zap.Bool("retry", transient),
				zap.Error(err))
			msg.Nack(transient)
		}
	}()
	return nil
}

func (w *NoticeWorkerImpl) Wait() {
	w.done.Wait()
}
