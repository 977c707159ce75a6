package queue

import (
	"context"
	"errors"

	"campus-events/internal/model"
)

var ErrQueueFull = errors.New("notice queue is full")

type Delivery struct {
	Data *model.EventNotice
	// Attempt 第幾次投遞，從 1 開始
	Attempt int
	Ack     func()
	// Nack requeue 為 true 時，未達投遞上限才會重新排入
	Nack func(requeue bool)
}

// DefaultMaxAttempts 記憶體隊列的投遞上限，含第一次
const DefaultMaxAttempts = 3

type NoticeQueue interface {
	// 發送活動通知到隊列
	PublishNotice(ctx context.Context, notice *model.EventNotice) error
	// 訂閱通知隊列
	SubscribeNotices(ctx context.Context) (<-chan Delivery, error)
}

type envelope struct {
	notice  *model.EventNotice
	attempt int
}

type NoticeQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch          chan envelope
	maxAttempts int
}

func NewNoticeQueue(bufferSize int) NoticeQueue {
	return &NoticeQueueImpl{
		ch:          make(chan envelope, bufferSize),
		maxAttempts: DefaultMaxAttempts,
	}
}

// PublishNotice 通知是盡力而為，緩衝區滿時直接回傳錯誤，不阻塞生命週期操作
func (q *NoticeQueueImpl) PublishNotice(ctx context.Context, notice *model.EventNotice) error {
	select {
	case q.ch <- envelope{notice: notice, attempt: 1}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *NoticeQueueImpl) SubscribeNotices(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data:    env.notice,
					Attempt: env.attempt,
					Ack:     func() {},
					Nack: func(requeue bool) {
						if !requeue || env.attempt >= q.maxAttempts {
							return
						}
						// 緩衝區滿就丟棄
						select {
						case q.ch <- envelope{notice: env.notice, attempt: env.attempt + 1}:
						default:
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
