package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campus-events/internal/model"
	"campus-events/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	NoticeStream = "events:notices"
	NoticeGroup  = "notice-workers"

	fieldNotice  = "notice"
	fieldAttempt = "attempt"

	// 近似上限，已確認的通知不需長期保留
	noticeStreamMaxLen = 10000
)

// RedisStreamNoticeQueueConfig 零值欄位使用預設
type RedisStreamNoticeQueueConfig struct {
	// MaxAttempts 同一則通知最多投遞次數，含第一次
	MaxAttempts int
	// StaleAfter 其他 consumer 領取後超過此時間未確認，視為該 consumer 已終止並接手
	StaleAfter time.Duration
	BlockTime  time.Duration
}

func (c *RedisStreamNoticeQueueConfig) withDefaults() RedisStreamNoticeQueueConfig {
	out := RedisStreamNoticeQueueConfig{MaxAttempts: 3, StaleAfter: 30 * time.Second, BlockTime: 2 * time.Second}
	if c == nil {
		return out
	}
	if c.MaxAttempts > 0 {
		out.MaxAttempts = c.MaxAttempts
	}
	if c.StaleAfter > 0 {
		out.StaleAfter = c.StaleAfter
	}
	if c.BlockTime > 0 {
		out.BlockTime = c.BlockTime
	}
	return out
}

// RedisStreamNoticeQueue 以 consumer group 分派通知，多個 API instance 只會有一個 worker 送出同一則通知。
// 重試以重新 XADD 並遞增 attempt 計數，不依賴 PEL 的 delivery count。
type RedisStreamNoticeQueue struct {
	client   *redis.Client
	consumer string
	cfg      RedisStreamNoticeQueueConfig
	log      *zap.Logger
}

func NewRedisStreamNoticeQueue(ctx context.Context, client *redis.Client, consumer string, config *RedisStreamNoticeQueueConfig) (*RedisStreamNoticeQueue, error) {
	if consumer == "" {
		consumer = "notice-" + uuid.NewString()
	}
	q := &RedisStreamNoticeQueue{
		client:   client,
		consumer: consumer,
		cfg:      config.withDefaults(),
		log:      logger.WithComponent("mq").With(zap.String("consumer", consumer)),
	}

	err := client.XGroupCreateMkStream(ctx, NoticeStream, NoticeGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create notice consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamNoticeQueue) PublishNotice(ctx context.Context, notice *model.EventNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	return q.add(ctx, string(payload), 1)
}

func (q *RedisStreamNoticeQueue) add(ctx context.Context, payload string, attempt int) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: NoticeStream,
		MaxLen: noticeStreamMaxLen,
		Approx: true,
		Values: map[string]any{fieldNotice: payload, fieldAttempt: attempt},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd notice: %w", err)
	}
	return nil
}

func (q *RedisStreamNoticeQueue) SubscribeNotices(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			msgs, err := q.poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.log.Error("poll notice stream failed", zap.Error(err))
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}
			for _, msg := range msgs {
				d, ok := q.decode(ctx, msg)
				if !ok {
					continue
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

// poll 先接手逾時未確認的訊息，沒有才阻塞等新訊息
func (q *RedisStreamNoticeQueue) poll(ctx context.Context) ([]redis.XMessage, error) {
	claimed, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   NoticeStream,
		Group:    NoticeGroup,
		Consumer: q.consumer,
		MinIdle:  q.cfg.StaleAfter,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if len(claimed) > 0 {
		return claimed, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    NoticeGroup,
		Consumer: q.consumer,
		Streams:  []string{NoticeStream, ">"},
		Count:    10,
		Block:    q.cfg.BlockTime,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	var msgs []redis.XMessage
	for _, s := range streams {
		msgs = append(msgs, s.Messages...)
	}
	return msgs, nil
}

// decode 無法解析的訊息直接確認丟棄
func (q *RedisStreamNoticeQueue) decode(ctx context.Context, msg redis.XMessage) (Delivery, bool) {
	payload, _ := msg.Values[fieldNotice].(string)
	var notice model.EventNotice
	if err := json.Unmarshal([]byte(payload), &notice); err != nil {
		q.log.Warn("drop malformed notice", zap.String("message_id", msg.ID), zap.Error(err))
		q.ack(ctx, msg.ID)
		return Delivery{}, false
	}

	attempt := 1
	if raw, ok := msg.Values[fieldAttempt].(string); ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			attempt = n
		}
	}

	return Delivery{
		Data:    &notice,
		Attempt: attempt,
		Ack:     func() { q.ack(ctx, msg.ID) },
		Nack:    func(requeue bool) { q.nack(ctx, msg.ID, payload, attempt, requeue) },
	}, true
}

func (q *RedisStreamNoticeQueue) nack(ctx context.Context, id, payload string, attempt int, requeue bool) {
	if !requeue {
		q.ack(ctx, id)
		return
	}
	if attempt >= q.cfg.MaxAttempts {
		q.log.Warn("notice retries exhausted, dropping",
			zap.String("message_id", id), zap.Int("attempts", attempt))
		q.ack(ctx, id)
		return
	}
	// 重新加入失敗時保留在 PEL，StaleAfter 後由 XAUTOCLAIM 接手
	if err := q.add(ctx, payload, attempt+1); err != nil {
		q.log.Error("requeue notice failed", zap.String("message_id", id), zap.Error(err))
		return
	}
	q.ack(ctx, id)
}

func (q *RedisStreamNoticeQueue) ack(ctx context.Context, id string) {
	if err := q.client.XAck(ctx, NoticeStream, NoticeGroup, id).Err(); err != nil {
		q.log.Error("xack notice failed", zap.String("message_id", id), zap.Error(err))
	}
}
