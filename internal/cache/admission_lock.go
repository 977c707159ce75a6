package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "campus-events/pkg/app_errors"
	"campus-events/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AdmissionLock 在容量帳本交易之前，讓同一個 key 同時只有一個寫入者。
// 帳本的條件式 UPDATE 才是最終保證，鎖只用來降低交易衝突。
type AdmissionLock interface {
	// Acquire 取得 key 的獨佔權；等待超過上限回傳 ErrLedgerContention
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// 活動名額 key
func EventKey(eventID int) string {
	return fmt.Sprintf("admission:event:%d", eventID)
}

// 周邊規格 key
func VariantKey(eventID int, sku string) string {
	return fmt.Sprintf("admission:event:%d:sku:%s", eventID, sku)
}

// 只有持有者（token 相同）才能釋放
const releaseScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

type RedisAdmissionLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisAdmissionLock(client *redis.Client, ttl, wait time.Duration) AdmissionLock {
	return &RedisAdmissionLock{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *RedisAdmissionLock) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = l.wait

	errHeld := errors.New("lock held")
	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errHeld
		}
		return nil
	}, backoff.WithContext(policy, ctx))

	if errors.Is(err, errHeld) {
		return nil, apperrors.ErrLedgerContention
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Redis 不可用時不擋報名，由資料庫帳本保證容量
		logger.WithComponent("ledger").Warn("admission lock unavailable, continuing without it",
			zap.String("key", key), zap.Error(err))
		return func() {}, nil
	}

	return func() {
		// 釋放不應受請求 ctx 取消影響
		if err := l.client.Eval(context.Background(), releaseScript, []string{key}, token).Err(); err != nil {
			logger.WithComponent("ledger").Warn("release admission lock failed",
				zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// LocalAdmissionLock 單一程序內使用的鎖，用於測試或未部署 Redis 的環境
type LocalAdmissionLock struct {
	mu    sync.Mutex
	slots map[string]*localSlot
	wait  time.Duration
}

// localSlot refs 為持有中加上等待中的呼叫數，歸零時從 map 移除
type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalAdmissionLock(wait time.Duration) AdmissionLock {
	return &LocalAdmissionLock{
		slots: make(map[string]*localSlot),
		wait:  wait,
	}
}

func (l *LocalAdmissionLock) ref(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalAdmissionLock) unref(key string, s *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalAdmissionLock) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-timer.C:
		l.unref(key, s)
		return nil, apperrors.ErrLedgerContention
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}
