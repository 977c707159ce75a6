package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "campus-events/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAdmissionLock_MutualExclusion(t *testing.T) {
	lock := NewLocalAdmissionLock(2 * time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := lock.Acquire(ctx, EventKey(1))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalAdmissionLock_TimeoutIsContention(t *testing.T) {
	lock := NewLocalAdmissionLock(20 * time.Millisecond)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, VariantKey(1, "TEE-M"))
	require.NoError(t, err)
	defer release()

	_, err = lock.Acquire(ctx, VariantKey(1, "TEE-M"))
	assert.ErrorIs(t, err, apperrors.ErrLedgerContention)

	// 不同 key 互不影響
	other, err := lock.Acquire(ctx, VariantKey(1, "TEE-L"))
	require.NoError(t, err)
	other()
}

func TestLocalAdmissionLock_ReleaseIsIdempotent(t *testing.T) {
	lock := NewLocalAdmissionLock(50 * time.Millisecond)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, EventKey(2))
	require.NoError(t, err)
	release()
	release()

	again, err := lock.Acquire(ctx, EventKey(2))
	require.NoError(t, err)
	again()
}

func TestLocalAdmissionLock_IdleKeysAreDropped(t *testing.T) {
	lock := NewLocalAdmissionLock(50 * time.Millisecond).(*LocalAdmissionLock)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		release, err := lock.Acquire(ctx, EventKey(i))
		require.NoError(t, err)
		release()
	}

	held, err := lock.Acquire(ctx, EventKey(1))
	require.NoError(t, err)
	_, err = lock.Acquire(ctx, EventKey(1))
	require.ErrorIs(t, err, apperrors.ErrLedgerContention)

	lock.mu.Lock()
	assert.Len(t, lock.slots, 1)
	assert.Equal(t, 1, lock.slots[EventKey(1)].refs)
	lock.mu.Unlock()

	held()

	lock.mu.Lock()
	assert.Empty(t, lock.slots)
	lock.mu.Unlock()
}
