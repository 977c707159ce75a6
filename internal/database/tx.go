package database

import (
	"context"
	"errors"
	"time"

	apperrors "campus-events/pkg/app_errors"
	"campus-events/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TxRunner 在交易中執行 fn；fn 回傳錯誤即 rollback
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type PgxTxRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
}

func NewTxRunner(pool *pgxpool.Pool, maxRetries int) TxRunner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &PgxTxRunner{pool: pool, maxRetries: maxRetries}
}

// RunInTx 遇到 serialization failure / deadlock / lock timeout 時重試，
// 超過次數回傳 ErrLedgerContention，其餘錯誤原樣回傳
func (r *PgxTxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if IsRetryable(err) {
			logger.WithComponent("ledger").Debug("transaction contention, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.maxRetries)), ctx))

	if err != nil && IsRetryable(err) {
		logger.WithComponent("ledger").Warn("transaction contention exhausted retries",
			zap.Int("attempts", attempt), zap.Error(err))
		return apperrors.ErrLedgerContention
	}
	return err
}

func (r *PgxTxRunner) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsRetryable 是否為可透明重試的交易衝突
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	}
	return false
}

// IsUniqueViolation 是否違反指定的唯一索引；constraint 為空時不比對名稱
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
