package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-events/internal/model"
	apperrors "campus-events/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CapacityRepository 容量帳本：NORMAL 名額與 MERCH 規格庫存的唯一真實來源。
// 所有扣減都是條件式 UPDATE（check-and-increment），必須在交易內呼叫。
type CapacityRepository interface {
	GetSlots(ctx context.Context, eventID int) (limit int, consumed int, err error)
	ListVariants(ctx context.Context, eventID int) ([]model.MerchVariant, error)

	// Transaction methods
	InitSlots(ctx context.Context, tx pgx.Tx, eventID int, limit int) error
	SetLimit(ctx context.Context, tx pgx.Tx, eventID int, limit int) error
	ReserveSlot(ctx context.Context, tx pgx.Tx, eventID int) error
	ReleaseSlot(ctx context.Context, tx pgx.Tx, eventID int) error

	ReplaceVariants(ctx context.Context, tx pgx.Tx, eventID int, variants []model.MerchVariant) error
	FindVariantForUpdate(ctx context.Context, tx pgx.Tx, eventID int, sku string) (*model.MerchVariant, error)
	ReserveStock(ctx context.Context, tx pgx.Tx, variantID int, quantity int) error
	ReleaseStock(ctx context.Context, tx pgx.Tx, eventID int, sku string, quantity int) error
}

type CapacityRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCapacityRepository(pool *pgxpool.Pool) CapacityRepository {
	return &CapacityRepositoryImpl{
		pool: pool,
	}
}

func (r *CapacityRepositoryImpl) GetSlots(ctx context.Context, eventID int) (int, int, error) {
	query := `
		SELECT reg_limit, consumed
		FROM capacity_ledger
		WHERE event_id = $1
	`

	var limit, consumed int
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&limit, &consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, apperrors.ErrEventNotFound
		}
		return 0, 0, err
	}
	return limit, consumed, nil
}

func (r *CapacityRepositoryImpl) InitSlots(ctx context.Context, tx pgx.Tx, eventID int, limit int) error {
	if limit < 1 {
		return apperrors.ErrInvalidRegLimit
	}

	query := `
		INSERT INTO capacity_ledger (event_id, reg_limit, consumed)
		VALUES ($1, $2, 0)
		ON CONFLICT (event_id) DO UPDATE SET reg_limit = EXCLUDED.reg_limit, updated_at = NOW()
	`

	if _, err := tx.Exec(ctx, query, eventID, limit); err != nil {
		return fmt.Errorf("failed to init capacity ledger: %w", err)
	}
	return nil
}

// SetLimit 不允許低於已使用的名額；只增不減由 service 層依活動狀態判斷
func (r *CapacityRepositoryImpl) SetLimit(ctx context.Context, tx pgx.Tx, eventID int, limit int) error {
	if limit < 1 {
		return apperrors.ErrInvalidRegLimit
	}

	query := `
		UPDATE capacity_ledger
		SET reg_limit = $1, version = version + 1, updated_at = $2
		WHERE event_id = $3 AND consumed <= $1
	`

	result, err := tx.Exec(ctx, query, limit, time.Now().UTC(), eventID)
	if err != nil {
		return fmt.Errorf("failed to set registration limit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRegLimitDecrease
	}
	return nil
}

func (r *CapacityRepositoryImpl) ReserveSlot(ctx context.Context, tx pgx.Tx, eventID int) error {
	query := `
		UPDATE capacity_ledger
		SET consumed = consumed + 1, version = version + 1, updated_at = $1
		WHERE event_id = $2 AND consumed < reg_limit
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), eventID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventFull
	}

	return nil
}

func (r *CapacityRepositoryImpl) ReleaseSlot(ctx context.Context, tx pgx.Tx, eventID int) error {
	query := `
		UPDATE capacity_ledger
		SET consumed = consumed - 1, version = version + 1, updated_at = $1
		WHERE event_id = $2 AND consumed > 0
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), eventID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("release slot for event %d: ledger already empty", eventID)
	}

	return nil
}

func listVariants(ctx context.Context, q DBTX, eventID int) ([]model.MerchVariant, error) {
	query := `
		SELECT id, event_id, sku, name, price_cents, stock, reserved
		FROM merch_variants
		WHERE event_id = $1
		ORDER BY id ASC
	`

	rows, err := q.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]model.MerchVariant, 0)
	for rows.Next() {
		var v model.MerchVariant
		err := rows.Scan(
			&v.ID,
			&v.EventID,
			&v.SKU,
			&v.Name,
			&v.PriceCents,
			&v.Stock,
			&v.Reserved,
		)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *CapacityRepositoryImpl) ListVariants(ctx context.Context, eventID int) ([]model.MerchVariant, error) {
	return listVariants(ctx, r.pool, eventID)
}

// ReplaceVariants 草稿階段整批替換規格；已有預留時拒絕
func (r *CapacityRepositoryImpl) ReplaceVariants(ctx context.Context, tx pgx.Tx, eventID int, variants []model.MerchVariant) error {
	var reserved int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(reserved), 0) FROM merch_variants WHERE event_id = $1`,
		eventID,
	).Scan(&reserved)
	if err != nil {
		return err
	}
	if reserved > 0 {
		return apperrors.ErrPublishedFieldLocked
	}

	if _, err := tx.Exec(ctx, `DELETE FROM merch_variants WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to clear variants: %w", err)
	}

	batch := &pgx.Batch{}
	for _, v := range variants {
		batch.Queue(`
			INSERT INTO merch_variants (event_id, sku, name, price_cents, stock, reserved)
			VALUES ($1, $2, $3, $4, $5, 0)
		`, eventID, v.SKU, v.Name, v.PriceCents, v.Stock)
	}
	if batch.Len() == 0 {
		return nil
	}

	results := tx.SendBatch(ctx, batch)
	for range variants {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}
	return results.Close()
}

// FindVariantForUpdate 鎖定規格列，序列化同一 (活動, 規格) 的購買
func (r *CapacityRepositoryImpl) FindVariantForUpdate(ctx context.Context, tx pgx.Tx, eventID int, sku string) (*model.MerchVariant, error) {
	query := `
		SELECT id, event_id, sku, name, price_cents, stock, reserved
		FROM merch_variants
		WHERE event_id = $1 AND sku = $2
		FOR UPDATE
	`

	var v model.MerchVariant
	err := tx.QueryRow(ctx, query, eventID, sku).Scan(
		&v.ID,
		&v.EventID,
		&v.SKU,
		&v.Name,
		&v.PriceCents,
		&v.Stock,
		&v.Reserved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrVariantNotFound
		}
		return nil, err
	}

	return &v, nil
}

func (r *CapacityRepositoryImpl) ReserveStock(ctx context.Context, tx pgx.Tx, variantID int, quantity int) error {
	query := `
		UPDATE merch_variants
		SET reserved = reserved + $1, updated_at = $2
		WHERE id = $3 AND stock - reserved >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), variantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientStock
	}

	return nil
}

func (r *CapacityRepositoryImpl) ReleaseStock(ctx context.Context, tx pgx.Tx, eventID int, sku string, quantity int) error {
	query := `
		UPDATE merch_variants
		SET reserved = reserved - $1, updated_at = $2
		WHERE event_id = $3 AND sku = $4 AND reserved >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), eventID, sku)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("release stock for event %d sku %s: nothing reserved", eventID, sku)
	}

	return nil
}
