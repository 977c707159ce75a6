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

type PaymentRepository interface {
	FindByID(ctx context.Context, id int) (*model.Payment, error)
	FindByParticipationID(ctx context.Context, participationID int) (*model.Payment, error)
	ListPendingByEvent(ctx context.Context, eventID int) ([]*model.Payment, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Payment, error)
	// Decide 只會改變 pending 的付款，回傳是否真的有變更
	Decide(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus, reviewerID *int, note *string) (bool, error)
	RejectPendingByParticipation(ctx context.Context, tx pgx.Tx, participationID int, note string) error
}

type PaymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

const paymentColumns = `
	p.id, p.participation_id, p.status, p.amount_cents, p.method, p.proof_ref,
	p.reviewed_by, p.review_note, p.reviewed_at, p.created_at, p.updated_at
`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID,
		&p.ParticipationID,
		&p.Status,
		&p.AmountCents,
		&p.Method,
		&p.ProofRef,
		&p.ReviewedBy,
		&p.ReviewNote,
		&p.ReviewedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func findPayment(ctx context.Context, q DBTX, query string, arg any) (*model.Payment, error) {
	p, err := scanPayment(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`
	return findPayment(ctx, r.pool, query, id)
}

func (r *PaymentRepositoryImpl) FindByParticipationID(ctx context.Context, participationID int) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.participation_id = $1`
	return findPayment(ctx, r.pool, query, participationID)
}

func (r *PaymentRepositoryImpl) ListPendingByEvent(ctx context.Context, eventID int) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments p
		JOIN participations pa ON pa.id = p.participation_id
		WHERE pa.event_id = $1 AND p.status = 'pending'
		ORDER BY p.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	query := `
		INSERT INTO payments (participation_id, status, amount_cents, method, proof_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		payment.ParticipationID, payment.Status, payment.AmountCents, payment.Method, payment.ProofRef,
	).Scan(
		&payment.ID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}

func (r *PaymentRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 FOR UPDATE`
	return findPayment(ctx, tx, query, id)
}

func (r *PaymentRepositoryImpl) Decide(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus, reviewerID *int, note *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, reviewed_by = $2, review_note = $3, reviewed_at = $4, updated_at = $4
		WHERE id = $5 AND status = 'pending'
	`

	result, err := tx.Exec(ctx, query, status, reviewerID, note, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to decide payment: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// RejectPendingByParticipation 取消購買時一併關閉待審付款；沒有待審付款時不做事
func (r *PaymentRepositoryImpl) RejectPendingByParticipation(ctx context.Context, tx pgx.Tx, participationID int, note string) error {
	query := `
		UPDATE payments
		SET status = 'rejected', review_note = $1, reviewed_at = $2, updated_at = $2
		WHERE participation_id = $3 AND status = 'pending'
	`

	if _, err := tx.Exec(ctx, query, note, time.Now().UTC(), participationID); err != nil {
		return fmt.Errorf("failed to reject pending payment: %w", err)
	}
	return nil
}
