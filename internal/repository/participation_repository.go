package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-events/internal/database"
	"campus-events/internal/model"
	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activeParticipationIndex = "participations_one_active"

type ParticipationRepository interface {
	FindByID(ctx context.Context, id int) (*model.Participation, error)
	ListByUser(ctx context.Context, userID int) ([]*model.Participation, error)
	ListByEvent(ctx context.Context, eventID int) ([]*model.Participation, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, p *model.Participation) (*model.Participation, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Participation, error)
	FindActive(ctx context.Context, tx pgx.Tx, eventID int, userID int) (*model.Participation, error)
	SumActiveQuantity(ctx context.Context, tx pgx.Tx, eventID int, userID int) (int, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.ParticipationStatus) error
	SetTicket(ctx context.Context, tx pgx.Tx, id int, ticketID uuid.UUID) error
}

type ParticipationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewParticipationRepository(pool *pgxpool.Pool) ParticipationRepository {
	return &ParticipationRepositoryImpl{
		pool: pool,
	}
}

const participationColumns = `
	id, event_id, user_id, event_type, status, ticket_id, team_name,
	form_answers, purchase, created_at, updated_at
`

func scanParticipation(row pgx.Row) (*model.Participation, error) {
	var p model.Participation
	err := row.Scan(
		&p.ID,
		&p.EventID,
		&p.UserID,
		&p.EventType,
		&p.Status,
		&p.TicketID,
		&p.TeamName,
		&p.FormAnswers,
		&p.Purchase,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipationRepositoryImpl) findOne(ctx context.Context, q DBTX, query string, args ...any) (*model.Participation, error) {
	p, err := scanParticipation(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, fmt.Errorf("find participation: %w", err)
	}
	return p, nil
}

func (r *ParticipationRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]*model.Participation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participations := make([]*model.Participation, 0)
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participations, nil
}

func (r *ParticipationRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = $1`
	return r.findOne(ctx, r.pool, query, id)
}

func (r *ParticipationRepositoryImpl) ListByUser(ctx context.Context, userID int) ([]*model.Participation, error) {
	query := `SELECT ` + participationColumns + `
		FROM participations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *ParticipationRepositoryImpl) ListByEvent(ctx context.Context, eventID int) ([]*model.Participation, error) {
	query := `SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, eventID)
}

// Create 唯一索引保證同一 (活動, 參加者) 只有一筆有效紀錄
func (r *ParticipationRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, p *model.Participation) (*model.Participation, error) {
	query := `
		INSERT INTO participations (
			event_id, user_id, event_type, status, team_name, form_answers, purchase)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.EventID, p.UserID, p.EventType, p.Status, p.TeamName, p.FormAnswers, p.Purchase,
	).Scan(
		&p.ID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, activeParticipationIndex) {
			return nil, apperrors.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create participation: %w", err)
	}

	return p, nil
}

func (r *ParticipationRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, tx, query, id)
}

// FindActive 查無有效紀錄時回傳 (nil, nil)
func (r *ParticipationRepositoryImpl) FindActive(ctx context.Context, tx pgx.Tx, eventID int, userID int) (*model.Participation, error) {
	query := `SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND user_id = $2 AND status IN ('pending', 'confirmed')
	`
	p, err := r.findOne(ctx, tx, query, eventID, userID)
	if errors.Is(err, apperrors.ErrParticipationNotFound) {
		return nil, nil
	}
	return p, err
}

// SumActiveQuantity 參加者在該活動所有有效購買的數量總和
func (r *ParticipationRepositoryImpl) SumActiveQuantity(ctx context.Context, tx pgx.Tx, eventID int, userID int) (int, error) {
	query := `
		SELECT COALESCE(SUM((purchase->>'quantity')::int), 0)
		FROM participations
		WHERE event_id = $1 AND user_id = $2 AND status IN ('pending', 'confirmed')
	`

	var total int
	if err := tx.QueryRow(ctx, query, eventID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ParticipationRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.ParticipationStatus) error {
	query := `
		UPDATE participations
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := tx.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		if database.IsUniqueViolation(err, activeParticipationIndex) {
			return apperrors.ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to update participation status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrParticipationNotFound
	}

	return nil
}

// SetTicket 只在尚未綁定票券時寫入
func (r *ParticipationRepositoryImpl) SetTicket(ctx context.Context, tx pgx.Tx, id int, ticketID uuid.UUID) error {
	query := `
		UPDATE participations
		SET ticket_id = $1, updated_at = $2
		WHERE id = $3 AND (ticket_id IS NULL OR ticket_id = $1)
	`

	result, err := tx.Exec(ctx, query, ticketID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("participation %d already bound to another ticket", id)
	}

	return nil
}
