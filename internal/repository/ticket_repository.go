package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-events/internal/model"
	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	FindByParticipationID(ctx context.Context, participationID int) (*model.Ticket, error)

	// Transaction methods
	// Create 每筆報名最多一張票；已存在時回傳既有的票券
	Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error)
	FindByParticipationIDTx(ctx context.Context, tx pgx.Tx, participationID int) (*model.Ticket, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `
	id, ticket_id, participation_id, event_id, user_id, event_type, qr_payload, issued_at
`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID,
		&t.TicketID,
		&t.ParticipationID,
		&t.EventID,
		&t.UserID,
		&t.EventType,
		&t.QRPayload,
		&t.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return &t, nil
}

func (r *TicketRepositoryImpl) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, ticketID))
}

func (r *TicketRepositoryImpl) FindByParticipationID(ctx context.Context, participationID int) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE participation_id = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, participationID))
}

func (r *TicketRepositoryImpl) FindByParticipationIDTx(ctx context.Context, tx pgx.Tx, participationID int) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE participation_id = $1`
	return scanTicket(tx.QueryRow(ctx, query, participationID))
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (ticket_id, participation_id, event_id, user_id, event_type, qr_payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participation_id) DO NOTHING
		RETURNING id, issued_at
	`

	err := tx.QueryRow(ctx, query,
		ticket.TicketID, ticket.ParticipationID, ticket.EventID,
		ticket.UserID, ticket.EventType, ticket.QRPayload,
	).Scan(
		&ticket.ID,
		&ticket.IssuedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// 已有票券
		return r.FindByParticipationIDTx(ctx, tx, ticket.ParticipationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return ticket, nil
}
