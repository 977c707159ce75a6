package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-events/internal/model"
	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	List(ctx context.Context) ([]*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID int) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, event *model.Event) (*model.Event, error)
	FindByEventIDForUpdate(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, tx pgx.Tx, id int, params model.UpdateEventParams) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.EventStatus) error
	Delete(ctx context.Context, tx pgx.Tx, id int) error
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `
	e.id, e.event_id, e.organizer_id, e.name, e.description, e.type, e.status,
	e.reg_deadline, e.start_date, e.end_date, e.eligibility, e.normal_config,
	e.purchase_limit, e.created_at, e.updated_at, l.reg_limit, COALESCE(l.consumed, 0)
`

const eventFrom = `
	FROM events e
	LEFT JOIN capacity_ledger l ON l.event_id = e.id
`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	var purchaseLimit *int

	err := row.Scan(
		&event.ID,
		&event.EventID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.Type,
		&event.Status,
		&event.RegDeadline,
		&event.StartDate,
		&event.EndDate,
		&event.Eligibility,
		&event.Normal,
		&purchaseLimit,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.RegLimit,
		&event.Consumed,
	)
	if err != nil {
		return nil, err
	}

	if event.Type == model.EventTypeMerch {
		event.Merch = &model.MerchConfig{}
		if purchaseLimit != nil {
			event.Merch.PurchaseLimit = *purchaseLimit
		}
	}
	return &event, nil
}

// attachVariants MERCH 活動補上規格與庫存
func attachVariants(ctx context.Context, q DBTX, event *model.Event) error {
	if event.Type != model.EventTypeMerch {
		return nil
	}
	variants, err := listVariants(ctx, q, event.ID)
	if err != nil {
		return err
	}
	event.Merch.Variants = variants
	return nil
}

func (r *EventRepositoryImpl) findOne(ctx context.Context, q DBTX, query string, arg any) (*model.Event, error) {
	event, err := scanEvent(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	if err := attachVariants(ctx, q, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		if err := attachVariants(ctx, r.pool, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// List 對外公開的活動（草稿除外）
func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + `
		WHERE e.deleted_at IS NULL AND e.status <> 'DRAFT'
		ORDER BY e.start_date ASC
	`
	return r.list(ctx, query)
}

func (r *EventRepositoryImpl) ListByOrganizer(ctx context.Context, organizerID int) ([]*model.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + `
		WHERE e.deleted_at IS NULL AND e.organizer_id = $1
		ORDER BY e.created_at DESC
	`
	return r.list(ctx, query, organizerID)
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + `
		WHERE e.id = $1 AND e.deleted_at IS NULL
	`
	return r.findOne(ctx, r.pool, query, id)
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + `
		WHERE e.event_id = $1 AND e.deleted_at IS NULL
	`
	return r.findOne(ctx, r.pool, query, eventID)
}

// FindByEventIDForUpdate 鎖定活動列，序列化同一活動的生命週期變更
func (r *EventRepositoryImpl) FindByEventIDForUpdate(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + `
		WHERE e.event_id = $1 AND e.deleted_at IS NULL
		FOR UPDATE OF e
	`
	return r.findOne(ctx, tx, query, eventID)
}

func (r *EventRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (
			event_id, organizer_id, name, description, type, status,
			reg_deadline, start_date, end_date, eligibility, normal_config, purchase_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	var purchaseLimit *int
	if event.Merch != nil {
		purchaseLimit = &event.Merch.PurchaseLimit
	}

	err := tx.QueryRow(ctx, query,
		event.EventID, event.OrganizerID, event.Name, event.Description, event.Type, event.Status,
		event.RegDeadline, event.StartDate, event.EndDate, event.Eligibility, event.Normal, purchaseLimit,
	).Scan(
		&event.ID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// Update 只處理 events 表欄位；名額與規格庫存由 CapacityRepository 負責
func (r *EventRepositoryImpl) Update(ctx context.Context, tx pgx.Tx, id int, params model.UpdateEventParams) error {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.RegDeadline != nil {
		add("reg_deadline", *params.RegDeadline)
	}
	if params.StartDate != nil {
		add("start_date", *params.StartDate)
	}
	if params.EndDate != nil {
		add("end_date", *params.EndDate)
	}
	if params.Eligibility != nil {
		add("eligibility", *params.Eligibility)
	}
	if params.Normal != nil {
		add("normal_config", params.Normal)
	}
	if params.Merch != nil {
		add("purchase_limit", params.Merch.PurchaseLimit)
	}

	if len(sets) == 0 {
		// 只更新了帳本欄位
		return nil
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
	`, strings.Join(sets, ", "), argPos)

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

func (r *EventRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.EventStatus) error {
	query := `
		UPDATE events
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := tx.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE events
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	// check if event exists and not already deleted
	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}
