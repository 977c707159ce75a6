package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-events/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendanceRepository interface {
	ListAudit(ctx context.Context, participationID int) ([]*model.AttendanceAuditEntry, error)
	Summary(ctx context.Context, eventID int) (*model.AttendanceSummary, error)

	// Transaction methods
	// FindForUpdate 鎖定出席紀錄；尚未標記過時回傳 (nil, nil)。
	// 出席列可能尚不存在，呼叫前須先鎖定報名列
	FindForUpdate(ctx context.Context, tx pgx.Tx, participationID int) (*model.Attendance, error)
	SetPresence(ctx context.Context, tx pgx.Tx, participationID int, present bool) (*model.Attendance, error)
	AppendAudit(ctx context.Context, tx pgx.Tx, entry *model.AttendanceAuditEntry) error
}

type AttendanceRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &AttendanceRepositoryImpl{
		pool: pool,
	}
}

func (r *AttendanceRepositoryImpl) FindForUpdate(ctx context.Context, tx pgx.Tx, participationID int) (*model.Attendance, error) {
	query := `
		SELECT participation_id, is_present, marked_at, updated_at
		FROM attendances
		WHERE participation_id = $1
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, participationID)
	if err != nil {
		return nil, err
	}
	attendance, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Attendance])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return attendance, nil
}

func (r *AttendanceRepositoryImpl) SetPresence(ctx context.Context, tx pgx.Tx, participationID int, present bool) (*model.Attendance, error) {
	query := `
		INSERT INTO attendances (participation_id, is_present, marked_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (participation_id) DO UPDATE
		SET is_present = EXCLUDED.is_present, marked_at = EXCLUDED.marked_at, updated_at = EXCLUDED.updated_at
		RETURNING participation_id, is_present, marked_at, updated_at
	`

	now := time.Now().UTC()
	var markedAt *time.Time
	if present {
		markedAt = &now
	}

	var a model.Attendance
	err := tx.QueryRow(ctx, query, participationID, present, markedAt, now).Scan(
		&a.ParticipationID,
		&a.IsPresent,
		&a.MarkedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set attendance: %w", err)
	}
	return &a, nil
}

func (r *AttendanceRepositoryImpl) AppendAudit(ctx context.Context, tx pgx.Tx, entry *model.AttendanceAuditEntry) error {
	query := `
		INSERT INTO attendance_audit_log (
			participation_id, actor_type, actor_id, action, reason, previous_state, next_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		entry.ParticipationID, entry.ActorType, entry.ActorID, entry.Action,
		entry.Reason, entry.PreviousState, entry.NextState,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append attendance audit: %w", err)
	}
	return nil
}

func (r *AttendanceRepositoryImpl) ListAudit(ctx context.Context, participationID int) ([]*model.AttendanceAuditEntry, error) {
	query := `
		SELECT id, participation_id, actor_type, actor_id, action, reason,
			previous_state, next_state, created_at
		FROM attendance_audit_log
		WHERE participation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, participationID)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.AttendanceAuditEntry])
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *AttendanceRepositoryImpl) Summary(ctx context.Context, eventID int) (*model.AttendanceSummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE p.status = 'confirmed'),
			COUNT(*) FILTER (WHERE p.status = 'confirmed' AND a.is_present)
		FROM participations p
		LEFT JOIN attendances a ON a.participation_id = p.id
		WHERE p.event_id = $1
	`

	summary := &model.AttendanceSummary{EventID: eventID}
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&summary.Confirmed, &summary.Present); err != nil {
		return nil, err
	}
	return summary, nil
}
