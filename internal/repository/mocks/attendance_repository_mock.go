package mocks

import (
	"context"

	"campus-events/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type AttendanceRepositoryMock struct {
	mock.Mock
}

func NewAttendanceRepositoryMock() *AttendanceRepositoryMock {
	return &AttendanceRepositoryMock{}
}

func (m *AttendanceRepositoryMock) ListAudit(ctx context.Context, participationID int) ([]*model.AttendanceAuditEntry, error) {
	args := m.Called(ctx, participationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AttendanceAuditEntry), args.Error(1)
}

func (m *AttendanceRepositoryMock) Summary(ctx context.Context, eventID int) (*model.AttendanceSummary, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AttendanceSummary), args.Error(1)
}

func (m *AttendanceRepositoryMock) FindForUpdate(ctx context.Context, tx pgx.Tx, participationID int) (*model.Attendance, error) {
	args := m.Called(ctx, tx, participationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attendance), args.Error(1)
}

func (m *AttendanceRepositoryMock) SetPresence(ctx context.Context, tx pgx.Tx, participationID int, present bool) (*model.Attendance, error) {
	args := m.Called(ctx, tx, participationID, present)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attendance), args.Error(1)
}

func (m *AttendanceRepositoryMock) AppendAudit(ctx context.Context, tx pgx.Tx, entry *model.AttendanceAuditEntry) error {
	return m.Called(ctx, tx, entry).Error(0)
}
