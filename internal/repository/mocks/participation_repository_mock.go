package mocks

import (
	"context"

	"campus-events/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type ParticipationRepositoryMock struct {
	mock.Mock
}

func NewParticipationRepositoryMock() *ParticipationRepositoryMock {
	return &ParticipationRepositoryMock{}
}

func (m *ParticipationRepositoryMock) FindByID(ctx context.Context, id int) (*model.Participation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *ParticipationRepositoryMock) ListByUser(ctx context.Context, userID int) ([]*model.Participation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Participation), args.Error(1)
}

func (m *ParticipationRepositoryMock) ListByEvent(ctx context.Context, eventID int) ([]*model.Participation, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Participation), args.Error(1)
}

func (m *ParticipationRepositoryMock) Create(ctx context.Context, tx pgx.Tx, p *model.Participation) (*model.Participation, error) {
	args := m.Called(ctx, tx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *ParticipationRepositoryMock) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Participation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *ParticipationRepositoryMock) FindActive(ctx context.Context, tx pgx.Tx, eventID int, userID int) (*model.Participation, error) {
	args := m.Called(ctx, tx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *ParticipationRepositoryMock) SumActiveQuantity(ctx context.Context, tx pgx.Tx, eventID int, userID int) (int, error) {
	args := m.Called(ctx, tx, eventID, userID)
	return args.Int(0), args.Error(1)
}

func (m *ParticipationRepositoryMock) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.ParticipationStatus) error {
	return m.Called(ctx, tx, id, status).Error(0)
}

func (m *ParticipationRepositoryMock) SetTicket(ctx context.Context, tx pgx.Tx, id int, ticketID uuid.UUID) error {
	return m.Called(ctx, tx, id, ticketID).Error(0)
}
