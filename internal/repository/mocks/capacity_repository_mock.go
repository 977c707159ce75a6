package mocks

import (
	"context"

	"campus-events/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type CapacityRepositoryMock struct {
	mock.Mock
}

func NewCapacityRepositoryMock() *CapacityRepositoryMock {
	return &CapacityRepositoryMock{}
}

func (m *CapacityRepositoryMock) GetSlots(ctx context.Context, eventID int) (int, int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *CapacityRepositoryMock) ListVariants(ctx context.Context, eventID int) ([]model.MerchVariant, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MerchVariant), args.Error(1)
}

func (m *CapacityRepositoryMock) InitSlots(ctx context.Context, tx pgx.Tx, eventID int, limit int) error {
	return m.Called(ctx, tx, eventID, limit).Error(0)
}

func (m *CapacityRepositoryMock) SetLimit(ctx context.Context, tx pgx.Tx, eventID int, limit int) error {
	return m.Called(ctx, tx, eventID, limit).Error(0)
}

func (m *CapacityRepositoryMock) ReserveSlot(ctx context.Context, tx pgx.Tx, eventID int) error {
	return m.Called(ctx, tx, eventID).Error(0)
}

func (m *CapacityRepositoryMock) ReleaseSlot(ctx context.Context, tx pgx.Tx, eventID int) error {
	return m.Called(ctx, tx, eventID).Error(0)
}

func (m *CapacityRepositoryMock) ReplaceVariants(ctx context.Context, tx pgx.Tx, eventID int, variants []model.MerchVariant) error {
	return m.Called(ctx, tx, eventID, variants).Error(0)
}

func (m *CapacityRepositoryMock) FindVariantForUpdate(ctx context.Context, tx pgx.Tx, eventID int, sku string) (*model.MerchVariant, error) {
	args := m.Called(ctx, tx, eventID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MerchVariant), args.Error(1)
}

func (m *CapacityRepositoryMock) ReserveStock(ctx context.Context, tx pgx.Tx, variantID int, quantity int) error {
	return m.Called(ctx, tx, variantID, quantity).Error(0)
}

func (m *CapacityRepositoryMock) ReleaseStock(ctx context.Context, tx pgx.Tx, eventID int, sku string, quantity int) error {
	return m.Called(ctx, tx, eventID, sku, quantity).Error(0)
}
