package repository_test

import (
	"context"
	"testing"

	"campus-events/internal/model"
	"campus-events/internal/repository"
	apperrors "campus-events/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityRepository_Slots(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewCapacityRepository(testDB)
	ctx := context.Background()

	organizer := createTestUser(t, "organizer")
	event := createTestEvent(t, organizer, model.EventTypeNormal, 2)

	t.Run("ReserveUntilFull", func(t *testing.T) {
		tx := setupTestWithTransaction(t)

		require.NoError(t, repo.ReserveSlot(ctx, tx, event.ID))
		require.NoError(t, repo.ReserveSlot(ctx, tx, event.ID))
		assert.ErrorIs(t, repo.ReserveSlot(ctx, tx, event.ID), apperrors.ErrEventFull)

		require.NoError(t, repo.ReleaseSlot(ctx, tx, event.ID))
		require.NoError(t, repo.ReserveSlot(ctx, tx, event.ID))
	})

	t.Run("ReleaseOnEmptyLedger", func(t *testing.T) {
		tx := setupTestWithTransaction(t)
		assert.Error(t, repo.ReleaseSlot(ctx, tx, event.ID))
	})

	t.Run("LimitCannotDropBelowConsumed", func(t *testing.T) {
		tx := setupTestWithTransaction(t)

		require.NoError(t, repo.ReserveSlot(ctx, tx, event.ID))
		require.NoError(t, repo.ReserveSlot(ctx, tx, event.ID))
		assert.ErrorIs(t, repo.SetLimit(ctx, tx, event.ID, 1), apperrors.ErrRegLimitDecrease)
		require.NoError(t, repo.SetLimit(ctx, tx, event.ID, 5))
		assert.ErrorIs(t, repo.SetLimit(ctx, tx, event.ID, 0), apperrors.ErrInvalidRegLimit)
	})

	limit, consumed, err := repo.GetSlots(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, limit)
	assert.Zero(t, consumed)
}

func TestCapacityRepository_Stock(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewCapacityRepository(testDB)
	ctx := context.Background()

	organizer := createTestUser(t, "organizer")
	event := createTestEvent(t, organizer, model.EventTypeMerch, 4)

	t.Run("ReserveAndRelease", func(t *testing.T) {
		tx := setupTestWithTransaction(t)

		variant, err := repo.FindVariantForUpdate(ctx, tx, event.ID, "TEE-M")
		require.NoError(t, err)
		assert.Equal(t, 4, variant.Available())

		require.NoError(t, repo.ReserveStock(ctx, tx, variant.ID, 3))
		assert.ErrorIs(t, repo.ReserveStock(ctx, tx, variant.ID, 2), apperrors.ErrInsufficientStock)
		require.NoError(t, repo.ReleaseStock(ctx, tx, event.ID, "TEE-M", 3))
		assert.Error(t, repo.ReleaseStock(ctx, tx, event.ID, "TEE-M", 1))
	})

	t.Run("UnknownVariant", func(t *testing.T) {
		tx := setupTestWithTransaction(t)
		_, err := repo.FindVariantForUpdate(ctx, tx, event.ID, "TEE-XXL")
		assert.ErrorIs(t, err, apperrors.ErrVariantNotFound)
	})

	t.Run("ReplaceRefusedWhileReserved", func(t *testing.T) {
		tx := setupTestWithTransaction(t)

		variant, err := repo.FindVariantForUpdate(ctx, tx, event.ID, "TEE-M")
		require.NoError(t, err)
		require.NoError(t, repo.ReserveStock(ctx, tx, variant.ID, 1))

		err = repo.ReplaceVariants(ctx, tx, event.ID, []model.MerchVariant{{SKU: "TEE-L", Stock: 3}})
		assert.ErrorIs(t, err, apperrors.ErrPublishedFieldLocked)
	})

	variants, err := repo.ListVariants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Zero(t, variants[0].Reserved)
}
