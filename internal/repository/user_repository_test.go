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

func TestUserRepository_Create(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewUserRepository(testDB)

	created, err := repo.Create(context.Background(), &model.User{
		Name:       "Test User",
		Email:      "test@campus.test",
		Department: "EE",
		Year:       3,
	})

	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.UserRoleParticipant, created.Role)
	assert.Equal(t, "EE", created.Department)
	assert.NotZero(t, created.CreatedAt)
	assertRowCount(t, "users", 1)
}

func TestUserRepository_FindByID(t *testing.T) {
	repo := repository.NewUserRepository(testDB)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		setupTestWithTruncate(t)
		userID := createTestUser(t, "alice")

		found, err := repo.FindByID(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, "alice", found.Name)
		assert.Equal(t, 2, found.Year)
	})

	t.Run("NotFound", func(t *testing.T) {
		setupTestWithTruncate(t)

		_, err := repo.FindByID(ctx, 99999)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewUserRepository(testDB)
	ctx := context.Background()
	userID := createTestUser(t, "bob")

	dept := "ME"
	updated, err := repo.Update(ctx, userID, repository.UpdateUserParams{Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "ME", updated.Department)

	_, err = repo.Update(ctx, userID, repository.UpdateUserParams{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, repo.Delete(ctx, userID))
	_, err = repo.FindByEmail(ctx, "bob@campus.test")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, userID), apperrors.ErrUserNotFound)
}
