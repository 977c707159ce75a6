package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-events/internal/model"
	repoMocks "campus-events/internal/repository/mocks"
	"campus-events/internal/service"
	apperrors "campus-events/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type eventServiceDeps struct {
	events   *repoMocks.EventRepositoryMock
	capacity *repoMocks.CapacityRepositoryMock
	users    *repoMocks.UserRepositoryMock
	notices  *recordingQueue
}

func setupEventService() (service.EventService, *eventServiceDeps) {
	deps := &eventServiceDeps{
		events:   repoMocks.NewEventRepositoryMock(),
		capacity: repoMocks.NewCapacityRepositoryMock(),
		users:    repoMocks.NewUserRepositoryMock(),
		notices:  &recordingQueue{},
	}
	svc := service.NewEventService(passThroughTx{}, deps.events, deps.capacity, deps.users, deps.notices,
		service.WithClock(clock))
	return svc, deps
}

func draftParams() model.CreateEventParams {
	return model.CreateEventParams{
		Name:        "Hackathon",
		Type:        model.EventTypeNormal,
		RegDeadline: fixedNow.Add(24 * time.Hour),
		StartDate:   fixedNow.Add(48 * time.Hour),
		EndDate:     fixedNow.Add(72 * time.Hour),
		RegLimit:    intPtr(20),
	}
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, deps := setupEventService()
		params := draftParams()

		deps.users.On("FindByID", ctx, 1).Return(&model.User{ID: 1, Name: "Org"}, nil).Once()
		deps.events.On("Create", ctx, mock.Anything, mock.Anything).Return(&model.Event{ID: 3}, nil).Once()
		deps.capacity.On("InitSlots", ctx, mock.Anything, 3, 20).Return(nil).Once()
		deps.events.On("FindByEventID", ctx, mock.Anything).Return(&model.Event{
			ID: 3, Status: model.EventStatusDraft, RegLimit: intPtr(20),
			StartDate: params.StartDate, EndDate: params.EndDate,
		}, nil).Once()

		created, err := svc.Create(ctx, 1, params)

		require.NoError(t, err)
		assert.Equal(t, model.EventStatusDraft, created.DisplayStatus)
		require.NotNil(t, created.RemainingSlots)
		assert.Equal(t, 20, *created.RemainingSlots)
		deps.capacity.AssertExpectations(t)
	})

	t.Run("Failed - ErrInvalidEventDates", func(t *testing.T) {
		svc, deps := setupEventService()
		params := draftParams()
		params.EndDate = params.StartDate

		_, err := svc.Create(ctx, 1, params)

		assert.ErrorIs(t, err, apperrors.ErrInvalidEventDates)
		deps.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - ErrDeadlineAfterStart", func(t *testing.T) {
		svc, _ := setupEventService()
		params := draftParams()
		params.RegDeadline = params.StartDate.Add(time.Minute)

		_, err := svc.Create(ctx, 1, params)

		assert.ErrorIs(t, err, apperrors.ErrDeadlineAfterStart)
	})

	t.Run("Failed - MerchWithRegLimit", func(t *testing.T) {
		svc, _ := setupEventService()
		params := draftParams()
		params.Type = model.EventTypeMerch

		_, err := svc.Create(ctx, 1, params)

		assert.ErrorIs(t, err, apperrors.ErrConfigTypeMismatch)
	})

	t.Run("Failed - OrganizerNotFound", func(t *testing.T) {
		svc, deps := setupEventService()
		deps.users.On("FindByID", ctx, 99).Return(nil, apperrors.ErrUserNotFound).Once()

		_, err := svc.Create(ctx, 99, draftParams())

		assert.ErrorIs(t, err, apperrors.ErrOrganizerNotFound)
	})
}

func TestEventService_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Publish - Success", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		event.Status = model.EventStatusDraft

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()
		deps.events.On("UpdateStatus", ctx, mock.Anything, event.ID, model.EventStatusPublished).Return(nil).Once()
		deps.users.On("FindByID", ctx, 1).Return(&model.User{ID: 1, Name: "Student Council"}, nil).Once()

		resp, err := svc.ChangeStatus(ctx, 1, event.EventID, model.EventStatusPublished)

		require.NoError(t, err)
		assert.Equal(t, model.EventStatusPublished, resp.Status)
		require.Len(t, deps.notices.notices, 1)
		assert.Equal(t, "Student Council", deps.notices.notices[0].OrganizerName)
		assert.Equal(t, event.EventID, deps.notices.notices[0].EventID)
		deps.events.AssertExpectations(t)
	})

	t.Run("Publish - NoticeFailureDoesNotFail", func(t *testing.T) {
		svc, deps := setupEventService()
		deps.notices.err = errors.New("queue down")
		event := openNormalEvent(1)
		event.Status = model.EventStatusDraft

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()
		deps.events.On("UpdateStatus", ctx, mock.Anything, event.ID, model.EventStatusPublished).Return(nil).Once()
		deps.users.On("FindByID", ctx, 1).Return(&model.User{ID: 1}, nil).Once()

		_, err := svc.ChangeStatus(ctx, 1, event.EventID, model.EventStatusPublished)

		require.NoError(t, err)
	})

	t.Run("Publish - MissingConfig", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		event.Status = model.EventStatusDraft
		event.RegLimit = nil

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.ChangeStatus(ctx, 1, event.EventID, model.EventStatusPublished)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrEventConfigMissing)
		assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))
		deps.events.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, deps.notices.notices)
	})

	t.Run("Complete - RequiresOngoing", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.ChangeStatus(ctx, 1, event.EventID, model.EventStatusCompleted)

		assert.ErrorIs(t, err, apperrors.ErrEventNotOngoing)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("Complete - Ongoing", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		event.StartDate = fixedNow.Add(-time.Hour)
		event.EndDate = fixedNow.Add(time.Hour)
		event.RegDeadline = fixedNow.Add(-2 * time.Hour)

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()
		deps.events.On("UpdateStatus", ctx, mock.Anything, event.ID, model.EventStatusCompleted).Return(nil).Once()

		resp, err := svc.ChangeStatus(ctx, 1, event.EventID, model.EventStatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, model.EventStatusCompleted, resp.DisplayStatus)
	})

	t.Run("Failed - OngoingIsDerived", func(t *testing.T) {
		svc, deps := setupEventService()

		_, err := svc.ChangeStatus(ctx, 1, openNormalEvent(1).EventID, model.EventStatusOngoing)

		assert.ErrorIs(t, err, apperrors.ErrOngoingIsDerived)
		deps.events.AssertNotCalled(t, "FindByEventIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - IllegalTransition", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		event.Status = model.EventStatusClosed

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.ChangeStatus(ctx, 1, event.EventID, model.EventStatusPublished)

		assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	})

	t.Run("Failed - NotOrganizer", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.ChangeStatus(ctx, 2, event.EventID, model.EventStatusClosed)

		assert.ErrorIs(t, err, apperrors.ErrNotEventOrganizer)
	})
}

func TestEventService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Published - IncreaseLimit", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		params := model.UpdateEventParams{RegLimit: intPtr(80)}

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()
		deps.capacity.On("SetLimit", ctx, mock.Anything, event.ID, 80).Return(nil).Once()
		deps.events.On("Update", ctx, mock.Anything, event.ID, params).Return(nil).Once()
		deps.events.On("FindByEventID", ctx, event.EventID).Return(event, nil).Once()

		_, err := svc.Update(ctx, 1, event.EventID, params)

		require.NoError(t, err)
		deps.capacity.AssertExpectations(t)
	})

	t.Run("Published - DecreaseLimit", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.Update(ctx, 1, event.EventID, model.UpdateEventParams{RegLimit: intPtr(10)})

		assert.ErrorIs(t, err, apperrors.ErrRegLimitDecrease)
		deps.capacity.AssertNotCalled(t, "SetLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Published - DeadlineMovedEarlier", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		earlier := event.RegDeadline.Add(-time.Hour)

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.Update(ctx, 1, event.EventID, model.UpdateEventParams{RegDeadline: &earlier})

		assert.ErrorIs(t, err, apperrors.ErrDeadlineMovedEarlier)
	})

	t.Run("Published - LockedField", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		name := "Renamed"

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.Update(ctx, 1, event.EventID, model.UpdateEventParams{Name: &name})

		assert.ErrorIs(t, err, apperrors.ErrPublishedFieldLocked)
	})

	t.Run("Failed - EmptyParams", func(t *testing.T) {
		svc, _ := setupEventService()

		_, err := svc.Update(ctx, 1, openNormalEvent(1).EventID, model.UpdateEventParams{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Draft", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)
		event.Status = model.EventStatusDraft

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()
		deps.events.On("Delete", ctx, mock.Anything, event.ID).Return(nil).Once()

		require.NoError(t, svc.Delete(ctx, 1, event.EventID))
		deps.events.AssertExpectations(t)
	})

	t.Run("Failed - Published", func(t *testing.T) {
		svc, deps := setupEventService()
		event := openNormalEvent(1)

		deps.events.On("FindByEventIDForUpdate", ctx, mock.Anything, event.EventID).Return(event, nil).Once()

		err := svc.Delete(ctx, 1, event.EventID)

		assert.ErrorIs(t, err, apperrors.ErrDeleteNonDraft)
	})
}
