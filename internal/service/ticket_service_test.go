package service_test

import (
	"context"
	"testing"

	"campus-events/internal/model"
	repoMocks "campus-events/internal/repository/mocks"
	"campus-events/internal/service"
	"campus-events/internal/ticketing"
	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTicketService() (service.TicketService, *repoMocks.TicketRepositoryMock, *repoMocks.ParticipationRepositoryMock, *ticketing.Codec) {
	tickets := repoMocks.NewTicketRepositoryMock()
	participations := repoMocks.NewParticipationRepositoryMock()
	codec := ticketing.NewCodec("test-signing-key")
	return service.NewTicketService(passThroughTx{}, tickets, participations, codec), tickets, participations, codec
}

func TestTicketService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - PayloadDecodes", func(t *testing.T) {
		svc, tickets, participations, codec := setupTicketService()
		p := confirmedParticipation(7)

		var created *model.Ticket
		participations.On("FindByIDForUpdate", ctx, mock.Anything, 11).Return(p, nil).Once()
		tickets.On("FindByParticipationIDTx", ctx, mock.Anything, 11).Return(nil, apperrors.ErrTicketNotFound).Once()
		tickets.On("Create", ctx, mock.Anything, mock.MatchedBy(func(tk *model.Ticket) bool {
			created = tk
			return true
		})).Return(&model.Ticket{TicketID: uuid.New(), ParticipationID: 11}, nil).Once()
		participations.On("SetTicket", ctx, mock.Anything, 11, mock.Anything).Return(nil).Once()

		_, err := svc.Issue(ctx, 11, 5)

		require.NoError(t, err)
		require.NotNil(t, created)
		claims, err := codec.Decode(created.QRPayload)
		require.NoError(t, err)
		assert.Equal(t, created.TicketID.String(), claims.TicketID)
		assert.Equal(t, 11, claims.ParticipationID)
		assert.Equal(t, 7, claims.EventID)
		assert.Equal(t, 5, claims.UserID)
	})

	t.Run("Existing - ReturnsSameTicket", func(t *testing.T) {
		svc, tickets, participations, _ := setupTicketService()
		existing := &model.Ticket{TicketID: uuid.New(), ParticipationID: 11}

		participations.On("FindByIDForUpdate", ctx, mock.Anything, 11).Return(confirmedParticipation(7), nil).Once()
		tickets.On("FindByParticipationIDTx", ctx, mock.Anything, 11).Return(existing, nil).Once()

		ticket, err := svc.Issue(ctx, 11, 5)

		require.NoError(t, err)
		assert.Equal(t, existing.TicketID, ticket.TicketID)
		tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - NotConfirmed", func(t *testing.T) {
		svc, _, participations, _ := setupTicketService()
		p := confirmedParticipation(7)
		p.Status = model.ParticipationStatusPending

		participations.On("FindByIDForUpdate", ctx, mock.Anything, 11).Return(p, nil).Once()

		_, err := svc.Issue(ctx, 11, 5)

		assert.ErrorIs(t, err, apperrors.ErrParticipationNotConfirmed)
	})

	t.Run("Failed - NotOwner", func(t *testing.T) {
		svc, _, participations, _ := setupTicketService()
		participations.On("FindByIDForUpdate", ctx, mock.Anything, 11).Return(confirmedParticipation(7), nil).Once()

		_, err := svc.Issue(ctx, 11, 6)

		assert.ErrorIs(t, err, apperrors.ErrNotParticipationOwner)
	})
}

func TestTicketService_GetForParticipation(t *testing.T) {
	ctx := context.Background()

	t.Run("Failed - NotOwner", func(t *testing.T) {
		svc, tickets, participations, _ := setupTicketService()
		participations.On("FindByID", ctx, 11).Return(confirmedParticipation(7), nil).Once()

		_, err := svc.GetForParticipation(ctx, 11, 6)

		assert.ErrorIs(t, err, apperrors.ErrNotParticipationOwner)
		tickets.AssertNotCalled(t, "FindByParticipationID", mock.Anything, mock.Anything)
	})
}
