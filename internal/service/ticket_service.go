package service

import (
	"context"
	"errors"

	"campus-events/internal/database"
	"campus-events/internal/model"
	"campus-events/internal/repository"
	"campus-events/internal/ticketing"
	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TicketService interface {
	// Issue 參加者為自己已確認的報名取票；重複呼叫回傳同一張票
	Issue(ctx context.Context, participationID int, userID int) (*model.Ticket, error)
	// IssueInTx 在呼叫端交易中發票，呼叫端須已鎖定報名列
	IssueInTx(ctx context.Context, tx pgx.Tx, p *model.Participation) (*model.Ticket, error)
	GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	// GetForParticipation 參加者查看自己的票
	GetForParticipation(ctx context.Context, participationID int, userID int) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	tx                database.TxRunner
	repo              repository.TicketRepository
	participationRepo repository.ParticipationRepository
	codec             *ticketing.Codec
}

func NewTicketService(
	tx database.TxRunner,
	repo repository.TicketRepository,
	participationRepo repository.ParticipationRepository,
	codec *ticketing.Codec,
) TicketService {
	return &TicketServiceImpl{
		tx:                tx,
		repo:              repo,
		participationRepo: participationRepo,
		codec:             codec,
	}
}

func (s *TicketServiceImpl) Issue(ctx context.Context, participationID int, userID int) (*model.Ticket, error) {
	var ticket *model.Ticket
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		p, err := s.participationRepo.FindByIDForUpdate(ctx, tx, participationID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return apperrors.ErrNotParticipationOwner
		}
		ticket, err = s.IssueInTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketServiceImpl) IssueInTx(ctx context.Context, tx pgx.Tx, p *model.Participation) (*model.Ticket, error) {
	if p.Status != model.ParticipationStatusConfirmed {
		return nil, apperrors.ErrParticipationNotConfirmed
	}

	existing, err := s.repo.FindByParticipationIDTx(ctx, tx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrTicketNotFound) {
		return nil, err
	}

	ticketID := uuid.New()
	payload, err := s.codec.Encode(ticketID, p.EventID, p.ID, p.UserID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.repo.Create(ctx, tx, &model.Ticket{
		TicketID:        ticketID,
		ParticipationID: p.ID,
		EventID:         p.EventID,
		UserID:          p.UserID,
		EventType:       p.EventType,
		QRPayload:       payload,
	})
	if err != nil {
		return nil, err
	}

	if err := s.participationRepo.SetTicket(ctx, tx, p.ID, ticket.TicketID); err != nil {
		return nil, err
	}
	p.TicketID = &ticket.TicketID

	return ticket, nil
}

func (s *TicketServiceImpl) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	return s.repo.FindByTicketID(ctx, ticketID)
}

func (s *TicketServiceImpl) GetForParticipation(ctx context.Context, participationID int, userID int) (*model.Ticket, error) {
	p, err := s.participationRepo.FindByID(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperrors.ErrNotParticipationOwner
	}
	return s.repo.FindByParticipationID(ctx, participationID)
}
