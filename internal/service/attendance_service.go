package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"campus-events/internal/database"
	"campus-events/internal/model"
	"campus-events/internal/repository"
	"campus-events/internal/ticketing"
	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const minOverrideReasonLength = 3

type AttendanceService interface {
	// MarkByScan 掃描票券標記出席；重複掃描回傳 AlreadyMarked
	MarkByScan(ctx context.Context, eventID uuid.UUID, ref string) (*model.ScanResult, error)
	// Override 主辦方手動調整出席，必須附上理由
	Override(ctx context.Context, eventID uuid.UUID, organizerID int, participationID int, present bool, reason string) (*model.OverrideResult, error)
	Summary(ctx context.Context, eventID uuid.UUID, organizerID int) (*model.AttendanceSummary, error)
	AuditLog(ctx context.Context, eventID uuid.UUID, organizerID int, participationID int) ([]*model.AttendanceAuditEntry, error)
}

type AttendanceServiceImpl struct {
	tx                database.TxRunner
	repo              repository.AttendanceRepository
	eventRepo         repository.EventRepository
	participationRepo repository.ParticipationRepository
	ticketRepo        repository.TicketRepository
	codec             *ticketing.Codec
}

func NewAttendanceService(
	tx database.TxRunner,
	repo repository.AttendanceRepository,
	eventRepo repository.EventRepository,
	participationRepo repository.ParticipationRepository,
	ticketRepo repository.TicketRepository,
	codec *ticketing.Codec,
) AttendanceService {
	return &AttendanceServiceImpl{
		tx:                tx,
		repo:              repo,
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		ticketRepo:        ticketRepo,
		codec:             codec,
	}
}

// resolveTicket 簽章 payload 直接以報名 id 找票，不依賴輸入的票券 id
func (s *AttendanceServiceImpl) resolveTicket(ctx context.Context, raw string) (*model.Ticket, error) {
	ref, err := s.codec.ParseReference(raw)
	if err != nil {
		return nil, err
	}

	if ref.Claims == nil {
		return s.ticketRepo.FindByTicketID(ctx, ref.TicketID)
	}

	ticket, err := s.ticketRepo.FindByParticipationID(ctx, ref.Claims.ParticipationID)
	if err != nil {
		return nil, err
	}
	if ticket.TicketID != ref.TicketID || ticket.EventID != ref.Claims.EventID || ticket.UserID != ref.Claims.UserID {
		return nil, apperrors.ErrInvalidTicketPayload
	}
	return ticket, nil
}

func (s *AttendanceServiceImpl) MarkByScan(ctx context.Context, eventID uuid.UUID, raw string) (*model.ScanResult, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.resolveTicket(ctx, raw)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != event.ID {
		return nil, apperrors.ErrTicketWrongEvent
	}

	result := &model.ScanResult{
		TicketID:        ticket.TicketID.String(),
		ParticipationID: ticket.ParticipationID,
		ParticipantID:   ticket.UserID,
	}

	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		p, err := s.participationRepo.FindByIDForUpdate(ctx, tx, ticket.ParticipationID)
		if err != nil {
			return err
		}
		if p.Status != model.ParticipationStatusConfirmed {
			return apperrors.ErrParticipationNotConfirmed
		}

		current, err := s.repo.FindForUpdate(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		previous := model.StateOf(current)
		if previous == model.AttendanceStatePresent {
			result.AlreadyMarked = true
			return nil
		}

		if _, err := s.repo.SetPresence(ctx, tx, p.ID, true); err != nil {
			return err
		}
		return s.repo.AppendAudit(ctx, tx, &model.AttendanceAuditEntry{
			ParticipationID: p.ID,
			ActorType:       model.ActorTypeScanner,
			Action:          model.AttendanceActionScanPresent,
			PreviousState:   previous,
			NextState:       model.AttendanceStatePresent,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AttendanceServiceImpl) Override(ctx context.Context, eventID uuid.UUID, organizerID int, participationID int, present bool, reason string) (*model.OverrideResult, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < minOverrideReasonLength {
		return nil, apperrors.ErrOverrideReasonTooShort
	}

	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(event, organizerID); err != nil {
		return nil, err
	}

	next := model.AttendanceStateAbsent
	action := model.AttendanceActionManualAbsent
	if present {
		next = model.AttendanceStatePresent
		action = model.AttendanceActionManualPresent
	}

	result := &model.OverrideResult{ParticipationID: participationID, IsPresent: present}
	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		p, err := s.participationRepo.FindByIDForUpdate(ctx, tx, participationID)
		if err != nil {
			return err
		}
		if p.EventID != event.ID {
			return apperrors.ErrParticipationWrongEvent
		}
		if p.Status != model.ParticipationStatusConfirmed {
			return apperrors.ErrParticipationNotConfirmed
		}
		result.ParticipantID = p.UserID

		current, err := s.repo.FindForUpdate(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		previous := model.StateOf(current)
		if previous == next {
			result.AlreadyInState = true
			return nil
		}

		if _, err := s.repo.SetPresence(ctx, tx, p.ID, present); err != nil {
			return err
		}
		return s.repo.AppendAudit(ctx, tx, &model.AttendanceAuditEntry{
			ParticipationID: p.ID,
			ActorType:       model.ActorTypeOrganizer,
			ActorID:         &organizerID,
			Action:          action,
			Reason:          &reason,
			PreviousState:   previous,
			NextState:       next,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AttendanceServiceImpl) Summary(ctx context.Context, eventID uuid.UUID, organizerID int) (*model.AttendanceSummary, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(event, organizerID); err != nil {
		return nil, err
	}
	return s.repo.Summary(ctx, event.ID)
}

func (s *AttendanceServiceImpl) AuditLog(ctx context.Context, eventID uuid.UUID, organizerID int, participationID int) ([]*model.AttendanceAuditEntry, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(event, organizerID); err != nil {
		return nil, err
	}

	p, err := s.participationRepo.FindByID(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.EventID != event.ID {
		return nil, apperrors.ErrParticipationWrongEvent
	}
	return s.repo.ListAudit(ctx, p.ID)
}
