package service

import (
	"context"

	"campus-events/internal/database"
	"campus-events/internal/model"
	"campus-events/internal/repository"
	apperrors "campus-events/pkg/app_errors"
	"campus-events/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentService interface {
	// Review 主辦方審核付款；付款已不是 pending 時回傳 AlreadyDecided，不視為錯誤
	Review(ctx context.Context, paymentID int, reviewerID int, decision model.PaymentDecision, note *string) (*model.PaymentReviewResult, error)
	ListPending(ctx context.Context, eventID uuid.UUID, organizerID int) ([]*model.Payment, error)
}

type PaymentServiceImpl struct {
	tx                database.TxRunner
	repo              repository.PaymentRepository
	participationRepo repository.ParticipationRepository
	eventRepo         repository.EventRepository
	capacityRepo      repository.CapacityRepository
	tickets           TicketService
}

func NewPaymentService(
	tx database.TxRunner,
	repo repository.PaymentRepository,
	participationRepo repository.ParticipationRepository,
	eventRepo repository.EventRepository,
	capacityRepo repository.CapacityRepository,
	tickets TicketService,
) PaymentService {
	return &PaymentServiceImpl{
		tx:                tx,
		repo:              repo,
		participationRepo: participationRepo,
		eventRepo:         eventRepo,
		capacityRepo:      capacityRepo,
		tickets:           tickets,
	}
}

func (s *PaymentServiceImpl) Review(ctx context.Context, paymentID int, reviewerID int, decision model.PaymentDecision, note *string) (*model.PaymentReviewResult, error) {
	var target model.PaymentStatus
	switch decision {
	case model.PaymentDecisionApprove:
		target = model.PaymentStatusApproved
	case model.PaymentDecisionReject:
		target = model.PaymentStatusRejected
	default:
		return nil, apperrors.ErrInvalidInput
	}

	// 先取得報名 id，交易內依「報名 → 付款」順序上鎖，與取消流程一致
	current, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	result := &model.PaymentReviewResult{}
	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		p, err := s.participationRepo.FindByIDForUpdate(ctx, tx, current.ParticipationID)
		if err != nil {
			return err
		}
		event, err := s.eventRepo.FindByID(ctx, p.EventID)
		if err != nil {
			return err
		}
		if err := requireOrganizer(event, reviewerID); err != nil {
			return err
		}

		payment, err := s.repo.FindByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		result.Payment = payment
		result.Participation = p

		if !payment.Status.CanTransitionTo(target) {
			result.AlreadyDecided = true
			return nil
		}

		next := model.ParticipationStatusConfirmed
		if target == model.PaymentStatusRejected {
			next = model.ParticipationStatusRejected
		}
		if !p.Status.CanTransitionTo(next) {
			return apperrors.ErrInvalidParticipationStatus
		}

		decided, err := s.repo.Decide(ctx, tx, payment.ID, target, &reviewerID, note)
		if err != nil {
			return err
		}
		// 已持有付款列鎖，沒有更新代表狀態在鎖外被改動
		if !decided {
			return apperrors.ErrPaymentStateChanged
		}
		payment.Status = target
		payment.ReviewedBy = &reviewerID
		payment.ReviewNote = note

		if err := s.participationRepo.UpdateStatus(ctx, tx, p.ID, next); err != nil {
			return err
		}
		p.Status = next

		if target == model.PaymentStatusApproved {
			ticket, err := s.tickets.IssueInTx(ctx, tx, p)
			if err != nil {
				return err
			}
			result.Ticket = ticket
			return nil
		}

		if p.Purchase != nil {
			return s.capacityRepo.ReleaseStock(ctx, tx, p.EventID, p.Purchase.SKU, p.Purchase.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyDecided {
		logger.WithComponent("service").Info("payment already decided",
			zap.Int("payment_id", paymentID),
			zap.String("status", string(result.Payment.Status)))
	}
	return result, nil
}

func (s *PaymentServiceImpl) ListPending(ctx context.Context, eventID uuid.UUID, organizerID int) ([]*model.Payment, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(event, organizerID); err != nil {
		return nil, err
	}
	return s.repo.ListPendingByEvent(ctx, event.ID)
}
