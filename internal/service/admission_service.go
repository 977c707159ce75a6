package service

import (
	"context"
	"strings"

	"campus-events/internal/cache"
	"campus-events/internal/database"
	"campus-events/internal/model"
	"campus-events/internal/repository"
	apperrors "campus-events/pkg/app_errors"
	"campus-events/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AdmissionService interface {
	// TryAdmit 報名或購買：檢查資格並在同一交易內預留容量、建立報名紀錄
	TryAdmit(ctx context.Context, eventID uuid.UUID, userID int, req model.AdmissionRequest) (*model.AdmissionResult, error)
	// Cancel 參加者取消，釋放容量
	Cancel(ctx context.Context, participationID int, userID int) (*model.Participation, error)
	// Get 參加者本人或活動主辦方可查看
	Get(ctx context.Context, participationID int, actorID int) (*model.Participation, error)
	ListByUser(ctx context.Context, userID int) ([]*model.Participation, error)
	// ListRoster 主辦方查看活動所有報名
	ListRoster(ctx context.Context, eventID uuid.UUID, organizerID int) ([]*model.Participation, error)
}

type AdmissionServiceImpl struct {
	tx                database.TxRunner
	lock              cache.AdmissionLock
	eventRepo         repository.EventRepository
	capacityRepo      repository.CapacityRepository
	participationRepo repository.ParticipationRepository
	paymentRepo       repository.PaymentRepository
	userRepo          repository.UserRepository
	tickets           TicketService
	opts              options
}

func NewAdmissionService(
	tx database.TxRunner,
	lock cache.AdmissionLock,
	eventRepo repository.EventRepository,
	capacityRepo repository.CapacityRepository,
	participationRepo repository.ParticipationRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	tickets TicketService,
	opts ...Option,
) AdmissionService {
	return &AdmissionServiceImpl{
		tx:                tx,
		lock:              lock,
		eventRepo:         eventRepo,
		capacityRepo:      capacityRepo,
		participationRepo: participationRepo,
		paymentRepo:       paymentRepo,
		userRepo:          userRepo,
		tickets:           tickets,
		opts:              buildOptions(opts),
	}
}

func (s *AdmissionServiceImpl) TryAdmit(ctx context.Context, eventID uuid.UUID, userID int, req model.AdmissionRequest) (*model.AdmissionResult, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// (a) 活動狀態與截止時間
	now := s.opts.now()
	if !event.AcceptsRegistration(now) {
		return nil, apperrors.ErrRegistrationClosed
	}
	if now.After(event.RegDeadline) {
		return nil, apperrors.ErrRegistrationDeadline
	}

	// (b) 參加資格
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !event.Eligibility.Allows(user) {
		return nil, apperrors.ErrNotEligible
	}

	if err := validateAdmissionRequest(event, req); err != nil {
		return nil, err
	}

	key := cache.EventKey(event.ID)
	if event.Type == model.EventTypeMerch {
		key = cache.VariantKey(event.ID, req.Merch.SKU)
	}
	release, err := s.lock.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *model.AdmissionResult
	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		// (c) 同一活動只能有一筆有效報名
		active, err := s.participationRepo.FindActive(ctx, tx, event.ID, userID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperrors.ErrAlreadyRegistered
		}

		// (d) 容量
		switch event.Type {
		case model.EventTypeNormal:
			result, err = s.admitNormal(ctx, tx, event, userID, req)
		case model.EventTypeMerch:
			result, err = s.admitMerch(ctx, tx, event, userID, req.Merch)
		default:
			err = apperrors.ErrInvalidEventType
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("participant admitted",
		zap.Int("event_id", event.ID),
		zap.Int("user_id", userID),
		zap.Int("participation_id", result.Participation.ID),
		zap.String("status", string(result.Participation.Status)),
	)
	return result, nil
}

func validateAdmissionRequest(event *model.Event, req model.AdmissionRequest) error {
	switch event.Type {
	case model.EventTypeNormal:
		if event.Normal == nil {
			return nil
		}
		for _, f := range event.Normal.Fields {
			if f.Required && strings.TrimSpace(req.FormAnswers[f.Name]) == "" {
				return apperrors.Detail(apperrors.ErrMissingFormAnswer, f.Name)
			}
		}
	case model.EventTypeMerch:
		if req.Merch == nil || req.Merch.SKU == "" {
			return apperrors.ErrInvalidInput
		}
		if req.Merch.Quantity < 1 {
			return apperrors.ErrInvalidQuantity
		}
		if _, ok := event.Variant(req.Merch.SKU); !ok {
			return apperrors.ErrVariantNotFound
		}
	}
	return nil
}

// admitNormal 免費活動：佔一個名額，直接確認並發票
func (s *AdmissionServiceImpl) admitNormal(ctx context.Context, tx pgx.Tx, event *model.Event, userID int, req model.AdmissionRequest) (*model.AdmissionResult, error) {
	if err := s.capacityRepo.ReserveSlot(ctx, tx, event.ID); err != nil {
		return nil, err
	}

	p, err := s.participationRepo.Create(ctx, tx, &model.Participation{
		EventID:     event.ID,
		UserID:      userID,
		EventType:   event.Type,
		Status:      model.ParticipationStatusConfirmed,
		TeamName:    req.TeamName,
		FormAnswers: req.FormAnswers,
	})
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.IssueInTx(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	return &model.AdmissionResult{Participation: p, Ticket: ticket}, nil
}

// admitMerch 周邊購買：預留庫存，建立待審付款
func (s *AdmissionServiceImpl) admitMerch(ctx context.Context, tx pgx.Tx, event *model.Event, userID int, order *model.MerchOrder) (*model.AdmissionResult, error) {
	variant, err := s.capacityRepo.FindVariantForUpdate(ctx, tx, event.ID, order.SKU)
	if err != nil {
		return nil, err
	}
	if order.Quantity > variant.Available() {
		return nil, apperrors.ErrInsufficientStock
	}

	bought, err := s.participationRepo.SumActiveQuantity(ctx, tx, event.ID, userID)
	if err != nil {
		return nil, err
	}
	if bought+order.Quantity > event.Merch.PurchaseLimit {
		return nil, apperrors.ErrExceedsMaxPerUser
	}

	if err := s.capacityRepo.ReserveStock(ctx, tx, variant.ID, order.Quantity); err != nil {
		return nil, err
	}

	total := variant.PriceCents * int64(order.Quantity)
	p, err := s.participationRepo.Create(ctx, tx, &model.Participation{
		EventID:   event.ID,
		UserID:    userID,
		EventType: event.Type,
		Status:    model.ParticipationStatusPending,
		Purchase: &model.MerchPurchase{
			SKU:            variant.SKU,
			Quantity:       order.Quantity,
			UnitPriceCents: variant.PriceCents,
			TotalCents:     total,
		},
	})
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.Create(ctx, tx, &model.Payment{
		ParticipationID: p.ID,
		Status:          model.PaymentStatusPending,
		AmountCents:     total,
		Method:          order.PaymentMethod,
		ProofRef:        order.ProofRef,
	})
	if err != nil {
		return nil, err
	}

	return &model.AdmissionResult{Participation: p, Payment: payment}, nil
}

func (s *AdmissionServiceImpl) Cancel(ctx context.Context, participationID int, userID int) (*model.Participation, error) {
	var p *model.Participation
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		p, err = s.participationRepo.FindByIDForUpdate(ctx, tx, participationID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return apperrors.ErrNotParticipationOwner
		}
		if !p.Status.CanTransitionTo(model.ParticipationStatusCancelled) {
			return apperrors.ErrInvalidParticipationStatus
		}

		if err := s.participationRepo.UpdateStatus(ctx, tx, p.ID, model.ParticipationStatusCancelled); err != nil {
			return err
		}
		p.Status = model.ParticipationStatusCancelled

		return s.release(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// release 退回一筆報名佔用的容量；周邊購買一併關閉待審付款
func (s *AdmissionServiceImpl) release(ctx context.Context, tx pgx.Tx, p *model.Participation) error {
	switch p.EventType {
	case model.EventTypeNormal:
		return s.capacityRepo.ReleaseSlot(ctx, tx, p.EventID)
	case model.EventTypeMerch:
		if p.Purchase == nil {
			return nil
		}
		if err := s.capacityRepo.ReleaseStock(ctx, tx, p.EventID, p.Purchase.SKU, p.Purchase.Quantity); err != nil {
			return err
		}
		return s.paymentRepo.RejectPendingByParticipation(ctx, tx, p.ID, "cancelled by participant")
	}
	return nil
}

func (s *AdmissionServiceImpl) Get(ctx context.Context, participationID int, actorID int) (*model.Participation, error) {
	p, err := s.participationRepo.FindByID(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.UserID == actorID {
		return p, nil
	}

	event, err := s.eventRepo.FindByID(ctx, p.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actorID {
		return nil, apperrors.ErrNotParticipationOwner
	}
	return p, nil
}

func (s *AdmissionServiceImpl) ListByUser(ctx context.Context, userID int) ([]*model.Participation, error) {
	return s.participationRepo.ListByUser(ctx, userID)
}

func (s *AdmissionServiceImpl) ListRoster(ctx context.Context, eventID uuid.UUID, organizerID int) ([]*model.Participation, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(event, organizerID); err != nil {
		return nil, err
	}
	return s.participationRepo.ListByEvent(ctx, event.ID)
}
