package service

import (
	"context"
	"errors"
	"fmt"

	"campus-events/internal/database"
	"campus-events/internal/model"
	"campus-events/internal/queue"
	"campus-events/internal/repository"
	apperrors "campus-events/pkg/app_errors"
	"campus-events/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EventService interface {
	List(ctx context.Context) ([]*model.EventResponse, error)
	ListByOrganizer(ctx context.Context, organizerID int) ([]*model.EventResponse, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.EventResponse, error)
	// Create 建立草稿活動
	Create(ctx context.Context, organizerID int, params model.CreateEventParams) (*model.EventResponse, error)
	Update(ctx context.Context, organizerID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.EventResponse, error)
	// ChangeStatus 主辦方觸發的狀態轉換；發佈成功後送出通知
	ChangeStatus(ctx context.Context, organizerID int, eventID uuid.UUID, target model.EventStatus) (*model.EventResponse, error)
	Delete(ctx context.Context, organizerID int, eventID uuid.UUID) error
}

type EventServiceImpl struct {
	tx           database.TxRunner
	repo         repository.EventRepository
	capacityRepo repository.CapacityRepository
	userRepo     repository.UserRepository
	notices      queue.NoticeQueue
	opts         options
}

func NewEventService(
	tx database.TxRunner,
	repo repository.EventRepository,
	capacityRepo repository.CapacityRepository,
	userRepo repository.UserRepository,
	notices queue.NoticeQueue,
	opts ...Option,
) EventService {
	return &EventServiceImpl{
		tx:           tx,
		repo:         repo,
		capacityRepo: capacityRepo,
		userRepo:     userRepo,
		notices:      notices,
		opts:         buildOptions(opts),
	}
}

func (s *EventServiceImpl) respond(events []*model.Event) []*model.EventResponse {
	now := s.opts.now()
	out := make([]*model.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, model.NewEventResponse(e, now))
	}
	return out
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.EventResponse, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.respond(events), nil
}

func (s *EventServiceImpl) ListByOrganizer(ctx context.Context, organizerID int) ([]*model.EventResponse, error) {
	events, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	return s.respond(events), nil
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.EventResponse, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return model.NewEventResponse(event, s.opts.now()), nil
}

func (s *EventServiceImpl) Create(ctx context.Context, organizerID int, params model.CreateEventParams) (*model.EventResponse, error) {
	if !params.Type.IsValid() {
		return nil, apperrors.ErrInvalidEventType
	}

	event := &model.Event{
		EventID:     uuid.New(),
		OrganizerID: organizerID,
		Name:        params.Name,
		Description: params.Description,
		Type:        params.Type,
		Status:      model.EventStatusDraft,
		RegDeadline: params.RegDeadline,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Eligibility: params.Eligibility,
		RegLimit:    params.RegLimit,
		Normal:      params.Normal,
		Merch:       params.Merch,
	}
	if err := event.ValidateDates(); err != nil {
		return nil, err
	}
	if err := validateDraftConfig(event.Type, params.RegLimit, params.Normal, params.Merch); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, organizerID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrOrganizerNotFound
		}
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		created, err := s.repo.Create(ctx, tx, event)
		if err != nil {
			return err
		}
		if params.RegLimit != nil {
			if err := s.capacityRepo.InitSlots(ctx, tx, created.ID, *params.RegLimit); err != nil {
				return err
			}
		}
		if params.Merch != nil && len(params.Merch.Variants) > 0 {
			if err := s.capacityRepo.ReplaceVariants(ctx, tx, created.ID, params.Merch.Variants); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByEventID(ctx, event.EventID)
}

// validateDraftConfig 草稿允許設定不完整，但已填的部分必須與類型相符且合法
func validateDraftConfig(t model.EventType, regLimit *int, normal *model.NormalConfig, merch *model.MerchConfig) error {
	switch t {
	case model.EventTypeNormal:
		if merch != nil {
			return apperrors.ErrConfigTypeMismatch
		}
	case model.EventTypeMerch:
		if normal != nil || regLimit != nil {
			return apperrors.ErrConfigTypeMismatch
		}
	}
	if regLimit != nil && *regLimit < 1 {
		return apperrors.ErrInvalidRegLimit
	}
	if normal != nil {
		for _, f := range normal.Fields {
			if f.Name == "" {
				return apperrors.ErrInvalidFormField
			}
		}
	}
	if merch != nil {
		return merch.Validate()
	}
	return nil
}

func (s *EventServiceImpl) Update(ctx context.Context, organizerID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.EventResponse, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		event, err := s.repo.FindByEventIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireOrganizer(event, organizerID); err != nil {
			return err
		}

		if event.Status == model.EventStatusDraft {
			return s.updateDraft(ctx, tx, event, params)
		}
		return s.updatePublished(ctx, tx, event, params)
	})
	if err != nil {
		return nil, err
	}

	return s.GetByEventID(ctx, eventID)
}

func (s *EventServiceImpl) updateDraft(ctx context.Context, tx pgx.Tx, event *model.Event, params model.UpdateEventParams) error {
	merged := *event
	if params.RegDeadline != nil {
		merged.RegDeadline = *params.RegDeadline
	}
	if params.StartDate != nil {
		merged.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		merged.EndDate = *params.EndDate
	}
	if err := merged.ValidateDates(); err != nil {
		return err
	}
	if err := validateDraftConfig(event.Type, params.RegLimit, params.Normal, params.Merch); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, tx, event.ID, params); err != nil {
		return err
	}
	if params.RegLimit != nil {
		if err := s.capacityRepo.InitSlots(ctx, tx, event.ID, *params.RegLimit); err != nil {
			return err
		}
	}
	if params.Merch != nil {
		if err := s.capacityRepo.ReplaceVariants(ctx, tx, event.ID, params.Merch.Variants); err != nil {
			return err
		}
	}
	return nil
}

// updatePublished 發佈後只能改說明、延後截止時間、增加名額
func (s *EventServiceImpl) updatePublished(ctx context.Context, tx pgx.Tx, event *model.Event, params model.UpdateEventParams) error {
	if params.TouchesLockedFields() {
		return apperrors.ErrPublishedFieldLocked
	}

	if params.RegDeadline != nil {
		if params.RegDeadline.Before(event.RegDeadline) {
			return apperrors.ErrDeadlineMovedEarlier
		}
		if params.RegDeadline.After(event.StartDate) {
			return apperrors.ErrDeadlineAfterStart
		}
	}

	if params.RegLimit != nil {
		if event.Type != model.EventTypeNormal {
			return apperrors.ErrConfigTypeMismatch
		}
		if *params.RegLimit < 1 {
			return apperrors.ErrInvalidRegLimit
		}
		if event.RegLimit != nil && *params.RegLimit < *event.RegLimit {
			return apperrors.ErrRegLimitDecrease
		}
		if err := s.capacityRepo.SetLimit(ctx, tx, event.ID, *params.RegLimit); err != nil {
			return err
		}
	}

	return s.repo.Update(ctx, tx, event.ID, params)
}

func (s *EventServiceImpl) ChangeStatus(ctx context.Context, organizerID int, eventID uuid.UUID, target model.EventStatus) (*model.EventResponse, error) {
	if !target.IsValid() {
		return nil, apperrors.ErrInvalidEventStatus
	}
	if target == model.EventStatusOngoing {
		return nil, apperrors.ErrOngoingIsDerived
	}

	var event *model.Event
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		event, err = s.repo.FindByEventIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireOrganizer(event, organizerID); err != nil {
			return err
		}

		effective := event.EffectiveStatus(s.opts.now())
		if target == model.EventStatusCompleted && effective != model.EventStatusOngoing {
			return apperrors.ErrEventNotOngoing
		}
		if !effective.CanTransitionTo(target) {
			return apperrors.Detail(apperrors.ErrIllegalTransition,
				fmt.Sprintf("%s -> %s", effective, target))
		}
		if target == model.EventStatusPublished {
			if err := event.ValidateConfig(); err != nil {
				return apperrors.Detail(apperrors.ErrEventConfigMissing, apperrors.Message(err))
			}
		}

		if err := s.repo.UpdateStatus(ctx, tx, event.ID, target); err != nil {
			return err
		}
		event.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if target == model.EventStatusPublished {
		s.announce(ctx, event)
	}

	return model.NewEventResponse(event, s.opts.now()), nil
}

// announce 發佈通知在交易提交後送出，失敗只記錄
func (s *EventServiceImpl) announce(ctx context.Context, event *model.Event) {
	log := logger.WithComponent("service")

	organizerName := ""
	if organizer, err := s.userRepo.FindByID(ctx, event.OrganizerID); err == nil {
		organizerName = organizer.Name
	} else {
		log.Warn("lookup organizer for notice failed", zap.Int("organizer_id", event.OrganizerID), zap.Error(err))
	}

	notice := &model.EventNotice{
		EventID:       event.EventID,
		OrganizerName: organizerName,
		EventName:     event.Name,
		EventType:     event.Type,
		RegDeadline:   event.RegDeadline,
		StartDate:     event.StartDate,
		EndDate:       event.EndDate,
	}
	if err := s.notices.PublishNotice(ctx, notice); err != nil {
		log.Warn("publish event notice failed", zap.String("event_id", event.EventID.String()), zap.Error(err))
	}
}

func (s *EventServiceImpl) Delete(ctx context.Context, organizerID int, eventID uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		event, err := s.repo.FindByEventIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireOrganizer(event, organizerID); err != nil {
			return err
		}
		if event.Status != model.EventStatusDraft {
			return apperrors.ErrDeleteNonDraft
		}
		return s.repo.Delete(ctx, tx, event.ID)
	})
}
