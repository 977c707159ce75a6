package mocks

import (
	"context"

	"campus-events/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type EventServiceMock struct {
	mock.Mock
}

func NewEventServiceMock() *EventServiceMock {
	return &EventServiceMock{}
}

func (m *EventServiceMock) List(ctx context.Context) ([]*model.EventResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EventResponse), args.Error(1)
}

func (m *EventServiceMock) ListByOrganizer(ctx context.Context, organizerID int) ([]*model.EventResponse, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EventResponse), args.Error(1)
}

func (m *EventServiceMock) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.EventResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventResponse), args.Error(1)
}

func (m *EventServiceMock) Create(ctx context.Context, organizerID int, params model.CreateEventParams) (*model.EventResponse, error) {
	args := m.Called(ctx, organizerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventResponse), args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, organizerID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.EventResponse, error) {
	args := m.Called(ctx, organizerID, eventID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventResponse), args.Error(1)
}

func (m *EventServiceMock) ChangeStatus(ctx context.Context, organizerID int, eventID uuid.UUID, target model.EventStatus) (*model.EventResponse, error) {
	args := m.Called(ctx, organizerID, eventID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventResponse), args.Error(1)
}

func (m *EventServiceMock) Delete(ctx context.Context, organizerID int, eventID uuid.UUID) error {
	return m.Called(ctx, organizerID, eventID).Error(0)
}

type AdmissionServiceMock struct {
	mock.Mock
}

func NewAdmissionServiceMock() *AdmissionServiceMock {
	return &AdmissionServiceMock{}
}

func (m *AdmissionServiceMock) TryAdmit(ctx context.Context, eventID uuid.UUID, userID int, req model.AdmissionRequest) (*model.AdmissionResult, error) {
	args := m.Called(ctx, eventID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdmissionResult), args.Error(1)
}

func (m *AdmissionServiceMock) Cancel(ctx context.Context, participationID int, userID int) (*model.Participation, error) {
	args := m.Called(ctx, participationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *AdmissionServiceMock) Get(ctx context.Context, participationID int, actorID int) (*model.Participation, error) {
	args := m.Called(ctx, participationID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *AdmissionServiceMock) ListByUser(ctx context.Context, userID int) ([]*model.Participation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Participation), args.Error(1)
}

func (m *AdmissionServiceMock) ListRoster(ctx context.Context, eventID uuid.UUID, organizerID int) ([]*model.Participation, error) {
	args := m.Called(ctx, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Participation), args.Error(1)
}

type PaymentServiceMock struct {
	mock.Mock
}

func NewPaymentServiceMock() *PaymentServiceMock {
	return &PaymentServiceMock{}
}

func (m *PaymentServiceMock) Review(ctx context.Context, paymentID int, reviewerID int, decision model.PaymentDecision, note *string) (*model.PaymentReviewResult, error) {
	args := m.Called(ctx, paymentID, reviewerID, decision, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentReviewResult), args.Error(1)
}

func (m *PaymentServiceMock) ListPending(ctx context.Context, eventID uuid.UUID, organizerID int) ([]*model.Payment, error) {
	args := m.Called(ctx, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

type AttendanceServiceMock struct {
	mock.Mock
}

func NewAttendanceServiceMock() *AttendanceServiceMock {
	return &AttendanceServiceMock{}
}

func (m *AttendanceServiceMock) MarkByScan(ctx context.Context, eventID uuid.UUID, ref string) (*model.ScanResult, error) {
	args := m.Called(ctx, eventID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanResult), args.Error(1)
}

func (m *AttendanceServiceMock) Override(ctx context.Context, eventID uuid.UUID, organizerID int, participationID int, present bool, reason string) (*model.OverrideResult, error) {
	args := m.Called(ctx, eventID, organizerID, participationID, present, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OverrideResult), args.Error(1)
}

func (m *AttendanceServiceMock) Summary(ctx context.Context, eventID uuid.UUID, organizerID int) (*model.AttendanceSummary, error) {
	args := m.Called(ctx, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AttendanceSummary), args.Error(1)
}

func (m *AttendanceServiceMock) AuditLog(ctx context.Context, eventID uuid.UUID, organizerID int, participationID int) ([]*model.AttendanceAuditEntry, error) {
	args := m.Called(ctx, eventID, organizerID, participationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AttendanceAuditEntry), args.Error(1)
}

type TicketServiceMock struct {
	mock.Mock
}

func NewTicketServiceMock() *TicketServiceMock {
	return &TicketServiceMock{}
}

func (m *TicketServiceMock) Issue(ctx context.Context, participationID int, userID int) (*model.Ticket, error) {
	args := m.Called(ctx, participationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) IssueInTx(ctx context.Context, tx pgx.Tx, p *model.Participation) (*model.Ticket, error) {
	args := m.Called(ctx, tx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) GetForParticipation(ctx context.Context, participationID int, userID int) (*model.Ticket, error) {
	args := m.Called(ctx, participationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}
