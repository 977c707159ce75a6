package apperrors

import (
	"errors"
	"fmt"
)

// Kind 錯誤分類，handler 依此決定 HTTP 狀態碼
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPrecondition
	KindConflict
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	}
	return "internal"
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Precondition(msg string) *Error { return &Error{Kind: KindPrecondition, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }

// KindOf 回傳錯誤鏈上第一個 *Error 的分類，找不到則視為內部錯誤
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message 回傳可安全回給使用者的訊息；包裝過的分類錯誤保留補充說明
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return err.Error()
	}
	return "internal server error"
}

// Detail 以 base 的分類回傳帶補充說明的錯誤，errors.Is(err, base) 仍成立
func Detail(base *Error, detail string) error {
	return fmt.Errorf("%w: %s", base, detail)
}

var (
	ErrInvalidInput = Validation("invalid input")

	// event lifecycle
	ErrEventNotFound        = NotFound("event not found")
	ErrInvalidEventDates    = Validation("end date must be after start date")
	ErrDeadlineAfterStart   = Validation("registration deadline must not be after start date")
	ErrPublishedFieldLocked = Validation("published events only allow updating description/deadline-extension/limit-increase")
	ErrRegLimitDecrease     = Validation("registration limit can only increase")
	ErrDeadlineMovedEarlier = Validation("registration deadline can only be extended")
	ErrInvalidRegLimit      = Validation("registration limit must be at least 1")
	ErrInvalidEventType     = Validation("event type must be NORMAL or MERCH")
	ErrInvalidEventStatus   = Validation("invalid event status")
	ErrEventConfigMissing   = Precondition("event configuration is missing or invalid")
	ErrIllegalTransition    = Precondition("illegal event status transition")
	ErrOngoingIsDerived     = Precondition("ongoing status is derived from event dates and cannot be set")
	ErrEventNotOngoing      = Conflict("event must be ongoing to complete")
	ErrDeleteNonDraft       = Precondition("only draft events can be deleted")
	ErrNotEventOrganizer    = Forbidden("only the event organizer may perform this action")
	ErrOrganizerNotFound    = NotFound("organizer not found")
	ErrConfigTypeMismatch   = Validation("event configuration does not match event type")
	ErrDuplicateVariantSKU  = Validation("merchandise variant sku must be unique")
	ErrInvalidVariant       = Validation("merchandise variant requires sku, non-negative price and stock")
	ErrInvalidPurchaseLimit = Validation("per-participant purchase limit must be at least 1")
	ErrInvalidFormField     = Validation("form field requires a name")

	// admission
	ErrUserNotFound               = NotFound("user not found")
	ErrRegistrationClosed         = Precondition("event is not open for registration")
	ErrRegistrationDeadline       = Precondition("registration deadline has passed")
	ErrNotEligible                = Precondition("participant is not eligible for this event")
	ErrAlreadyRegistered          = Conflict("participant already has an active participation for this event")
	ErrEventFull                  = Conflict("registration limit reached")
	ErrInsufficientStock          = Conflict("insufficient stock")
	ErrExceedsMaxPerUser          = Conflict("exceeds per-participant purchase limit")
	ErrVariantNotFound            = NotFound("merchandise variant not found")
	ErrMissingFormAnswer          = Validation("required form answer is missing")
	ErrInvalidQuantity            = Validation("quantity must be at least 1")
	ErrLedgerContention           = Conflict("registration currently unavailable, please retry")
	ErrParticipationNotFound      = NotFound("participation not found")
	ErrInvalidParticipationStatus = Precondition("participation status does not allow this action")
	ErrNotParticipationOwner      = Forbidden("participation belongs to another participant")

	// tickets
	ErrTicketNotFound            = NotFound("ticket not found")
	ErrParticipationNotConfirmed = Precondition("participation is not confirmed")
	ErrInvalidTicketPayload      = NotFound("ticket payload could not be resolved")
	ErrNotTicketOwner            = Forbidden("ticket belongs to another participant")

	// payments
	ErrPaymentNotFound     = NotFound("payment not found")
	ErrPaymentStateChanged = Conflict("payment was decided by another review")

	// attendance
	ErrTicketWrongEvent        = Conflict("ticket belongs to a different event")
	ErrParticipationWrongEvent = Conflict("participation belongs to a different event")
	ErrOverrideReasonTooShort  = Validation("override reason must be at least 3 characters")
)
