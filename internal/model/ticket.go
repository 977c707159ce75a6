package model

import (
	"time"

	"github.com/google/uuid"
)

// Ticket 已確認報名的票券，建立後不可變
type Ticket struct {
	ID              int       `json:"id" db:"id"`
	TicketID        uuid.UUID `json:"ticket_id" db:"ticket_id"`
	ParticipationID int       `json:"participation_id" db:"participation_id"`
	EventID         int       `json:"event_id" db:"event_id"`
	UserID          int       `json:"user_id" db:"user_id"`
	EventType       EventType `json:"event_type" db:"event_type"`
	QRPayload       string    `json:"qr_payload" db:"qr_payload"`
	IssuedAt        time.Time `json:"issued_at" db:"issued_at"`
}
