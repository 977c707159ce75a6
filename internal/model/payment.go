package model

import "time"

// PaymentStatus 付款審核狀態，pending 之後即為終態
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	return s == PaymentStatusPending && (target == PaymentStatusApproved || target == PaymentStatusRejected)
}

// Payment 周邊購買的付款憑證；本系統不處理金流，只記錄憑證與審核結果
type Payment struct {
	ID              int           `json:"id" db:"id"`
	ParticipationID int           `json:"participation_id" db:"participation_id"`
	Status          PaymentStatus `json:"status" db:"status"`
	AmountCents     int64         `json:"amount_cents" db:"amount_cents"`
	Method          string        `json:"method" db:"method"`
	ProofRef        string        `json:"proof_ref" db:"proof_ref"`
	ReviewedBy      *int          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewNote      *string       `json:"review_note,omitempty" db:"review_note"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

type PaymentDecision string

const (
	PaymentDecisionApprove PaymentDecision = "approve"
	PaymentDecisionReject  PaymentDecision = "reject"
)

// PaymentReviewResult 審核結果；AlreadyDecided 代表付款早已不是 pending，本次未做任何變更
type PaymentReviewResult struct {
	Payment        *Payment       `json:"payment"`
	Participation  *Participation `json:"participation,omitempty"`
	Ticket         *Ticket        `json:"ticket,omitempty"`
	AlreadyDecided bool           `json:"already_decided"`
}
