package model

import (
	"time"

	"github.com/google/uuid"
)

// ParticipationStatus 報名/購買紀錄狀態
type ParticipationStatus string

const (
	ParticipationStatusPending   ParticipationStatus = "pending"
	ParticipationStatusConfirmed ParticipationStatus = "confirmed"
	ParticipationStatusCancelled ParticipationStatus = "cancelled"
	ParticipationStatusRejected  ParticipationStatus = "rejected"
)

func (s ParticipationStatus) IsValid() bool {
	switch s {
	case ParticipationStatusPending, ParticipationStatusConfirmed,
		ParticipationStatusCancelled, ParticipationStatusRejected:
		return true
	}
	return false
}

// IsActive 未取消、未駁回的紀錄會佔用容量
func (s ParticipationStatus) IsActive() bool {
	return s == ParticipationStatusPending || s == ParticipationStatusConfirmed
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s ParticipationStatus) CanTransitionTo(target ParticipationStatus) bool {
	transitions := map[ParticipationStatus][]ParticipationStatus{
		ParticipationStatusPending:   {ParticipationStatusConfirmed, ParticipationStatusCancelled, ParticipationStatusRejected},
		ParticipationStatusConfirmed: {ParticipationStatusCancelled},
		ParticipationStatusCancelled: {},
		ParticipationStatusRejected:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// MerchPurchase 周邊購買明細（下單時的價格快照）
type MerchPurchase struct {
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

// Participation 參加者對單一活動的報名或購買紀錄，永不刪除
type Participation struct {
	ID          int                 `json:"id" db:"id"`
	EventID     int                 `json:"event_id" db:"event_id"`
	UserID      int                 `json:"user_id" db:"user_id"`
	EventType   EventType           `json:"event_type" db:"event_type"`
	Status      ParticipationStatus `json:"status" db:"status"`
	TicketID    *uuid.UUID          `json:"ticket_id,omitempty" db:"ticket_id"`
	TeamName    *string             `json:"team_name,omitempty" db:"team_name"`
	FormAnswers map[string]string   `json:"form_answers,omitempty" db:"form_answers"`
	Purchase    *MerchPurchase      `json:"purchase,omitempty" db:"purchase"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// AdmissionRequest 報名/購買請求；NORMAL 帶 FormAnswers，MERCH 帶 Merch
type AdmissionRequest struct {
	TeamName    *string
	FormAnswers map[string]string
	Merch       *MerchOrder
}

type MerchOrder struct {
	SKU           string
	Quantity      int
	PaymentMethod string
	ProofRef      string
}

// AdmissionResult 報名結果
type AdmissionResult struct {
	Participation *Participation `json:"participation"`
	Ticket        *Ticket        `json:"ticket,omitempty"`
	Payment       *Payment       `json:"payment,omitempty"`
}
