package model

import (
	"time"

	apperrors "campus-events/pkg/app_errors"

	"github.com/google/uuid"
)

// EventType 活動類型
type EventType string

const (
	EventTypeNormal EventType = "NORMAL"
	EventTypeMerch  EventType = "MERCH"
)

func (t EventType) IsValid() bool {
	return t == EventTypeNormal || t == EventTypeMerch
}

// EventStatus 活動儲存狀態
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusClosed    EventStatus = "CLOSED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// IsValid 驗證狀態是否有效
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusOngoing, EventStatusClosed, EventStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo 以「有效狀態」為起點，檢查主辦方能否切換到目標狀態
// ONGOING 由時間推導，不在任何允許清單內
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	transitions := map[EventStatus][]EventStatus{
		EventStatusDraft:     {EventStatusPublished},
		EventStatusPublished: {EventStatusClosed},
		EventStatusOngoing:   {EventStatusClosed, EventStatusCompleted},
		EventStatusClosed:    {},
		EventStatusCompleted: {}, // 終態
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

// Eligibility 參加資格：空清單代表不限制
type Eligibility struct {
	Departments []string `json:"departments,omitempty"`
	Years       []int    `json:"years,omitempty"`
}

// Allows 以簡單的類別比對判斷使用者是否符合資格
func (e Eligibility) Allows(u *User) bool {
	if u == nil {
		return false
	}
	if len(e.Departments) > 0 && !containsString(e.Departments, u.Department) {
		return false
	}
	if len(e.Years) > 0 && !containsInt(e.Years, u.Year) {
		return false
	}
	return true
}

// FormField NORMAL 活動報名表欄位
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

type NormalConfig struct {
	Fields []FormField `json:"fields"`
}

// MerchVariant 周邊商品規格，Stock/Reserved 由容量帳本維護
type MerchVariant struct {
	ID         int    `json:"id" db:"id"`
	EventID    int    `json:"event_id" db:"event_id"`
	SKU        string `json:"sku" db:"sku"`
	Name       string `json:"name" db:"name"`
	PriceCents int64  `json:"price_cents" db:"price_cents"`
	Stock      int    `json:"stock" db:"stock"`
	Reserved   int    `json:"reserved" db:"reserved"`
}

// Available 尚可預留的數量
func (v *MerchVariant) Available() int {
	return v.Stock - v.Reserved
}

type MerchConfig struct {
	PurchaseLimit int            `json:"purchase_limit"`
	Variants      []MerchVariant `json:"variants"`
}

// Event 活動模型；Normal 與 Merch 依 Type 只會有一個有值
type Event struct {
	ID          int         `json:"id" db:"id"`
	EventID     uuid.UUID   `json:"event_id" db:"event_id"`
	OrganizerID int         `json:"organizer_id" db:"organizer_id"`
	Name        string      `json:"name" db:"name"`
	Description *string     `json:"description,omitempty" db:"description"`
	Type        EventType   `json:"type" db:"type"`
	Status      EventStatus `json:"status" db:"status"`
	RegDeadline time.Time   `json:"reg_deadline" db:"reg_deadline"`
	StartDate   time.Time   `json:"start_date" db:"start_date"`
	EndDate     time.Time   `json:"end_date" db:"end_date"`
	Eligibility Eligibility `json:"eligibility" db:"eligibility"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`

	// NORMAL：RegLimit 存於容量帳本
	RegLimit *int          `json:"reg_limit,omitempty" db:"-"`
	Consumed int           `json:"consumed" db:"-"`
	Normal   *NormalConfig `json:"normal_config,omitempty" db:"normal_config"`
	// MERCH
	Merch *MerchConfig `json:"merch_config,omitempty" db:"-"`
}

// EffectiveStatus 依時間推導顯示狀態，不寫回資料庫
func (e *Event) EffectiveStatus(now time.Time) EventStatus {
	if e.Status == EventStatusPublished || e.Status == EventStatusClosed {
		if !now.Before(e.StartDate) && !now.After(e.EndDate) {
			return EventStatusOngoing
		}
	}
	return e.Status
}

// AcceptsRegistration 有效狀態為 PUBLISHED 或 ONGOING 才開放
func (e *Event) AcceptsRegistration(now time.Time) bool {
	switch e.EffectiveStatus(now) {
	case EventStatusPublished, EventStatusOngoing:
		return true
	}
	return false
}

// ValidateDates endDate > startDate 且 regDeadline <= startDate
func (e *Event) ValidateDates() error {
	if !e.EndDate.After(e.StartDate) {
		return apperrors.ErrInvalidEventDates
	}
	if e.RegDeadline.After(e.StartDate) {
		return apperrors.ErrDeadlineAfterStart
	}
	return nil
}

// ValidateConfig 檢查類型專屬設定，發佈前必須通過
func (e *Event) ValidateConfig() error {
	switch e.Type {
	case EventTypeNormal:
		if e.Merch != nil {
			return apperrors.ErrConfigTypeMismatch
		}
		// 報名表可以沒有欄位，名額必填
		if e.RegLimit == nil {
			return apperrors.ErrEventConfigMissing
		}
		if *e.RegLimit < 1 {
			return apperrors.ErrInvalidRegLimit
		}
		if e.Normal != nil {
			for _, f := range e.Normal.Fields {
				if f.Name == "" {
					return apperrors.ErrInvalidFormField
				}
			}
		}
	case EventTypeMerch:
		if e.Normal != nil || e.RegLimit != nil {
			return apperrors.ErrConfigTypeMismatch
		}
		if e.Merch == nil || len(e.Merch.Variants) == 0 {
			return apperrors.ErrEventConfigMissing
		}
		return e.Merch.Validate()
	default:
		return apperrors.ErrInvalidEventType
	}
	return nil
}

func (c *MerchConfig) Validate() error {
	if c.PurchaseLimit < 1 {
		return apperrors.ErrInvalidPurchaseLimit
	}
	seen := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		if v.SKU == "" || v.PriceCents < 0 || v.Stock < 0 {
			return apperrors.ErrInvalidVariant
		}
		if seen[v.SKU] {
			return apperrors.ErrDuplicateVariantSKU
		}
		seen[v.SKU] = true
	}
	return nil
}

// Variant 依 sku 取得規格
func (e *Event) Variant(sku string) (*MerchVariant, bool) {
	if e.Merch == nil {
		return nil, false
	}
	for i := range e.Merch.Variants {
		if e.Merch.Variants[i].SKU == sku {
			return &e.Merch.Variants[i], true
		}
	}
	return nil, false
}

// CreateEventParams 建立活動參數（草稿）
type CreateEventParams struct {
	Name        string
	Description *string
	Type        EventType
	RegDeadline time.Time
	StartDate   time.Time
	EndDate     time.Time
	RegLimit    *int
	Eligibility Eligibility
	Normal      *NormalConfig
	Merch       *MerchConfig
}

// UpdateEventParams nil 代表不更新
type UpdateEventParams struct {
	Name        *string
	Description *string
	RegDeadline *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	RegLimit    *int
	Eligibility *Eligibility
	Normal      *NormalConfig
	Merch       *MerchConfig
}

// IsEmpty 沒有任何欄位需要更新
func (p UpdateEventParams) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.RegDeadline == nil &&
		p.StartDate == nil && p.EndDate == nil && p.RegLimit == nil &&
		p.Eligibility == nil && p.Normal == nil && p.Merch == nil
}

// TouchesLockedFields 發佈後只允許 description / regDeadline / regLimit
func (p UpdateEventParams) TouchesLockedFields() bool {
	return p.Name != nil || p.StartDate != nil || p.EndDate != nil ||
		p.Eligibility != nil || p.Normal != nil || p.Merch != nil
}

// EventResponse 活動響應，附帶推導出的顯示狀態
type EventResponse struct {
	*Event
	DisplayStatus  EventStatus `json:"display_status"`
	RemainingSlots *int        `json:"remaining_slots,omitempty"`
}

func NewEventResponse(e *Event, now time.Time) *EventResponse {
	resp := &EventResponse{Event: e, DisplayStatus: e.EffectiveStatus(now)}
	if e.RegLimit != nil {
		remaining := *e.RegLimit - e.Consumed
		resp.RemainingSlots = &remaining
	}
	return resp
}

// EventNotice 發佈通知內容，送往外部 Notifier
type EventNotice struct {
	EventID       uuid.UUID `json:"event_id"`
	OrganizerName string    `json:"organizer_name"`
	EventName     string    `json:"event_name"`
	EventType     EventType `json:"event_type"`
	RegDeadline   time.Time `json:"reg_deadline"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
