package handler

import (
	"time"

	"campus-events/internal/model"

	validation "github.com/go-ozzo/ozzo-validation"
)

type FormFieldRequest struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

func (r FormFieldRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64)),
	)
}

type VariantRequest struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

func (r VariantRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SKU, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.PriceCents, validation.Min(int64(0))),
		validation.Field(&r.Stock, validation.Min(0)),
	)
}

type MerchConfigRequest struct {
	PurchaseLimit int              `json:"purchase_limit"`
	Variants      []VariantRequest `json:"variants"`
}

func (r MerchConfigRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PurchaseLimit, validation.Required, validation.Min(1)),
		validation.Field(&r.Variants),
	)
}

func (r *MerchConfigRequest) toModel() *model.MerchConfig {
	if r == nil {
		return nil
	}
	cfg := &model.MerchConfig{PurchaseLimit: r.PurchaseLimit}
	for _, v := range r.Variants {
		cfg.Variants = append(cfg.Variants, model.MerchVariant{
			SKU:        v.SKU,
			Name:       v.Name,
			PriceCents: v.PriceCents,
			Stock:      v.Stock,
		})
	}
	return cfg
}

type NormalConfigRequest struct {
	Fields []FormFieldRequest `json:"fields"`
}

func (r *NormalConfigRequest) toModel() *model.NormalConfig {
	if r == nil {
		return nil
	}
	cfg := &model.NormalConfig{Fields: make([]model.FormField, 0, len(r.Fields))}
	for _, f := range r.Fields {
		cfg.Fields = append(cfg.Fields, model.FormField{Name: f.Name, Label: f.Label, Required: f.Required})
	}
	return cfg
}

// CreateEventRequest 建立活動（草稿）請求
type CreateEventRequest struct {
	Name         string               `json:"name"`
	Description  *string              `json:"description"`
	Type         model.EventType      `json:"type"`
	RegDeadline  time.Time            `json:"reg_deadline"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	RegLimit     *int                 `json:"reg_limit"`
	Eligibility  model.Eligibility    `json:"eligibility"`
	NormalConfig *NormalConfigRequest `json:"normal_config"`
	MerchConfig  *MerchConfigRequest  `json:"merch_config"`
}

func (r *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&r.Type, validation.Required, validation.In(model.EventTypeNormal, model.EventTypeMerch)),
		validation.Field(&r.RegDeadline, validation.Required),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.EndDate, validation.Required),
		validation.Field(&r.RegLimit, validation.Min(1)),
		validation.Field(&r.NormalConfig),
		validation.Field(&r.MerchConfig),
	)
}

func (r *CreateEventRequest) toParams() model.CreateEventParams {
	return model.CreateEventParams{
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		RegDeadline: r.RegDeadline,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		RegLimit:    r.RegLimit,
		Eligibility: r.Eligibility,
		Normal:      r.NormalConfig.toModel(),
		Merch:       r.MerchConfig.toModel(),
	}
}

// UpdateEventRequest 未提供的欄位不更新；未宣告的欄位（type、status、organizer_id 等）整筆拒絕
type UpdateEventRequest struct {
	Name         *string              `json:"name"`
	Description  *string              `json:"description"`
	RegDeadline  *time.Time           `json:"reg_deadline"`
	StartDate    *time.Time           `json:"start_date"`
	EndDate      *time.Time           `json:"end_date"`
	RegLimit     *int                 `json:"reg_limit"`
	Eligibility  *model.Eligibility   `json:"eligibility"`
	NormalConfig *NormalConfigRequest `json:"normal_config"`
	MerchConfig  *MerchConfigRequest  `json:"merch_config"`
}

func (r *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(2, 120)),
		validation.Field(&r.NormalConfig),
		validation.Field(&r.MerchConfig),
	)
}

func (r *UpdateEventRequest) toParams() model.UpdateEventParams {
	return model.UpdateEventParams{
		Name:        r.Name,
		Description: r.Description,
		RegDeadline: r.RegDeadline,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		RegLimit:    r.RegLimit,
		Eligibility: r.Eligibility,
		Normal:      r.NormalConfig.toModel(),
		Merch:       r.MerchConfig.toModel(),
	}
}

type ChangeStatusRequest struct {
	Status model.EventStatus `json:"status"`
}

func (r *ChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required),
	)
}

type MerchOrderRequest struct {
	SKU           string `json:"sku"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"payment_method"`
	ProofRef      string `json:"proof_ref"`
}

func (r MerchOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SKU, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.PaymentMethod, validation.Required, validation.Length(1, 32)),
		validation.Field(&r.ProofRef, validation.Length(0, 512)),
	)
}

// RegisterRequest NORMAL 帶 form_answers，MERCH 帶 merch
type RegisterRequest struct {
	TeamName    *string            `json:"team_name"`
	FormAnswers map[string]string  `json:"form_answers"`
	Merch       *MerchOrderRequest `json:"merch"`
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TeamName, validation.NilOrNotEmpty, validation.Length(1, 64)),
		validation.Field(&r.Merch),
	)
}

func (r *RegisterRequest) toModel() model.AdmissionRequest {
	req := model.AdmissionRequest{
		TeamName:    r.TeamName,
		FormAnswers: r.FormAnswers,
	}
	if r.Merch != nil {
		req.Merch = &model.MerchOrder{
			SKU:           r.Merch.SKU,
			Quantity:      r.Merch.Quantity,
			PaymentMethod: r.Merch.PaymentMethod,
			ProofRef:      r.Merch.ProofRef,
		}
	}
	return req
}

type ReviewPaymentRequest struct {
	Decision model.PaymentDecision `json:"decision"`
	Note     *string               `json:"note"`
}

func (r *ReviewPaymentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Decision, validation.Required,
			validation.In(model.PaymentDecisionApprove, model.PaymentDecisionReject)),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

// ScanRequest ticket 可以是票券 UUID 或 QR payload
type ScanRequest struct {
	Ticket string `json:"ticket"`
}

func (r *ScanRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ticket, validation.Required),
	)
}

// OverrideRequest 理由長度由 service 檢查，確保不寫入任何紀錄前就拒絕
type OverrideRequest struct {
	ParticipationID int    `json:"participation_id"`
	Present         *bool  `json:"present"`
	Reason          string `json:"reason"`
}

func (r *OverrideRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ParticipationID, validation.Required, validation.Min(1)),
		validation.Field(&r.Present, validation.NotNil),
	)
}
