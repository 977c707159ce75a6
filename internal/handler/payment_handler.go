package handler

import (
	"net/http"

	"campus-events/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", RequireActor())
	{
		router.GET("events/:uuid/payments/pending", h.ListPending)
		router.POST("payments/:id/review", h.Review)
	}
}

func (h *PaymentHandler) ListPending(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	payments, err := h.service.ListPending(c, eventID, actorID(c))
	if err != nil {
		handleError(c, err, "ListPendingPayments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

// Review 重複審核同一筆付款不是錯誤，回應中 already_decided 為 true
func (h *PaymentHandler) Review(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ReviewPaymentRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	result, err := h.service.Review(c, id, actorID(c), req.Decision, req.Note)
	if err != nil {
		handleError(c, err, "ReviewPayment")
		return
	}
	c.JSON(http.StatusOK, result)
}
