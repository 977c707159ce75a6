package handler

import (
	"net/http"

	"campus-events/internal/service"
	apperrors "campus-events/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", RequireActor())
	{
		router.GET("tickets/:uuid", h.GetByTicketID)
		router.GET("participations/:id/ticket", h.GetForParticipation)
		router.POST("participations/:id/ticket", h.Issue)
	}
}

func (h *TicketHandler) GetByTicketID(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket uuid"})
		return
	}
	ticket, err := h.service.GetByTicketID(c, ticketID)
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}
	if ticket.UserID != actorID(c) {
		handleError(c, apperrors.ErrNotTicketOwner, "GetTicket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) GetForParticipation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ticket, err := h.service.GetForParticipation(c, id, actorID(c))
	if err != nil {
		handleError(c, err, "GetParticipationTicket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Issue 已確認的報名才能取票，重複呼叫回傳同一張票
func (h *TicketHandler) Issue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ticket, err := h.service.Issue(c, id, actorID(c))
	if err != nil {
		handleError(c, err, "IssueTicket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}
