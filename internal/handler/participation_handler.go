package handler

import (
	"net/http"

	"campus-events/internal/service"

	"github.com/gin-gonic/gin"
)

type ParticipationHandler struct {
	service service.AdmissionService
}

func NewParticipationHandler(service service.AdmissionService) *ParticipationHandler {
	return &ParticipationHandler{service: service}
}

func (h *ParticipationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", RequireActor())
	{
		router.POST("events/:uuid/participations", h.Register)
		router.GET("events/:uuid/participations", h.ListRoster)
		router.GET("me/participations", h.ListMine)
		router.GET("participations/:id", h.Get)
		router.POST("participations/:id/cancel", h.Cancel)
	}
}

// Register 報名 NORMAL 活動或購買 MERCH 周邊
func (h *ParticipationHandler) Register(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	var req RegisterRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	result, err := h.service.TryAdmit(c, eventID, actorID(c), req.toModel())
	if err != nil {
		handleError(c, err, "Register")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ParticipationHandler) ListRoster(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	roster, err := h.service.ListRoster(c, eventID, actorID(c))
	if err != nil {
		handleError(c, err, "ListRoster")
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *ParticipationHandler) ListMine(c *gin.Context) {
	participations, err := h.service.ListByUser(c, actorID(c))
	if err != nil {
		handleError(c, err, "ListMyParticipations")
		return
	}
	c.JSON(http.StatusOK, participations)
}

func (h *ParticipationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c, id, actorID(c))
	if err != nil {
		handleError(c, err, "GetParticipation")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ParticipationHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Cancel(c, id, actorID(c))
	if err != nil {
		handleError(c, err, "CancelParticipation")
		return
	}
	c.JSON(http.StatusOK, p)
}
