package handler

import (
	"net/http"

	"campus-events/internal/service"
	apperrors "campus-events/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	public := r.Group("/api/v1")
	{
		public.GET("events", h.List)
		public.GET("events/:uuid", h.GetByEventID)
	}

	router := r.Group("/api/v1", RequireActor())
	{
		router.GET("organizer/events", h.ListMine)
		router.POST("events", h.Create)
		router.PATCH("events/:uuid", h.Update)
		router.PATCH("events/:uuid/status", h.ChangeStatus)
		router.DELETE("events/:uuid", h.Delete)
	}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		handleError(c, err, "ListEvents")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) ListMine(c *gin.Context) {
	events, err := h.service.ListByOrganizer(c, actorID(c))
	if err != nil {
		handleError(c, err, "ListOrganizerEvents")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetByEventID(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	event, err := h.service.GetByEventID(c, eventID)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	created, err := h.service.Create(c, actorID(c), req.toParams())
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) Update(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := BindStrictJSON(c, &req, apperrors.ErrPublishedFieldLocked); err != nil {
		return
	}
	params := req.toParams()
	if params.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}
	updated, err := h.service.Update(c, actorID(c), eventID, params)
	if err != nil {
		handleError(c, err, "UpdateEvent")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) ChangeStatus(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	updated, err := h.service.ChangeStatus(c, actorID(c), eventID, req.Status)
	if err != nil {
		handleError(c, err, "ChangeEventStatus")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) Delete(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c, actorID(c), eventID); err != nil {
		handleError(c, err, "DeleteEvent")
		return
	}
	c.Status(http.StatusNoContent)
}
