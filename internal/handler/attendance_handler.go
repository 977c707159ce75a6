package handler

import (
	"net/http"

	"campus-events/internal/service"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	service service.AttendanceService
}

func NewAttendanceHandler(service service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

func (h *AttendanceHandler) RegisterRoutes(r *gin.Engine) {
	// 掃描端不帶使用者身分
	r.POST("/api/v1/events/:uuid/attendance/scan", h.Scan)

	router := r.Group("/api/v1", RequireActor())
	{
		router.POST("events/:uuid/attendance/override", h.Override)
		router.GET("events/:uuid/attendance/summary", h.Summary)
		router.GET("events/:uuid/participations/:id/attendance-audit", h.AuditLog)
	}
}

func (h *AttendanceHandler) Scan(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	var req ScanRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	result, err := h.service.MarkByScan(c, eventID, req.Ticket)
	if err != nil {
		handleError(c, err, "ScanTicket")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AttendanceHandler) Override(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	var req OverrideRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	result, err := h.service.Override(c, eventID, actorID(c), req.ParticipationID, *req.Present, req.Reason)
	if err != nil {
		handleError(c, err, "OverrideAttendance")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AttendanceHandler) Summary(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c, eventID, actorID(c))
	if err != nil {
		handleError(c, err, "AttendanceSummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AttendanceHandler) AuditLog(c *gin.Context) {
	eventID, ok := parseEventUUID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.AuditLog(c, eventID, actorID(c), id)
	if err != nil {
		handleError(c, err, "AttendanceAuditLog")
		return
	}
	c.JSON(http.StatusOK, entries)
}
