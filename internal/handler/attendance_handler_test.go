package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-events/internal/handler"
	"campus-events/internal/model"
	serviceMocks "campus-events/internal/service/mocks"
	apperrors "campus-events/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupAttendanceRouter(svc *serviceMocks.AttendanceServiceMock) *gin.Engine {
	router := newTestRouter()
	handler.NewAttendanceHandler(svc).RegisterRoutes(router)
	return router
}

func TestAttendanceHandler_Scan(t *testing.T) {
	eventID := uuid.New()
	url := "/api/v1/events/" + eventID.String() + "/attendance/scan"

	t.Run("Success - NoActorRequired", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)
		ticketID := uuid.NewString()

		svc.On("MarkByScan", mock.Anything, eventID, ticketID).Return(&model.ScanResult{TicketID: ticketID}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{"ticket": ticketID}, 0))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(w.Body)["already_marked"])
	})

	t.Run("Failed - EmptyTicket", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{"ticket": ""}, 0))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - WrongEvent", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)
		svc.On("MarkByScan", mock.Anything, eventID, "abc").Return(nil, apperrors.ErrTicketWrongEvent).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{"ticket": "abc"}, 0))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAttendanceHandler_Override(t *testing.T) {
	eventID := uuid.New()
	url := "/api/v1/events/" + eventID.String() + "/attendance/override"

	t.Run("Success", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)

		svc.On("Override", mock.Anything, eventID, 1, 11, false, "left early").
			Return(&model.OverrideResult{ParticipationID: 11}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{
			"participation_id": 11, "present": false, "reason": "left early",
		}, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Failed - PresentMissing", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{
			"participation_id": 11, "reason": "left early",
		}, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - ShortReason", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)
		svc.On("Override", mock.Anything, eventID, 1, 11, true, "ok").Return(nil, apperrors.ErrOverrideReasonTooShort).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{
			"participation_id": 11, "present": true, "reason": "ok",
		}, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - MissingActor", func(t *testing.T) {
		svc := serviceMocks.NewAttendanceServiceMock()
		router := setupAttendanceRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", url, map[string]any{
			"participation_id": 11, "present": true, "reason": "badge checked",
		}, 0))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
