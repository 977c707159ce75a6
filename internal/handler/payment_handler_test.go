package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-events/internal/handler"
	"campus-events/internal/model"
	serviceMocks "campus-events/internal/service/mocks"
	apperrors "campus-events/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentHandler_Review(t *testing.T) {
	t.Run("Approve", func(t *testing.T) {
		svc := serviceMocks.NewPaymentServiceMock()
		router := newTestRouter()
		handler.NewPaymentHandler(svc).RegisterRoutes(router)

		svc.On("Review", mock.Anything, 4, 1, model.PaymentDecisionApprove, (*string)(nil)).Return(&model.PaymentReviewResult{
			Payment: &model.Payment{ID: 4, Status: model.PaymentStatusApproved},
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", "/api/v1/payments/4/review", map[string]any{"decision": "approve"}, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(w.Body)["already_decided"])
		svc.AssertExpectations(t)
	})

	t.Run("AlreadyDecided is not an error", func(t *testing.T) {
		svc := serviceMocks.NewPaymentServiceMock()
		router := newTestRouter()
		handler.NewPaymentHandler(svc).RegisterRoutes(router)

		svc.On("Review", mock.Anything, 4, 1, model.PaymentDecisionReject, mock.Anything).Return(&model.PaymentReviewResult{
			Payment:        &model.Payment{ID: 4, Status: model.PaymentStatusApproved},
			AlreadyDecided: true,
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", "/api/v1/payments/4/review",
			map[string]any{"decision": "reject", "note": "duplicate"}, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(w.Body)["already_decided"])
	})

	t.Run("Failed - UnknownDecision", func(t *testing.T) {
		svc := serviceMocks.NewPaymentServiceMock()
		router := newTestRouter()
		handler.NewPaymentHandler(svc).RegisterRoutes(router)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", "/api/v1/payments/4/review", map[string]any{"decision": "maybe"}, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - NotOrganizer", func(t *testing.T) {
		svc := serviceMocks.NewPaymentServiceMock()
		router := newTestRouter()
		handler.NewPaymentHandler(svc).RegisterRoutes(router)
		svc.On("Review", mock.Anything, 4, 9, model.PaymentDecisionApprove, mock.Anything).Return(nil, apperrors.ErrNotEventOrganizer).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createJSONHTTPRequest("POST", "/api/v1/payments/4/review", map[string]any{"decision": "approve"}, 9))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
