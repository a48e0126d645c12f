package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "petrent/pkg/errors"
	"petrent/pkg/logger"
	"petrent/pkg/middleware"
	"petrent/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service for testing
type mockPaymentService struct {
	confirmFunc    func(ctx context.Context, subject, paymentID string) (*model.Payment, error)
	declineFunc    func(ctx context.Context, subject, paymentID string) (*model.Payment, error)
	getPendingFunc func(ctx context.Context, subject string) ([]model.Payment, error)
}

func (m *mockPaymentService) Confirm(ctx context.Context, subject, paymentID string) (*model.Payment, error) {
	return m.confirmFunc(ctx, subject, paymentID)
}

func (m *mockPaymentService) Decline(ctx context.Context, subject, paymentID string) (*model.Payment, error) {
	return m.declineFunc(ctx, subject, paymentID)
}

func (m *mockPaymentService) GetPending(ctx context.Context, subject string) ([]model.Payment, error) {
	return m.getPendingFunc(ctx, subject)
}

func serve(svc *mockPaymentService, method, path string) *httptest.ResponseRecorder {
	return serveWithLog(svc, logger.Discard(), method, path)
}

func serveWithLog(svc *mockPaymentService, log *logger.Logger, method, path string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewPaymentHandler(svc, log).RegisterRoutes(router)

	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(middleware.WithSubject(req.Context(), "auth0|owner"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Errors []struct {
		Title  string         `json:"title"`
		Detail string         `json:"detail"`
		Meta   map[string]any `json:"meta"`
	} `json:"errors"`
}

func TestConfirm_Routes(t *testing.T) {
	var got []string
	svc := &mockPaymentService{
		confirmFunc: func(_ context.Context, subject, id string) (*model.Payment, error) {
			got = append(got, "confirm:"+subject+":"+id)
			return &model.Payment{Status: model.PaymentPaid}, nil
		},
		declineFunc: func(_ context.Context, subject, id string) (*model.Payment, error) {
			got = append(got, "decline:"+subject+":"+id)
			return &model.Payment{Status: model.PaymentDeclined}, nil
		},
		getPendingFunc: func(_ context.Context, subject string) ([]model.Payment, error) {
			got = append(got, "pending:"+subject)
			return []model.Payment{}, nil
		},
	}

	rec := serve(svc, http.MethodPost, "/payment/abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"PAID"`)

	rec = serve(svc, http.MethodDelete, "/payment/abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"DECLINED"`)

	rec = serve(svc, http.MethodGet, "/payment/pending")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	assert.Equal(t, []string{
		"confirm:auth0|owner:abc",
		"decline:auth0|owner:abc",
		"pending:auth0|owner",
	}, got)
}

func TestConfirm_RefundFailureEnvelope(t *testing.T) {
	svc := &mockPaymentService{
		confirmFunc: func(context.Context, string, string) (*model.Payment, error) {
			return nil, apperrors.Refund(errors.New("processor unavailable")).WithDetails(map[string]any{
				"chargeId": "chrg_1",
				"attempts": 3,
			})
		},
	}

	logs := &bytes.Buffer{}
	rec := serveWithLog(svc, logger.New(logger.Config{Output: logs, Level: logger.WARN}), http.MethodPost, "/payment/abc")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, logs.String(), `"alert":true`)
	assert.Contains(t, logs.String(), `"code":"REFUND_ERROR"`)
	assert.Contains(t, logs.String(), "chrg_1")
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Refund Error", env.Errors[0].Title)
	assert.Equal(t, apperrors.RefundFailureMessage, env.Errors[0].Detail)
	assert.Equal(t, "chrg_1", env.Errors[0].Meta["chargeId"])
	assert.NotContains(t, rec.Body.String(), "processor unavailable")
}

func TestDecline_ErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", apperrors.Forbidden("not the owner of this payment"), http.StatusForbidden},
		{"not found", apperrors.NotFoundWithID("Payment", "abc"), http.StatusNotFound},
		{"not pending", apperrors.Conflict("payment is not pending"), http.StatusUnprocessableEntity},
		{"invalid id", apperrors.InvalidInput("Invalid payment ID format"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				declineFunc: func(context.Context, string, string) (*model.Payment, error) {
					return nil, tt.err
				},
			}
			rec := serve(svc, http.MethodDelete, "/payment/abc")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
