package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "petrent/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_Envelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantTitle  string
		wantDetail string
	}{
		{
			name:       "not found",
			err:        apperrors.NotFound("Payment"),
			wantStatus: http.StatusNotFound,
			wantTitle:  "Not Found",
			wantDetail: "Payment not found",
		},
		{
			name:       "forbidden",
			err:        apperrors.Forbidden("cannot book own pet"),
			wantStatus: http.StatusForbidden,
			wantTitle:  "Forbidden",
			wantDetail: "cannot book own pet",
		},
		{
			name:       "conflict",
			err:        apperrors.Conflict("dates unavailable"),
			wantStatus: http.StatusUnprocessableEntity,
			wantTitle:  "Conflict",
			wantDetail: "dates unavailable",
		},
		{
			name:       "refund",
			err:        apperrors.Refund(errors.New("boom")),
			wantStatus: http.StatusUnprocessableEntity,
			wantTitle:  "Refund Error",
			wantDetail: apperrors.RefundFailureMessage,
		},
		{
			name:       "plain error hides its text",
			err:        errors.New("mongo: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantTitle:  "Internal Server Error",
			wantDetail: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteError(w, tt.err))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.wantTitle, resp.Errors[0].Title)
			assert.Equal(t, tt.wantDetail, resp.Errors[0].Detail)
		})
	}
}

func TestWriteSuccess_WrapsData(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(w, []string{}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
