package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "petrent/pkg/errors"
	"petrent/pkg/logger"
	"petrent/pkg/middleware"
	"petrent/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mock service for testing
type mockBookingService struct {
	createFunc       func(ctx context.Context, subject string, req *model.BookingRequest) (*model.Booking, error)
	getPetDatesFunc  func(ctx context.Context, petID string) ([]model.DateRange, error)
	getForOwnerFunc  func(ctx context.Context, subject, ownerID string) ([]model.BookingDetails, error)
	getForRenterFunc func(ctx context.Context, subject, renterID string) ([]model.BookingDetails, error)
}

func (m *mockBookingService) Create(ctx context.Context, subject string, req *model.BookingRequest) (*model.Booking, error) {
	return m.createFunc(ctx, subject, req)
}

func (m *mockBookingService) GetPetDates(ctx context.Context, petID string) ([]model.DateRange, error) {
	return m.getPetDatesFunc(ctx, petID)
}

func (m *mockBookingService) GetForOwner(ctx context.Context, subject, ownerID string) ([]model.BookingDetails, error) {
	return m.getForOwnerFunc(ctx, subject, ownerID)
}

func (m *mockBookingService) GetForRenter(ctx context.Context, subject, renterID string) ([]model.BookingDetails, error) {
	return m.getForRenterFunc(ctx, subject, renterID)
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	h := NewBookingHandler(svc, logger.Discard())
	h.RegisterRoutes(router)
	h.RegisterPublicRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body, subject string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req = req.WithContext(middleware.WithSubject(req.Context(), subject))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreate_PassesSubjectAndReturnsBooking(t *testing.T) {
	bookingID := primitive.NewObjectID()
	var gotSubject string
	var gotReq *model.BookingRequest
	svc := &mockBookingService{
		createFunc: func(_ context.Context, subject string, req *model.BookingRequest) (*model.Booking, error) {
			gotSubject, gotReq = subject, req
			return &model.Booking{ID: bookingID, Status: model.BookingPending}, nil
		},
	}

	body := `{"startAt":"2030-01-10T00:00:00Z","endAt":"2030-01-15T00:00:00Z","totalPrice":"250.00","days":5,"petId":"65a1f0c2b4e5d6f7a8b9c0d1","paymentToken":"tokn_1"}`
	rec := serve(newRouter(svc), http.MethodPost, "/booking", body, "auth0|renter")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth0|renter", gotSubject)
	require.NotNil(t, gotReq)
	assert.Equal(t, 5, gotReq.Days)
	assert.Equal(t, "250", gotReq.TotalPrice.String())
	assert.True(t, gotReq.StartAt.Equal(time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)))

	var booking model.Booking
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &booking))
	assert.Equal(t, bookingID, booking.ID)
}

func TestCreate_InvalidBody(t *testing.T) {
	svc := &mockBookingService{}
	rec := serve(newRouter(svc), http.MethodPost, "/booking", `{"days":`, "auth0|renter")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode(t, rec).Errors[0].Detail)
}

func TestCreate_ErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", apperrors.NotFound("Renter"), http.StatusNotFound},
		{"forbidden", apperrors.Forbidden("cannot book own pet"), http.StatusForbidden},
		{"validation", apperrors.Validation("Booking validation failed", map[string]any{"Days": "days (7) must equal the number of nights in the range (4)"}), http.StatusBadRequest},
		{"conflict", apperrors.Conflict("dates unavailable"), http.StatusUnprocessableEntity},
		{"payment", apperrors.Payment("Failed to create payment", nil), http.StatusUnprocessableEntity},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(context.Context, string, *model.BookingRequest) (*model.Booking, error) {
					return nil, tt.err
				},
			}
			rec := serve(newRouter(svc), http.MethodPost, "/booking", `{}`, "auth0|renter")

			assert.Equal(t, tt.code, rec.Code)
			env := decode(t, rec)
			require.Len(t, env.Errors, 1)
			assert.NotEmpty(t, env.Errors[0].Title)
		})
	}
}

func TestGetPetDates_EmptyIsArray(t *testing.T) {
	var gotID string
	svc := &mockBookingService{
		getPetDatesFunc: func(_ context.Context, petID string) ([]model.DateRange, error) {
			gotID = petID
			return []model.DateRange{}, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodGet, "/booking/dates/pet/65a1f0c2b4e5d6f7a8b9c0d1", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "65a1f0c2b4e5d6f7a8b9c0d1", gotID)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestGetForOwnerAndRenter_Routes(t *testing.T) {
	var ownerCalls, renterCalls []string
	svc := &mockBookingService{
		getForOwnerFunc: func(_ context.Context, subject, id string) ([]model.BookingDetails, error) {
			ownerCalls = append(ownerCalls, subject+"/"+id)
			return []model.BookingDetails{}, nil
		},
		getForRenterFunc: func(_ context.Context, subject, id string) ([]model.BookingDetails, error) {
			renterCalls = append(renterCalls, subject+"/"+id)
			return nil, apperrors.Forbidden("Not authorized to view these bookings")
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/booking/owner/abc", "", "auth0|owner")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/booking/renter/def", "", "auth0|owner")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, []string{"auth0|owner/abc"}, ownerCalls)
	assert.Equal(t, []string{"auth0|owner/def"}, renterCalls)
}
