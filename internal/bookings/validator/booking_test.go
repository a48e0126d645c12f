package validator

import (
	"testing"
	"time"

	"petrent/pkg/logger"
	"petrent/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2030, 1, 1, 15, 30, 0, 0, time.UTC)

func newTestValidator() *BookingValidator {
	v := NewBookingValidator(logger.Discard())
	v.now = func() time.Time { return fixedNow }
	return v
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		StartAt:      time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC),
		EndAt:        time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC),
		TotalPrice:   decimal.RequireFromString("250.50"),
		Days:         5,
		PetID:        "65a1f0c2b4e5d6f7a8b9c0d1",
		PaymentToken: "tokn_test_123",
	}
}

func fields(err error) []string {
	var out []string
	for _, e := range err.(ValidationErrors) {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, newTestValidator().Validate(validRequest()))
}

func TestValidate_StartTodayIsAllowed(t *testing.T) {
	req := validRequest()
	req.StartAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	req.EndAt = time.Date(2030, 1, 3, 0, 0, 0, 0, time.UTC)
	req.Days = 2

	assert.NoError(t, newTestValidator().Validate(req))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.BookingRequest)
		field  string
	}{
		{"missing pet", func(r *model.BookingRequest) { r.PetID = "" }, "PetID"},
		{"bad pet id", func(r *model.BookingRequest) { r.PetID = "not-an-id" }, "PetID"},
		{"missing token", func(r *model.BookingRequest) { r.PaymentToken = "" }, "PaymentToken"},
		{"end before start", func(r *model.BookingRequest) { r.EndAt = r.StartAt.AddDate(0, 0, -1) }, "EndAt"},
		{"end equals start", func(r *model.BookingRequest) { r.EndAt = r.StartAt }, "EndAt"},
		{"zero price", func(r *model.BookingRequest) { r.TotalPrice = decimal.Zero }, "TotalPrice"},
		{"negative price", func(r *model.BookingRequest) { r.TotalPrice = decimal.NewFromInt(-5) }, "TotalPrice"},
		{"sub-cent price", func(r *model.BookingRequest) { r.TotalPrice = decimal.RequireFromString("10.005") }, "TotalPrice"},
		{"zero days", func(r *model.BookingRequest) { r.Days = 0 }, "Days"},
		{"days mismatch", func(r *model.BookingRequest) { r.Days = 4 }, "Days"},
		{"start in past", func(r *model.BookingRequest) {
			r.StartAt = time.Date(2029, 12, 30, 0, 0, 0, 0, time.UTC)
			r.EndAt = time.Date(2030, 1, 4, 0, 0, 0, 0, time.UTC)
		}, "StartAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := newTestValidator().Validate(req)
			require.Error(t, err)
			assert.Contains(t, fields(err), tt.field)
		})
	}
}

func TestNights(t *testing.T) {
	start := time.Date(2030, 1, 10, 22, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 12, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, Nights(start, end))
}

func TestValidationErrors_Details(t *testing.T) {
	errs := ValidationErrors{{Field: "Days", Message: "bad"}}
	assert.Equal(t, map[string]any{"Days": "bad"}, errs.Details())
	assert.Contains(t, errs.Error(), "1 error(s)")
}
