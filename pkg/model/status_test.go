package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingPending, BookingActive, true},
		{BookingPending, BookingCancelled, true},
		{BookingActive, BookingCancelled, false},
		{BookingActive, BookingPending, false},
		{BookingCancelled, BookingActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, BookingPending.IsTerminal())
	assert.True(t, BookingActive.IsTerminal())
	assert.True(t, BookingCancelled.IsTerminal())
}

func TestPaymentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentDeclined, true},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPaid, PaymentPending, false},
		{PaymentDeclined, PaymentPending, false},
		{PaymentRefunded, PaymentPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, PaymentDeclined.IsTerminal())
	assert.True(t, PaymentRefunded.IsTerminal())
}

func TestPetStatus_AcceptsBookings(t *testing.T) {
	assert.True(t, PetActive.AcceptsBookings())
	assert.False(t, PetHidden.AcceptsBookings())
	assert.False(t, PetArchived.AcceptsBookings())
}
