package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Booking struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	StartAt    time.Time          `json:"startAt" bson:"start_at"`
	EndAt      time.Time          `json:"endAt" bson:"end_at"`
	TotalPrice float64            `json:"totalPrice" bson:"total_price"`
	Days       int                `json:"days" bson:"days"`
	Renter     primitive.ObjectID `json:"renter" bson:"renter"`
	Owner      primitive.ObjectID `json:"owner" bson:"owner"`
	Pet        primitive.ObjectID `json:"pet" bson:"pet"`
	Payment    primitive.ObjectID `json:"payment" bson:"payment"`
	Status     BookingStatus      `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// BookingRequest is the body of a booking creation call.
type BookingRequest struct {
	StartAt      time.Time       `json:"startAt" validate:"required"`
	EndAt        time.Time       `json:"endAt" validate:"required,gtfield=StartAt"`
	TotalPrice   decimal.Decimal `json:"totalPrice" validate:"money"`
	Days         int             `json:"days" validate:"required,min=1,max=365"`
	PetID        string          `json:"petId" validate:"required,mongodb"`
	PaymentToken string          `json:"paymentToken" validate:"required,min=3,max=255"`
}

// BookingDetails is a Booking with its pet and, for owners, payment expanded.
type BookingDetails struct {
	Booking    `bson:",inline"`
	PetDoc     *Pet     `json:"petDetails,omitempty" bson:"pet_doc,omitempty"`
	PaymentDoc *Payment `json:"paymentDetails,omitempty" bson:"payment_doc,omitempty"`
}

type DateRange struct {
	StartAt time.Time `json:"startAt" bson:"start_at"`
	EndAt   time.Time `json:"endAt" bson:"end_at"`
}
