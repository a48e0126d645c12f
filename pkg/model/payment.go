package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerToken is the processor's reusable reference to a renter's payment method.
type CustomerToken struct {
	CustomerID string `json:"customerId" bson:"customer_id"`
	SourceID   string `json:"sourceId" bson:"source_id"`
}

type ChargeRecord struct {
	ID        string    `json:"id" bson:"id"`
	Amount    int64     `json:"amount" bson:"amount"`
	Currency  string    `json:"currency" bson:"currency"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type RefundRecord struct {
	ID        string    `json:"id" bson:"id"`
	ChargeID  string    `json:"chargeId" bson:"charge_id"`
	Amount    int64     `json:"amount" bson:"amount"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type Payment struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	Renter     primitive.ObjectID `json:"renter" bson:"renter"`
	Owner      primitive.ObjectID `json:"owner" bson:"owner"`
	Booking    primitive.ObjectID `json:"booking" bson:"booking"`
	CustomerID string             `json:"-" bson:"customer_id"`
	SourceID   string             `json:"-" bson:"source_id"`
	// Amount is in minor currency units.
	Amount    int64         `json:"amount" bson:"amount"`
	Currency  string        `json:"currency" bson:"currency"`
	Charge    *ChargeRecord `json:"charge,omitempty" bson:"charge,omitempty"`
	Refund    *RefundRecord `json:"refund,omitempty" bson:"refund,omitempty"`
	Status    PaymentStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updated_at"`
}
