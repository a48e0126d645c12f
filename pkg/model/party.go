package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Owner struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Subject  string             `json:"-" bson:"subject"`
	Fullname string             `json:"fullname" bson:"fullname"`
	Email    string             `json:"email,omitempty" bson:"email,omitempty"`
}

type Renter struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Subject  string             `json:"-" bson:"subject"`
	Username string             `json:"username" bson:"username"`
	Fullname string             `json:"fullname" bson:"fullname"`
	Email    string             `json:"email" bson:"email"`
	// PaymentCustomerID is the processor customer token, overwritten on every booking.
	PaymentCustomerID string               `json:"-" bson:"payment_customer_id,omitempty"`
	Revenue           int64                `json:"revenue" bson:"revenue"`
	Bookings          []primitive.ObjectID `json:"bookings" bson:"bookings"`
	CreatedAt         time.Time            `json:"createdAt" bson:"created_at"`
}
