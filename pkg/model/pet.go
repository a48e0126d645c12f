package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

type Pet struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id"`
	Name            string               `json:"name" bson:"name"`
	Species         string               `json:"species" bson:"species"`
	Breed           string               `json:"breed,omitempty" bson:"breed,omitempty"`
	Description     string               `json:"description,omitempty" bson:"description,omitempty"`
	City            string               `json:"city" bson:"city"`
	Street          string               `json:"street,omitempty" bson:"street,omitempty"`
	State           string               `json:"state,omitempty" bson:"state,omitempty"`
	Images          []string             `json:"images,omitempty" bson:"images,omitempty"`
	DailyRentalRate float64              `json:"dailyRentalRate" bson:"daily_rental_rate"`
	Location        *Location            `json:"location,omitempty" bson:"location,omitempty"`
	Owner           primitive.ObjectID   `json:"owner" bson:"owner"`
	Bookings        []primitive.ObjectID `json:"bookings" bson:"bookings"`
	Status          PetStatus            `json:"status" bson:"status"`
	// Version is bumped on every change to Bookings and guards concurrent inserts.
	Version int64 `json:"-" bson:"version"`
}

// PetDetails is a Pet with its owner and booking references expanded.
type PetDetails struct {
	Pet      `bson:",inline"`
	OwnerDoc *Owner    `json:"ownerDetails,omitempty" bson:"owner_doc,omitempty"`
	Reserved []Booking `json:"-" bson:"booking_docs"`
}
