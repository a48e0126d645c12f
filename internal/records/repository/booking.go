package repository

import (
	"context"
	"fmt"

	"petrent/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepository interface {
	// Create inserts booking, assigning an id if it has none.
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error)
	// FindReservedDates returns the date ranges of the pet's non-cancelled bookings.
	FindReservedDates(ctx context.Context, petID primitive.ObjectID) ([]model.DateRange, error)
	// FindByOwner returns the owner's bookings with pet and payment expanded.
	FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]model.BookingDetails, error)
	// FindByRenter returns the renter's bookings with pet expanded.
	FindByRenter(ctx context.Context, renterID primitive.ObjectID) ([]model.BookingDetails, error)
	// UpdateStatus moves the booking from one status to another and fails with
	// ErrStatusConflict if it is no longer in from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to model.BookingStatus) error
}

type mongoBookingRepository struct {
	timeouts
	collection *mongo.Collection
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	booking.CreatedAt = now()

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	return findOne[model.Booking](ctx, r.collection, r.read, bson.M{"_id": id}, "booking")
}

func (r *mongoBookingRepository) FindReservedDates(ctx context.Context, petID primitive.ObjectID) ([]model.DateRange, error) {
	ctx, cancel := withTimeout(ctx, r.read)
	defer cancel()

	filter := bson.M{
		"pet":    petID,
		"status": bson.M{"$ne": model.BookingCancelled},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}}).
		SetProjection(bson.M{"_id": 0, "start_at": 1, "end_at": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pet bookings: %w", err)
	}
	defer cursor.Close(ctx)

	dates := make([]model.DateRange, 0)
	if err := cursor.All(ctx, &dates); err != nil {
		return nil, fmt.Errorf("failed to decode pet bookings: %w", err)
	}
	return dates, nil
}

func (r *mongoBookingRepository) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]model.BookingDetails, error) {
	return r.findDetails(ctx, bson.M{"owner": ownerID}, true)
}

func (r *mongoBookingRepository) FindByRenter(ctx context.Context, renterID primitive.ObjectID) ([]model.BookingDetails, error) {
	return r.findDetails(ctx, bson.M{"renter": renterID}, false)
}

func (r *mongoBookingRepository) findDetails(ctx context.Context, match bson.M, withPayment bool) ([]model.BookingDetails, error) {
	ctx, cancel := withTimeout(ctx, r.read)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "start_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         PetsCollection,
			"localField":   "pet",
			"foreignField": "_id",
			"as":           "pet_doc",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$pet_doc", "preserveNullAndEmptyArrays": true}}},
	}
	if withPayment {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         PaymentsCollection,
				"localField":   "payment",
				"foreignField": "_id",
				"as":           "payment_doc",
			}}},
			bson.D{{Key: "$unwind", Value: bson.M{"path": "$payment_doc", "preserveNullAndEmptyArrays": true}}},
		)
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]model.BookingDetails, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to model.BookingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: booking %s -> %s", ErrStatusConflict, from, to)
	}

	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}
