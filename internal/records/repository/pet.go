package repository

import (
	"context"
	"fmt"

	"petrent/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PetRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Pet, error)
	// FindWithBookings loads the pet with its owner and every booking that
	// references it, cancelled ones included.
	FindWithBookings(ctx context.Context, id primitive.ObjectID) (*model.PetDetails, error)
	// PushBooking appends bookingID only if the pet is still at
	// expectedVersion, and bumps the version.
	PushBooking(ctx context.Context, petID, bookingID primitive.ObjectID, expectedVersion int64) error
	PullBooking(ctx context.Context, petID, bookingID primitive.ObjectID) error
}

type mongoPetRepository struct {
	timeouts
	db         *mongo.Database
	collection *mongo.Collection
}

func (r *mongoPetRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Pet, error) {
	ctx, cancel := withTimeout(ctx, r.read)
	defer cancel()

	var pet model.Pet
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pet); err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pet: %w", err)
	}
	return &pet, nil
}

func (r *mongoPetRepository) FindWithBookings(ctx context.Context, id primitive.ObjectID) (*model.PetDetails, error) {
	ctx, cancel := withTimeout(ctx, r.read)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         OwnersCollection,
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "owner_doc",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$owner_doc", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         BookingsCollection,
			"localField":   "_id",
			"foreignField": "pet",
			"as":           "booking_docs",
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load pet: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("failed to load pet: %w", err)
		}
		return nil, ErrNotFound
	}

	var details model.PetDetails
	if err := cursor.Decode(&details); err != nil {
		return nil, fmt.Errorf("failed to decode pet: %w", err)
	}
	return &details, nil
}

func (r *mongoPetRepository) PushBooking(ctx context.Context, petID, bookingID primitive.ObjectID, expectedVersion int64) error {
	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	filter := bson.M{"_id": petID, "version": expectedVersion}
	if expectedVersion == 0 {
		// pets created before versioning carry no field
		filter = bson.M{"_id": petID, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	update := bson.M{
		"$push": bson.M{"bookings": bookingID},
		"$inc":  bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to link booking to pet: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *mongoPetRepository) PullBooking(ctx context.Context, petID, bookingID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"bookings": bookingID},
		"$inc":  bson.M{"version": 1},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": petID}, update)
	if err != nil {
		return fmt.Errorf("failed to unlink booking from pet: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
