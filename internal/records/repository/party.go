package repository

import (
	"context"
	"fmt"
	"time"

	"petrent/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OwnerRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Owner, error)
	FindBySubject(ctx context.Context, subject string) (*model.Owner, error)
}

type RenterRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Renter, error)
	FindBySubject(ctx context.Context, subject string) (*model.Renter, error)
	SetPaymentCustomer(ctx context.Context, id primitive.ObjectID, customerID string) error
	PushBooking(ctx context.Context, renterID, bookingID primitive.ObjectID) error
	AddToRevenue(ctx context.Context, renterID primitive.ObjectID, amount int64) error
}

type mongoOwnerRepository struct {
	timeouts
	collection *mongo.Collection
}

func (r *mongoOwnerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Owner, error) {
	return findOne[model.Owner](ctx, r.collection, r.read, bson.M{"_id": id}, "owner")
}

func (r *mongoOwnerRepository) FindBySubject(ctx context.Context, subject string) (*model.Owner, error) {
	return findOne[model.Owner](ctx, r.collection, r.read, bson.M{"subject": subject}, "owner")
}

type mongoRenterRepository struct {
	timeouts
	collection *mongo.Collection
}

func (r *mongoRenterRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Renter, error) {
	return findOne[model.Renter](ctx, r.collection, r.read, bson.M{"_id": id}, "renter")
}

func (r *mongoRenterRepository) FindBySubject(ctx context.Context, subject string) (*model.Renter, error) {
	return findOne[model.Renter](ctx, r.collection, r.read, bson.M{"subject": subject}, "renter")
}

func (r *mongoRenterRepository) SetPaymentCustomer(ctx context.Context, id primitive.ObjectID, customerID string) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"payment_customer_id": customerID}}, "set renter payment customer")
}

func (r *mongoRenterRepository) PushBooking(ctx context.Context, renterID, bookingID primitive.ObjectID) error {
	return r.update(ctx, renterID, bson.M{"$push": bson.M{"bookings": bookingID}}, "link booking to renter")
}

func (r *mongoRenterRepository) AddToRevenue(ctx context.Context, renterID primitive.ObjectID, amount int64) error {
	return r.update(ctx, renterID, bson.M{"$inc": bson.M{"revenue": amount}}, "add renter revenue")
}

func (r *mongoRenterRepository) update(ctx context.Context, id primitive.ObjectID, update bson.M, op string) error {
	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, timeout time.Duration, filter bson.M, kind string) (*T, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s: %w", kind, err)
	}
	return &doc, nil
}
