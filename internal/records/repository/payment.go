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

// PaymentRepository guards every status change with a filter on the current
// status, so a lost race surfaces as ErrStatusConflict instead of a silent
// overwrite.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Payment, error)
	FindPendingByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]model.Payment, error)
	// MarkPaid moves a PENDING payment to PAID and stores its charge.
	MarkPaid(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord) error
	// MarkDeclined moves a PENDING payment to DECLINED.
	MarkDeclined(ctx context.Context, id primitive.ObjectID) error
	// MarkRefunded records a refund of charge. The payment must be PENDING
	// (charge never persisted) or PAID with that same charge.
	MarkRefunded(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord, refund *model.RefundRecord) error
}

type mongoPaymentRepository struct {
	timeouts
	collection *mongo.Collection
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	payment.CreatedAt = now()
	payment.UpdatedAt = payment.CreatedAt

	if _, err := r.collection.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Payment, error) {
	return findOne[model.Payment](ctx, r.collection, r.read, bson.M{"_id": id}, "payment")
}

func (r *mongoPaymentRepository) FindPendingByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]model.Payment, error) {
	ctx, cancel := withTimeout(ctx, r.read)
	defer cancel()

	filter := bson.M{"owner": ownerID, "status": model.PaymentPending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := make([]model.Payment, 0)
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode pending payments: %w", err)
	}
	return payments, nil
}

func (r *mongoPaymentRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord) error {
	return r.transition(ctx,
		bson.M{"_id": id, "status": model.PaymentPending},
		bson.M{"status": model.PaymentPaid, "charge": charge},
	)
}

func (r *mongoPaymentRepository) MarkDeclined(ctx context.Context, id primitive.ObjectID) error {
	return r.transition(ctx,
		bson.M{"_id": id, "status": model.PaymentPending},
		bson.M{"status": model.PaymentDeclined},
	)
}

func (r *mongoPaymentRepository) MarkRefunded(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord, refund *model.RefundRecord) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"status": model.PaymentPending},
			bson.M{"status": model.PaymentPaid, "charge.id": charge.ID},
		},
	}
	return r.transition(ctx, filter, bson.M{
		"status": model.PaymentRefunded,
		"charge": charge,
		"refund": refund,
	})
}

func (r *mongoPaymentRepository) transition(ctx context.Context, filter, set bson.M) error {
	ctx, cancel := withTimeout(ctx, r.write)
	defer cancel()

	set["updated_at"] = now()
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}
