// Package repository is the Mongo-backed record store for pets, owners,
// renters, bookings, and payments.
package repository

import (
	"context"
	"errors"
	"time"

	"petrent/pkg/config"
	mongotx "petrent/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	PetsCollection     = "Pets"
	OwnersCollection   = "Owners"
	RentersCollection  = "Renters"
	BookingsCollection = "Bookings"
	PaymentsCollection = "Payments"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid record ID format")
	// ErrVersionConflict means the pet changed since it was read.
	ErrVersionConflict = errors.New("pet was modified concurrently")
	// ErrStatusConflict means the record was not in the status the update expected.
	ErrStatusConflict = errors.New("record is not in the expected status")
)

// Repositories bundles the record store with its transaction manager. Every
// method accepts a transaction context from Tx and joins that transaction.
type Repositories struct {
	Pets     PetRepository
	Owners   OwnerRepository
	Renters  RenterRepository
	Bookings BookingRepository
	Payments PaymentRepository
	Tx       mongotx.TransactionManager
}

func NewMongoRepositories(cfg *config.Config) *Repositories {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	t := timeouts{read: cfg.ReadTimeout, write: cfg.WriteTimeout}
	return &Repositories{
		Pets:     &mongoPetRepository{timeouts: t, db: db, collection: db.Collection(PetsCollection)},
		Owners:   &mongoOwnerRepository{timeouts: t, collection: db.Collection(OwnersCollection)},
		Renters:  &mongoRenterRepository{timeouts: t, collection: db.Collection(RentersCollection)},
		Bookings: &mongoBookingRepository{timeouts: t, collection: db.Collection(BookingsCollection)},
		Payments: &mongoPaymentRepository{timeouts: t, collection: db.Collection(PaymentsCollection)},
		Tx:       mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

type timeouts struct {
	read  time.Duration
	write time.Duration
}

// withTimeout bounds ctx unless it carries a session, whose deadline is owned
// by the transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) || timeout <= 0 {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// ParseID converts a 24-hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
