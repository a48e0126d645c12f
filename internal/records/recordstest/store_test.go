package recordstest

import (
	"context"
	"errors"
	"testing"

	"petrent/internal/records/repository"
	mongotx "petrent/pkg/db/mongo"
	"petrent/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CommitPublishesWrites(t *testing.T) {
	store := New()
	renter := store.AddRenter(model.Renter{Subject: "renter-1"})
	repos := store.Repositories()

	err := repos.Tx.WithTransaction(context.Background(), func(txCtx context.Context) error {
		require.NoError(t, repos.Renters.AddToRevenue(txCtx, renter.ID, 500))

		outside, err := repos.Renters.FindByID(context.Background(), renter.ID)
		require.NoError(t, err)
		assert.Zero(t, outside.Revenue)

		inside, err := repos.Renters.FindByID(txCtx, renter.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), inside.Revenue)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(500), store.Snapshot().Renters[renter.ID].Revenue)
}

func TestStore_AbortDiscardsWrites(t *testing.T) {
	store := New()
	pet := store.AddPet(model.Pet{Name: "Rex"})
	repos := store.Repositories()
	boom := errors.New("boom")

	err := repos.Tx.WithTransaction(context.Background(), func(txCtx context.Context) error {
		require.NoError(t, repos.Pets.PushBooking(txCtx, pet.ID, primitive.NewObjectID(), 0))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap := store.Snapshot()
	assert.Empty(t, snap.Pets[pet.ID].Bookings)
	assert.Zero(t, snap.Pets[pet.ID].Version)
}

func TestStore_CommitKeepsConcurrentAutocommitWrites(t *testing.T) {
	store := New()
	renter := store.AddRenter(model.Renter{Subject: "renter-1"})
	payment := store.AddPayment(model.Payment{Status: model.PaymentPending})
	repos := store.Repositories()

	err := repos.Tx.WithTransaction(context.Background(), func(txCtx context.Context) error {
		require.NoError(t, repos.Payments.MarkDeclined(context.Background(), payment.ID))
		return repos.Renters.AddToRevenue(txCtx, renter.ID, 10)
	})
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, model.PaymentDeclined, snap.Payments[payment.ID].Status)
	assert.Equal(t, int64(10), snap.Renters[renter.ID].Revenue)
}

func TestStore_PushBookingChecksVersion(t *testing.T) {
	store := New()
	pet := store.AddPet(model.Pet{Name: "Rex", Version: 3})
	pets := store.Repositories().Pets

	err := pets.PushBooking(context.Background(), pet.ID, primitive.NewObjectID(), 2)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	require.NoError(t, pets.PushBooking(context.Background(), pet.ID, primitive.NewObjectID(), 3))
	assert.Equal(t, int64(4), store.Snapshot().Pets[pet.ID].Version)
}

func TestStore_MarkRefundedRequiresMatchingCharge(t *testing.T) {
	store := New()
	paid := store.AddPayment(model.Payment{
		Status: model.PaymentPaid,
		Charge: &model.ChargeRecord{ID: "chrg_1"},
	})
	payments := store.Repositories().Payments
	refund := &model.RefundRecord{ID: "rfnd_1"}

	err := payments.MarkRefunded(context.Background(), paid.ID, &model.ChargeRecord{ID: "chrg_other"}, refund)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	require.NoError(t, payments.MarkRefunded(context.Background(), paid.ID, &model.ChargeRecord{ID: "chrg_1"}, refund))
	assert.Equal(t, model.PaymentRefunded, store.Snapshot().Payments[paid.ID].Status)
}

func TestStore_FailOn(t *testing.T) {
	store := New()
	renter := store.AddRenter(model.Renter{Subject: "renter-1"})
	repos := store.Repositories()
	boom := errors.New("boom")

	store.FailOn(OpRenterPushBooking, boom)
	err := repos.Renters.PushBooking(context.Background(), renter.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.Calls(OpRenterPushBooking))

	store.FailOn(OpTxBegin, boom)
	err = repos.Tx.WithTransaction(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, mongotx.ErrBegin)

	store.FailOn(OpTxBegin, nil)
	store.FailOn(OpRenterPushBooking, nil)
	require.NoError(t, repos.Renters.PushBooking(context.Background(), renter.ID, primitive.NewObjectID()))
}

func TestStore_FindReservedDatesSkipsCancelled(t *testing.T) {
	store := New()
	pet := store.AddPet(model.Pet{Name: "Rex"})
	store.AddBooking(model.Booking{Pet: pet.ID, Status: model.BookingActive})
	store.AddBooking(model.Booking{Pet: pet.ID, Status: model.BookingCancelled})

	dates, err := store.Repositories().Bookings.FindReservedDates(context.Background(), pet.ID)
	require.NoError(t, err)
	assert.Len(t, dates, 1)
}
