package refunds

import (
	"context"
	"errors"
	"testing"

	"petrent/internal/records/recordstest"
	"petrent/pkg/events"
	"petrent/pkg/events/eventstest"
	"petrent/pkg/gateway"
	"petrent/pkg/gateway/gatewaytest"
	"petrent/pkg/kafka"
	"petrent/pkg/logger"
	"petrent/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	store   *recordstest.Store
	gateway *gatewaytest.Fake
	events  *eventstest.Recorder
	handler *Handler
	payment model.Payment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := recordstest.New()
	payment := store.AddPayment(model.Payment{
		Renter:   primitive.NewObjectID(),
		Owner:    primitive.NewObjectID(),
		Booking:  primitive.NewObjectID(),
		Amount:   25000,
		Currency: "usd",
		Status:   model.PaymentPaid,
		Charge:   &model.ChargeRecord{ID: "chrg_9", Amount: 25000, Currency: "usd"},
	})
	gw := gatewaytest.New()
	recorder := &eventstest.Recorder{}
	return &fixture{
		store:   store,
		gateway: gw,
		events:  recorder,
		handler: NewHandler(store.Repositories().Payments, gw, recorder, logger.Discard()),
		payment: payment,
	}
}

func requestMessage(t *testing.T, req events.RefundRequest) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(req.PaymentID).
		WithEventType(events.RefundRequested).
		WithValue(req).
		Build()
	require.NoError(t, err)
	return msg
}

func isPermanent(err error) bool {
	return kafka.ClassifyError(err) == kafka.ErrorTypePermanent
}

func TestHandle_RefundsAndRecords(t *testing.T) {
	f := newFixture(t)

	err := f.handler.Handle(context.Background(), requestMessage(t, events.RefundRequest{
		PaymentID: f.payment.ID.Hex(),
		ChargeID:  "chrg_9",
		Amount:    25000,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"chrg_9"}, f.gateway.Refunded)
	payment := f.store.Snapshot().Payments[f.payment.ID]
	assert.Equal(t, model.PaymentRefunded, payment.Status)
	require.NotNil(t, payment.Refund)
	assert.Equal(t, "chrg_9", payment.Refund.ChargeID)
	assert.Equal(t, []string{events.PaymentRefunded}, f.events.Types())
}

func TestHandle_RedeliveryDoesNotRefundTwice(t *testing.T) {
	f := newFixture(t)
	msg := requestMessage(t, events.RefundRequest{PaymentID: f.payment.ID.Hex(), ChargeID: "chrg_9", Amount: 25000})

	require.NoError(t, f.handler.Handle(context.Background(), msg))
	require.NoError(t, f.handler.Handle(context.Background(), msg))

	_, refunds := f.gateway.Calls()
	assert.Equal(t, 1, refunds)
}

func TestHandle_GatewayFailureIsTransient(t *testing.T) {
	f := newFixture(t)
	f.gateway.RefundErr = &gateway.GatewayError{Op: gateway.OpRefund, Err: gateway.ErrTimeout}

	err := f.handler.Handle(context.Background(), requestMessage(t, events.RefundRequest{
		PaymentID: f.payment.ID.Hex(),
		ChargeID:  "chrg_9",
	}))

	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
	assert.Equal(t, model.PaymentPaid, f.store.Snapshot().Payments[f.payment.ID].Status)
}

func TestHandle_DuplicateChargeOnSettledPayment(t *testing.T) {
	f := newFixture(t)

	err := f.handler.Handle(context.Background(), requestMessage(t, events.RefundRequest{
		PaymentID: f.payment.ID.Hex(),
		ChargeID:  "chrg_dup",
		Amount:    25000,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"chrg_dup"}, f.gateway.Refunded)
	payment := f.store.Snapshot().Payments[f.payment.ID]
	assert.Equal(t, model.PaymentPaid, payment.Status)
	assert.Equal(t, "chrg_9", payment.Charge.ID)
}

func TestHandle_RecordFailureIsPermanent(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn(recordstest.OpPaymentMarkRefunded, errors.New("store unavailable"))

	err := f.handler.Handle(context.Background(), requestMessage(t, events.RefundRequest{
		PaymentID: f.payment.ID.Hex(),
		ChargeID:  "chrg_9",
	}))

	require.Error(t, err)
	assert.True(t, isPermanent(err))
	_, refunds := f.gateway.Calls()
	assert.Equal(t, 1, refunds)
}

func TestHandle_BadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		msg  kafka.Message
	}{
		{"malformed payload", kafka.Message{Value: []byte(`{"paymentId":`)}},
		{"missing charge", requestMessage(t, events.RefundRequest{PaymentID: f.payment.ID.Hex()})},
		{"invalid payment id", requestMessage(t, events.RefundRequest{PaymentID: "nope", ChargeID: "chrg_9"})},
		{"unknown payment", requestMessage(t, events.RefundRequest{PaymentID: primitive.NewObjectID().Hex(), ChargeID: "chrg_9"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.handler.Handle(context.Background(), tt.msg)
			require.Error(t, err)
			assert.True(t, isPermanent(err))
		})
	}

	_, refunds := f.gateway.Calls()
	assert.Zero(t, refunds)
}
