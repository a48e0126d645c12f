// Package events publishes booking and payment lifecycle events.
package events

import (
	"context"
	"time"

	"petrent/pkg/kafka"
	"petrent/pkg/logger"
)

const (
	BookingCreated      = "booking.created"
	PaymentPaid         = "payment.paid"
	PaymentDeclined     = "payment.declined"
	PaymentRefunded     = "payment.refunded"
	PaymentRefundFailed = "payment.refund_failed"
	RefundRequested     = "refund.requested"

	schemaVersion = "1"
	source        = "petrent"
)

type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId,omitempty"`
	PaymentID  string    `json:"paymentId,omitempty"`
	PetID      string    `json:"petId,omitempty"`
	RenterID   string    `json:"renterId,omitempty"`
	OwnerID    string    `json:"ownerId,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RefundRequest is the durable record of a refund owed to a renter whose card
// was charged but whose payment could not be confirmed.
type RefundRequest struct {
	PaymentID   string    `json:"paymentId"`
	BookingID   string    `json:"bookingId"`
	ChargeID    string    `json:"chargeId"`
	Amount      int64     `json:"amount"`
	Attempts    int       `json:"attempts"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	RequestRefund(ctx context.Context, req RefundRequest) error
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes lifecycle events and refund requests to separate topics.
type KafkaPublisher struct {
	events  producer
	refunds producer
	log     *logger.Logger
}

func NewKafkaPublisher(events, refunds *kafka.Producer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{events: events, refunds: refunds, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	key := event.BookingID
	if key == "" {
		key = event.PaymentID
	}

	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()
	if err != nil {
		return err
	}
	return p.events.Publish(ctx, msg)
}

func (p *KafkaPublisher) RequestRefund(ctx context.Context, req RefundRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}

	msg, err := kafka.NewMessage().
		WithKey(req.PaymentID).
		WithValue(req).
		WithEventType(RefundRequested).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		WithCorrelationID(req.ChargeID).
		Build()
	if err != nil {
		return err
	}
	return p.refunds.Publish(ctx, msg)
}

// Noop drops lifecycle events. Refund requests are logged at alert level so
// an operator can settle them by hand.
type Noop struct {
	Log *logger.Logger
}

func (n Noop) Publish(context.Context, Event) error {
	return nil
}

func (n Noop) RequestRefund(_ context.Context, req RefundRequest) error {
	if n.Log != nil {
		n.Log.Alert("Refund owed with no refund queue configured",
			"payment_id", req.PaymentID,
			"charge_id", req.ChargeID,
			"amount", req.Amount,
			"reason", req.Reason,
		)
	}
	return nil
}

// Emit publishes event and logs, rather than returns, a failure. Lifecycle
// events never change the outcome of the request that produced them.
func Emit(ctx context.Context, pub Publisher, log *logger.Logger, event Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"payment_id", event.PaymentID,
			"error", err,
		)
	}
}
