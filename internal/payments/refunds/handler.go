// Package refunds retries refunds that could not be issued while a payment
// was being confirmed. Requests arrive on the refund topic; a request that
// keeps failing is parked on the DLQ for an operator.
package refunds

import (
	"context"
	"errors"

	"petrent/internal/records/repository"
	"petrent/pkg/events"
	"petrent/pkg/gateway"
	"petrent/pkg/kafka"
	"petrent/pkg/logger"
	"petrent/pkg/model"
)

type Handler struct {
	payments repository.PaymentRepository
	gateway  gateway.Gateway
	events   events.Publisher
	log      *logger.Logger
}

func NewHandler(payments repository.PaymentRepository, gw gateway.Gateway, publisher events.Publisher, log *logger.Logger) *Handler {
	return &Handler{
		payments: payments,
		gateway:  gw,
		events:   publisher,
		log:      log,
	}
}

// Handle processes one refund request. Transient errors are retried by the
// consumer; permanent ones go straight to the DLQ.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var req events.RefundRequest
	if err := msg.DecodeValue(&req); err != nil {
		return kafka.NewPermanentError("malformed refund request", err)
	}
	if req.ChargeID == "" {
		return kafka.NewPermanentError("refund request has no charge", nil).WithDetail("payment_id", req.PaymentID)
	}

	id, err := repository.ParseID(req.PaymentID)
	if err != nil {
		return kafka.NewPermanentError("invalid payment id", err).WithDetail("payment_id", req.PaymentID)
	}

	log := h.log.With(
		"payment_id", req.PaymentID,
		"charge_id", req.ChargeID,
		"event_id", msg.GetEventID(),
	)

	payment, err := h.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return kafka.NewPermanentError("payment not found", err).WithDetail("payment_id", req.PaymentID)
		}
		return kafka.NewTransientError("failed to load payment", err)
	}

	if payment.Refund != nil && payment.Refund.ChargeID == req.ChargeID {
		log.Info("Charge already refunded, skipping", "refund_id", payment.Refund.ID)
		return nil
	}

	refund, err := h.gateway.Refund(ctx, req.ChargeID)
	if err != nil {
		log.Warn("Refund retry failed", "retry", msg.GetRetryCount(), "error", err)
		return kafka.NewTransientError("refund failed", err)
	}

	charge := payment.Charge
	if charge == nil || charge.ID != req.ChargeID {
		charge = &model.ChargeRecord{ID: req.ChargeID, Amount: req.Amount, Currency: payment.Currency}
	}

	if err := h.payments.MarkRefunded(ctx, payment.ID, charge, refund); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			log.Warn("Refunded charge is not the payment's settled charge", "refund_id", refund.ID, "status", payment.Status)
			return nil
		}
		// The processor already refunded; retrying would refund twice.
		log.Alert("Refund issued but not recorded on payment", "refund_id", refund.ID, "error", err)
		return kafka.NewPermanentError("failed to record refund", err).WithDetail("refund_id", refund.ID)
	}

	log.Info("Refund issued", "refund_id", refund.ID, "amount", charge.Amount)
	events.Emit(ctx, h.events, h.log, events.Event{
		Type:      events.PaymentRefunded,
		BookingID: req.BookingID,
		PaymentID: req.PaymentID,
		RenterID:  payment.Renter.Hex(),
		OwnerID:   payment.Owner.Hex(),
		Amount:    charge.Amount,
		Currency:  charge.Currency,
	})
	return nil
}
