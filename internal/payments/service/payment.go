package service

import (
	"context"
	"errors"
	"fmt"

	"petrent/internal/identity"
	paymentserrors "petrent/internal/payments/errors"
	"petrent/internal/records/repository"
	"petrent/pkg/config"
	mongotx "petrent/pkg/db/mongo"
	apperrors "petrent/pkg/errors"
	"petrent/pkg/events"
	"petrent/pkg/gateway"
	"petrent/pkg/model"
	"petrent/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentService interface {
	// Confirm charges the renter and settles the payment. A charge that cannot
	// be persisted is refunded before the error is returned.
	Confirm(ctx context.Context, subject, paymentID string) (*model.Payment, error)
	// Decline cancels the booking without touching the card.
	Decline(ctx context.Context, subject, paymentID string) (*model.Payment, error)
	GetPending(ctx context.Context, subject string) ([]model.Payment, error)
}

type paymentService struct {
	repos    *repository.Repositories
	identity *identity.Resolver
	gateway  gateway.Gateway
	events   events.Publisher
	cfg      *config.Config
}

func NewPaymentService(
	repos *repository.Repositories,
	resolver *identity.Resolver,
	gw gateway.Gateway,
	publisher events.Publisher,
	cfg *config.Config,
) PaymentService {
	if publisher == nil {
		publisher = events.Noop{Log: cfg.Log}
	}
	return &paymentService{
		repos:    repos,
		identity: resolver,
		gateway:  gw,
		events:   publisher,
		cfg:      cfg,
	}
}

type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.step, e.err)
}

func (e *stepError) Unwrap() error {
	return e.err
}

func stepOf(err error) string {
	var se *stepError
	if errors.As(err, &se) {
		return se.step
	}
	return "save payment"
}

func (s *paymentService) Confirm(ctx context.Context, subject, paymentID string) (*model.Payment, error) {
	payment, booking, err := s.loadForOwner(ctx, subject, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentPending {
		return nil, apperrors.Conflict(paymentserrors.ErrNotPending.Error())
	}

	charge, err := s.gateway.Charge(ctx, gateway.FromMinorUnits(payment.Amount), payment.CustomerID, payment.SourceID)
	if err != nil {
		s.cfg.Log.Warn("Charge failed",
			"payment_id", payment.ID.Hex(),
			"booking_id", booking.ID.Hex(),
			"error", err,
		)
		return nil, apperrors.Payment("Failed to charge card", err)
	}

	err = s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Payments.MarkPaid(txCtx, payment.ID, charge); err != nil {
			return &stepError{step: "mark payment paid", err: err}
		}
		if err := s.repos.Bookings.UpdateStatus(txCtx, booking.ID, model.BookingPending, model.BookingActive); err != nil {
			return &stepError{step: "activate booking", err: err}
		}
		if err := s.repos.Renters.AddToRevenue(txCtx, payment.Renter, charge.Amount); err != nil {
			return &stepError{step: "update renter revenue", err: err}
		}
		return nil
	})
	if err != nil && !s.settled(ctx, payment.ID, charge, err) {
		return nil, s.compensate(ctx, payment, booking, charge, err)
	}

	s.cfg.Log.Info("Payment confirmed",
		"payment_id", payment.ID.Hex(),
		"booking_id", booking.ID.Hex(),
		"charge_id", charge.ID,
		"amount", charge.Amount,
	)
	events.Emit(ctx, s.events, s.cfg.Log, events.Event{
		Type:      events.PaymentPaid,
		BookingID: booking.ID.Hex(),
		PaymentID: payment.ID.Hex(),
		PetID:     booking.Pet.Hex(),
		RenterID:  payment.Renter.Hex(),
		OwnerID:   payment.Owner.Hex(),
		Amount:    charge.Amount,
		Currency:  charge.Currency,
	})

	payment.Status = model.PaymentPaid
	payment.Charge = charge
	return payment, nil
}

// settled reports whether the payment already holds charge although the
// settlement transaction returned cause. A commit can land on the server and
// still report an error to the client.
func (s *paymentService) settled(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord, cause error) bool {
	current, err := s.repos.Payments.FindByID(context.WithoutCancel(ctx), id)
	if err != nil {
		s.cfg.Log.Warn("Failed to re-read payment after failed settlement",
			"payment_id", id.Hex(),
			"charge_id", charge.ID,
			"error", err,
		)
		return false
	}
	if current.Status != model.PaymentPaid || current.Charge == nil || current.Charge.ID != charge.ID {
		return false
	}
	s.cfg.Log.Warn("Settlement was stored despite a transaction error",
		"payment_id", id.Hex(),
		"charge_id", charge.ID,
		"error", cause,
	)
	return true
}

// compensate refunds a charge whose settlement could not be persisted. It runs
// detached from ctx so a cancelled request cannot strand the charge.
func (s *paymentService) compensate(ctx context.Context, payment *model.Payment, booking *model.Booking, charge *model.ChargeRecord, cause error) error {
	ctx = context.WithoutCancel(ctx)
	log := s.cfg.Log.With(
		"payment_id", payment.ID.Hex(),
		"booking_id", booking.ID.Hex(),
		"charge_id", charge.ID,
	)
	log.Error("Failed to persist settled payment, refunding charge", "step", stepOf(cause), "error", cause)

	refund, err := s.gateway.Refund(ctx, charge.ID)
	if err != nil {
		return s.refundFailed(ctx, payment, booking, charge, cause, err)
	}

	if err := s.repos.Payments.MarkRefunded(ctx, payment.ID, charge, refund); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			log.Warn("Payment settled concurrently, duplicate charge refunded", "refund_id", refund.ID)
		} else {
			log.Error("Failed to record refund on payment", "refund_id", refund.ID, "error", err)
		}
	} else {
		events.Emit(ctx, s.events, s.cfg.Log, events.Event{
			Type:      events.PaymentRefunded,
			BookingID: booking.ID.Hex(),
			PaymentID: payment.ID.Hex(),
			RenterID:  payment.Renter.Hex(),
			OwnerID:   payment.Owner.Hex(),
			Amount:    refund.Amount,
			Currency:  charge.Currency,
		})
	}

	if errors.Is(cause, repository.ErrStatusConflict) {
		return apperrors.Conflict(paymentserrors.ErrNotPending.Error())
	}
	if mongotx.IsWriteConflict(cause) {
		return apperrors.Conflict(paymentserrors.ErrConcurrentUpdate.Error())
	}
	return apperrors.Payment(fmt.Sprintf("Failed to %s, the charge was refunded", stepOf(cause)), cause)
}

// refundFailed records a charge that could not be reversed. The payment is
// left PAID with its charge and the refund is handed to the retry queue.
func (s *paymentService) refundFailed(ctx context.Context, payment *model.Payment, booking *model.Booking, charge *model.ChargeRecord, cause, refundErr error) error {
	attempts := 1
	if gwErr, ok := gateway.AsGatewayError(refundErr); ok && gwErr.Attempts > 0 {
		attempts = gwErr.Attempts
	}
	log := s.cfg.Log.With(
		"payment_id", payment.ID.Hex(),
		"booking_id", booking.ID.Hex(),
		"charge_id", charge.ID,
		"attempts", attempts,
	)
	log.Alert("Card charged but refund failed",
		"amount", charge.Amount,
		"cause", cause.Error(),
		"error", refundErr,
	)

	if err := s.repos.Payments.MarkPaid(ctx, payment.ID, charge); err != nil && !errors.Is(err, repository.ErrStatusConflict) {
		log.Alert("Failed to record charge on payment", "error", err)
	}

	events.Emit(ctx, s.events, s.cfg.Log, events.Event{
		Type:      events.PaymentRefundFailed,
		BookingID: booking.ID.Hex(),
		PaymentID: payment.ID.Hex(),
		RenterID:  payment.Renter.Hex(),
		OwnerID:   payment.Owner.Hex(),
		Amount:    charge.Amount,
		Currency:  charge.Currency,
	})
	if err := s.events.RequestRefund(ctx, events.RefundRequest{
		PaymentID: payment.ID.Hex(),
		BookingID: booking.ID.Hex(),
		ChargeID:  charge.ID,
		Amount:    charge.Amount,
		Attempts:  attempts,
		Reason:    cause.Error(),
	}); err != nil {
		log.Alert("Failed to queue refund", "error", err)
	}

	return apperrors.Refund(refundErr).WithDetails(map[string]any{
		"paymentId": payment.ID.Hex(),
		"chargeId":  charge.ID,
		"attempts":  attempts,
	})
}

func (s *paymentService) Decline(ctx context.Context, subject, paymentID string) (*model.Payment, error) {
	payment, booking, err := s.loadForOwner(ctx, subject, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentPending {
		return nil, apperrors.Conflict(paymentserrors.ErrNotPending.Error())
	}

	err = s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Bookings.UpdateStatus(txCtx, booking.ID, model.BookingPending, model.BookingCancelled); err != nil {
			return &stepError{step: "cancel booking", err: err}
		}
		if err := s.repos.Payments.MarkDeclined(txCtx, payment.ID); err != nil {
			return &stepError{step: "decline payment", err: err}
		}
		if err := s.repos.Pets.PullBooking(txCtx, booking.Pet, booking.ID); err != nil {
			return &stepError{step: "unlink booking from pet", err: err}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to decline payment",
			"payment_id", payment.ID.Hex(),
			"booking_id", booking.ID.Hex(),
			"step", stepOf(err),
			"error", err,
		)
		switch {
		case errors.Is(err, mongotx.ErrBegin):
			return nil, apperrors.Internal("Failed to start payment transaction", err)
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, apperrors.Conflict(paymentserrors.ErrNotPending.Error())
		case mongotx.IsWriteConflict(err):
			return nil, apperrors.Conflict(paymentserrors.ErrConcurrentUpdate.Error())
		default:
			return nil, apperrors.Payment("Failed to "+stepOf(err), err)
		}
	}

	s.cfg.Log.Info("Payment declined",
		"payment_id", payment.ID.Hex(),
		"booking_id", booking.ID.Hex(),
	)
	events.Emit(ctx, s.events, s.cfg.Log, events.Event{
		Type:      events.PaymentDeclined,
		BookingID: booking.ID.Hex(),
		PaymentID: payment.ID.Hex(),
		PetID:     booking.Pet.Hex(),
		RenterID:  payment.Renter.Hex(),
		OwnerID:   payment.Owner.Hex(),
	})

	payment.Status = model.PaymentDeclined
	return payment, nil
}

func (s *paymentService) GetPending(ctx context.Context, subject string) ([]model.Payment, error) {
	ownerID, err := s.identity.OwnerID(ctx, subject)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.Forbidden("Only owners have pending payments")
		}
		return nil, err
	}

	payments, err := s.repos.Payments.FindPendingByOwner(ctx, ownerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list pending payments", "owner_id", ownerID.Hex(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve pending payments", err)
	}
	return payments, nil
}

// loadForOwner loads the payment and its booking and checks that the caller
// owns both.
func (s *paymentService) loadForOwner(ctx context.Context, subject, paymentID string) (*model.Payment, *model.Booking, error) {
	id, err := repository.ParseID(sanitizer.NormalizeID(paymentID))
	if err != nil {
		return nil, nil, apperrors.InvalidInput("Invalid payment ID format")
	}

	payment, err := s.repos.Payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Payment", id.Hex())
		}
		return nil, nil, apperrors.Internal("Failed to retrieve payment", err)
	}

	booking, err := s.repos.Bookings.FindByID(ctx, payment.Booking)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Booking", payment.Booking.Hex())
		}
		return nil, nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	callerID, err := s.identity.OwnerID(ctx, subject)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, nil, apperrors.Forbidden(paymentserrors.ErrNotPaymentOwner.Error())
		}
		return nil, nil, err
	}
	if !ownedBy(callerID, payment, booking) {
		s.cfg.Log.Warn("Payment settlement by non-owner rejected",
			"payment_id", payment.ID.Hex(),
			"caller_id", callerID.Hex(),
		)
		return nil, nil, apperrors.Forbidden(paymentserrors.ErrNotPaymentOwner.Error())
	}
	return payment, booking, nil
}

func ownedBy(ownerID primitive.ObjectID, payment *model.Payment, booking *model.Booking) bool {
	return payment.Owner == ownerID && booking.Owner == ownerID
}
