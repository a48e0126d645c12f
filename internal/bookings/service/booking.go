package service

import (
	"context"
	"errors"
	"fmt"

	"petrent/internal/bookings/availability"
	bookingserrors "petrent/internal/bookings/errors"
	"petrent/internal/bookings/validator"
	"petrent/internal/identity"
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

// maxPersistAttempts bounds how often a booking is re-checked and re-written
// after losing a race for the pet to a concurrent booking.
const maxPersistAttempts = 5

type BookingService interface {
	// Create books a pet for the renter identified by subject. The card is
	// tokenized but not charged.
	Create(ctx context.Context, subject string, req *model.BookingRequest) (*model.Booking, error)
	GetPetDates(ctx context.Context, petID string) ([]model.DateRange, error)
	GetForOwner(ctx context.Context, subject, ownerID string) ([]model.BookingDetails, error)
	GetForRenter(ctx context.Context, subject, renterID string) ([]model.BookingDetails, error)
}

type bookingService struct {
	repos     *repository.Repositories
	identity  *identity.Resolver
	gateway   gateway.Gateway
	validator *validator.BookingValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repos *repository.Repositories,
	resolver *identity.Resolver,
	gw gateway.Gateway,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repos:     repos,
		identity:  resolver,
		gateway:   gw,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

// stepError names the transactional write that failed.
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

func (s *bookingService) Create(ctx context.Context, subject string, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	petID, err := repository.ParseID(req.PetID)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid pet ID format")
	}

	renter, err := s.identity.Renter(ctx, subject)
	if err != nil {
		return nil, err
	}

	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookable(pet, renter, req); err != nil {
		return nil, err
	}

	token, err := s.gateway.TokenizeCustomer(ctx, sanitizer.NormalizeEmail(renter.Email), req.PaymentToken)
	if err != nil {
		s.cfg.Log.Warn("Payment method tokenization failed",
			"renter_id", renter.ID.Hex(),
			"pet_id", pet.ID.Hex(),
			"error", err,
		)
		return nil, apperrors.Payment("Failed to tokenize payment method", err)
	}

	amount, err := gateway.ToMinorUnits(req.TotalPrice)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid total price")
	}

	var booking *model.Booking
	for attempt := 1; ; attempt++ {
		booking, err = s.persist(ctx, renter, pet, req, token, amount)
		if err == nil {
			break
		}
		if !isPetRace(err) {
			return nil, s.persistError(err, renter, pet)
		}

		s.cfg.Log.Debug("Pet changed during booking, re-checking availability",
			"pet_id", pet.ID.Hex(),
			"attempt", attempt,
		)
		if attempt == maxPersistAttempts {
			return nil, apperrors.Conflict(bookingserrors.ErrDatesUnavailable.Error())
		}
		if pet, err = s.loadPet(ctx, petID); err != nil {
			return nil, err
		}
		if err := s.checkBookable(pet, renter, req); err != nil {
			return nil, err
		}
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID.Hex(),
		"payment_id", booking.Payment.Hex(),
		"pet_id", booking.Pet.Hex(),
		"renter_id", booking.Renter.Hex(),
		"start_at", booking.StartAt,
		"end_at", booking.EndAt,
	)
	events.Emit(ctx, s.events, s.cfg.Log, events.Event{
		Type:      events.BookingCreated,
		BookingID: booking.ID.Hex(),
		PaymentID: booking.Payment.Hex(),
		PetID:     booking.Pet.Hex(),
		RenterID:  booking.Renter.Hex(),
		OwnerID:   booking.Owner.Hex(),
		Amount:    amount,
		Currency:  s.cfg.PaymentCurrency,
	})
	return booking, nil
}

// persist writes the renter token, payment, booking, and both back-references
// in one transaction. Nothing is visible unless every write succeeds.
func (s *bookingService) persist(
	ctx context.Context,
	renter *model.Renter,
	pet *model.PetDetails,
	req *model.BookingRequest,
	token *model.CustomerToken,
	amount int64,
) (*model.Booking, error) {
	payment := &model.Payment{
		ID:         primitive.NewObjectID(),
		Renter:     renter.ID,
		Owner:      pet.Owner,
		CustomerID: token.CustomerID,
		SourceID:   token.SourceID,
		Amount:     amount,
		Currency:   s.cfg.PaymentCurrency,
		Status:     model.PaymentPending,
	}
	booking := &model.Booking{
		ID:         primitive.NewObjectID(),
		StartAt:    req.StartAt.UTC(),
		EndAt:      req.EndAt.UTC(),
		TotalPrice: req.TotalPrice.InexactFloat64(),
		Days:       req.Days,
		Renter:     renter.ID,
		Owner:      pet.Owner,
		Pet:        pet.ID,
		Payment:    payment.ID,
		Status:     model.BookingPending,
	}
	payment.Booking = booking.ID

	err := s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Renters.SetPaymentCustomer(txCtx, renter.ID, token.CustomerID); err != nil {
			return &stepError{step: "update renter payment customer", err: err}
		}
		if err := s.repos.Payments.Create(txCtx, payment); err != nil {
			return &stepError{step: "create payment", err: err}
		}
		if err := s.repos.Bookings.Create(txCtx, booking); err != nil {
			return &stepError{step: "create booking", err: err}
		}
		if err := s.repos.Pets.PushBooking(txCtx, pet.ID, booking.ID, pet.Version); err != nil {
			return &stepError{step: "link booking to pet", err: err}
		}
		if err := s.repos.Renters.PushBooking(txCtx, renter.ID, booking.ID); err != nil {
			return &stepError{step: "link booking to renter", err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func isPetRace(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict) || mongotx.IsWriteConflict(err)
}

func (s *bookingService) persistError(err error, renter *model.Renter, pet *model.PetDetails) error {
	s.cfg.Log.Error("Failed to persist booking",
		"renter_id", renter.ID.Hex(),
		"pet_id", pet.ID.Hex(),
		"error", err,
	)

	var se *stepError
	switch {
	case errors.Is(err, mongotx.ErrBegin):
		return apperrors.Internal("Failed to start booking transaction", err)
	case errors.As(err, &se):
		return apperrors.Payment("Failed to "+se.step, err)
	default:
		return apperrors.Payment("Failed to save booking", err)
	}
}

func (s *bookingService) loadPet(ctx context.Context, id primitive.ObjectID) (*model.PetDetails, error) {
	pet, err := s.repos.Pets.FindWithBookings(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Pet", id.Hex())
		}
		return nil, apperrors.Internal("Failed to retrieve pet", err)
	}
	return pet, nil
}

// checkBookable runs every precondition that depends on the pet's current state.
func (s *bookingService) checkBookable(pet *model.PetDetails, renter *model.Renter, req *model.BookingRequest) error {
	if !pet.Status.AcceptsBookings() {
		return apperrors.Conflict(bookingserrors.ErrPetNotBookable.Error())
	}
	if pet.OwnerDoc == nil {
		return apperrors.NotFound("Pet owner")
	}
	if pet.OwnerDoc.Subject == renter.Subject {
		return apperrors.Forbidden(bookingserrors.ErrOwnPet.Error())
	}

	if conflicts := availability.Conflicts(req.StartAt, req.EndAt, pet.Reserved); len(conflicts) > 0 {
		s.cfg.Log.Info("Booking rejected, dates unavailable",
			"pet_id", pet.ID.Hex(),
			"start_at", req.StartAt,
			"end_at", req.EndAt,
			"conflicts", len(conflicts),
		)
		return apperrors.Conflict(bookingserrors.ErrDatesUnavailable.Error())
	}
	return nil
}

func (s *bookingService) GetPetDates(ctx context.Context, petID string) ([]model.DateRange, error) {
	id, err := repository.ParseID(sanitizer.NormalizeID(petID))
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid pet ID format")
	}

	dates, err := s.repos.Bookings.FindReservedDates(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load pet booking dates", "pet_id", petID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking dates", err)
	}
	return dates, nil
}

func (s *bookingService) GetForOwner(ctx context.Context, subject, ownerID string) ([]model.BookingDetails, error) {
	id, err := repository.ParseID(sanitizer.NormalizeID(ownerID))
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid owner ID format")
	}
	callerID, err := s.identity.OwnerID(ctx, subject)
	if err != nil {
		return nil, asForbidden(err)
	}
	if callerID != id {
		return nil, apperrors.Forbidden("Not authorized to view these bookings")
	}

	bookings, err := s.repos.Bookings.FindByOwner(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to list owner bookings", "owner_id", ownerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) GetForRenter(ctx context.Context, subject, renterID string) ([]model.BookingDetails, error) {
	id, err := repository.ParseID(sanitizer.NormalizeID(renterID))
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid renter ID format")
	}
	callerID, err := s.identity.RenterID(ctx, subject)
	if err != nil {
		return nil, asForbidden(err)
	}
	if callerID != id {
		return nil, apperrors.Forbidden("Not authorized to view these bookings")
	}

	bookings, err := s.repos.Bookings.FindByRenter(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to list renter bookings", "renter_id", renterID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// asForbidden turns "caller has no such profile" into an authorization failure.
func asForbidden(err error) error {
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return apperrors.Forbidden("Not authorized to view these bookings")
	}
	return err
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.PetID = sanitizer.NormalizeID(req.PetID)
	req.PaymentToken = sanitizer.NormalizeToken(req.PaymentToken)
}

func (s *bookingService) validate(req *model.BookingRequest) error {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Booking validation failed", verrs.Details())
		}
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
