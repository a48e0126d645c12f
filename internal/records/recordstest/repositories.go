package recordstest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"petrent/internal/records/repository"
	"petrent/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type petRepo struct{ s *Store }

func (r petRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Pet, error) {
	st, done := r.s.read(ctx)
	defer done()

	p, ok := st.pets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePet(p), nil
}

func (r petRepo) FindWithBookings(ctx context.Context, id primitive.ObjectID) (*model.PetDetails, error) {
	st, done := r.s.read(ctx)
	defer done()

	p, ok := st.pets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	details := &model.PetDetails{Pet: *clonePet(p), Reserved: []model.Booking{}}
	if o, ok := st.owners[p.Owner]; ok {
		details.OwnerDoc = cloneOwner(o)
	}
	for _, b := range st.bookings {
		if b.Pet == id {
			details.Reserved = append(details.Reserved, *cloneBooking(b))
		}
	}
	return details, nil
}

func (r petRepo) PushBooking(ctx context.Context, petID, bookingID primitive.ObjectID, expectedVersion int64) error {
	w, err := r.s.write(ctx, OpPetPushBooking)
	if err != nil {
		return err
	}
	defer w.done()

	p, ok := w.pets[petID]
	if !ok || p.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	p.Bookings = append(p.Bookings, bookingID)
	p.Version++
	w.touchPet(petID)
	return nil
}

func (r petRepo) PullBooking(ctx context.Context, petID, bookingID primitive.ObjectID) error {
	w, err := r.s.write(ctx, OpPetPullBooking)
	if err != nil {
		return err
	}
	defer w.done()

	p, ok := w.pets[petID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Bookings = slices.DeleteFunc(p.Bookings, func(id primitive.ObjectID) bool { return id == bookingID })
	p.Version++
	w.touchPet(petID)
	return nil
}

type ownerRepo struct{ s *Store }

func (r ownerRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Owner, error) {
	st, done := r.s.read(ctx)
	defer done()

	o, ok := st.owners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOwner(o), nil
}

func (r ownerRepo) FindBySubject(ctx context.Context, subject string) (*model.Owner, error) {
	st, done := r.s.read(ctx)
	defer done()

	for _, o := range st.owners {
		if o.Subject == subject {
			return cloneOwner(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

type renterRepo struct{ s *Store }

func (r renterRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Renter, error) {
	st, done := r.s.read(ctx)
	defer done()

	rt, ok := st.renters[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRenter(rt), nil
}

func (r renterRepo) FindBySubject(ctx context.Context, subject string) (*model.Renter, error) {
	st, done := r.s.read(ctx)
	defer done()

	for _, rt := range st.renters {
		if rt.Subject == subject {
			return cloneRenter(rt), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r renterRepo) SetPaymentCustomer(ctx context.Context, id primitive.ObjectID, customerID string) error {
	return r.update(ctx, OpRenterSetPaymentCustomer, id, func(rt *model.Renter) {
		rt.PaymentCustomerID = customerID
	})
}

func (r renterRepo) PushBooking(ctx context.Context, renterID, bookingID primitive.ObjectID) error {
	return r.update(ctx, OpRenterPushBooking, renterID, func(rt *model.Renter) {
		rt.Bookings = append(rt.Bookings, bookingID)
	})
}

func (r renterRepo) AddToRevenue(ctx context.Context, renterID primitive.ObjectID, amount int64) error {
	return r.update(ctx, OpRenterAddToRevenue, renterID, func(rt *model.Renter) {
		rt.Revenue += amount
	})
}

func (r renterRepo) update(ctx context.Context, op string, id primitive.ObjectID, fn func(*model.Renter)) error {
	w, err := r.s.write(ctx, op)
	if err != nil {
		return err
	}
	defer w.done()

	rt, ok := w.renters[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(rt)
	w.touchRenter(id)
	return nil
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	w, err := r.s.write(ctx, OpBookingCreate)
	if err != nil {
		return err
	}
	defer w.done()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if _, exists := w.bookings[booking.ID]; exists {
		return fmt.Errorf("failed to create booking: duplicate id %s", booking.ID.Hex())
	}
	booking.CreatedAt = now()
	w.bookings[booking.ID] = cloneBooking(booking)
	w.touchBooking(booking.ID)
	return nil
}

func (r bookingRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	st, done := r.s.read(ctx)
	defer done()

	b, ok := st.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r bookingRepo) FindReservedDates(ctx context.Context, petID primitive.ObjectID) ([]model.DateRange, error) {
	st, done := r.s.read(ctx)
	defer done()

	dates := make([]model.DateRange, 0)
	for _, b := range st.bookings {
		if b.Pet == petID && b.Status != model.BookingCancelled {
			dates = append(dates, model.DateRange{StartAt: b.StartAt, EndAt: b.EndAt})
		}
	}
	slices.SortFunc(dates, func(a, b model.DateRange) int {
		return a.StartAt.Compare(b.StartAt)
	})
	return dates, nil
}

func (r bookingRepo) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]model.BookingDetails, error) {
	return r.findDetails(ctx, func(b *model.Booking) bool { return b.Owner == ownerID }, true)
}

func (r bookingRepo) FindByRenter(ctx context.Context, renterID primitive.ObjectID) ([]model.BookingDetails, error) {
	return r.findDetails(ctx, func(b *model.Booking) bool { return b.Renter == renterID }, false)
}

func (r bookingRepo) findDetails(ctx context.Context, match func(*model.Booking) bool, withPayment bool) ([]model.BookingDetails, error) {
	st, done := r.s.read(ctx)
	defer done()

	out := make([]model.BookingDetails, 0)
	for _, b := range st.bookings {
		if !match(b) {
			continue
		}
		d := model.BookingDetails{Booking: *cloneBooking(b)}
		if p, ok := st.pets[b.Pet]; ok {
			d.PetDoc = clonePet(p)
		}
		if withPayment {
			if p, ok := st.payments[b.Payment]; ok {
				d.PaymentDoc = clonePayment(p)
			}
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.BookingDetails) int {
		return b.StartAt.Compare(a.StartAt)
	})
	return out, nil
}

func (r bookingRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to model.BookingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: booking %s -> %s", repository.ErrStatusConflict, from, to)
	}

	w, err := r.s.write(ctx, OpBookingUpdateStatus)
	if err != nil {
		return err
	}
	defer w.done()

	b, ok := w.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStatusConflict
	}
	b.Status = to
	w.touchBooking(id)
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	w, err := r.s.write(ctx, OpPaymentCreate)
	if err != nil {
		return err
	}
	defer w.done()

	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	if _, exists := w.payments[payment.ID]; exists {
		return fmt.Errorf("failed to create payment: duplicate id %s", payment.ID.Hex())
	}
	payment.CreatedAt = now()
	payment.UpdatedAt = payment.CreatedAt
	w.payments[payment.ID] = clonePayment(payment)
	w.touchPayment(payment.ID)
	return nil
}

func (r paymentRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Payment, error) {
	st, done := r.s.read(ctx)
	defer done()

	p, ok := st.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r paymentRepo) FindPendingByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]model.Payment, error) {
	st, done := r.s.read(ctx)
	defer done()

	out := make([]model.Payment, 0)
	for _, p := range st.payments {
		if p.Owner == ownerID && p.Status == model.PaymentPending {
			out = append(out, *clonePayment(p))
		}
	}
	slices.SortFunc(out, func(a, b model.Payment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r paymentRepo) MarkPaid(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord) error {
	return r.transition(ctx, OpPaymentMarkPaid, id,
		func(p *model.Payment) bool { return p.Status == model.PaymentPending },
		func(p *model.Payment) {
			p.Status = model.PaymentPaid
			p.Charge = charge
		})
}

func (r paymentRepo) MarkDeclined(ctx context.Context, id primitive.ObjectID) error {
	return r.transition(ctx, OpPaymentMarkDeclined, id,
		func(p *model.Payment) bool { return p.Status == model.PaymentPending },
		func(p *model.Payment) { p.Status = model.PaymentDeclined })
}

func (r paymentRepo) MarkRefunded(ctx context.Context, id primitive.ObjectID, charge *model.ChargeRecord, refund *model.RefundRecord) error {
	return r.transition(ctx, OpPaymentMarkRefunded, id,
		func(p *model.Payment) bool {
			return p.Status == model.PaymentPending ||
				(p.Status == model.PaymentPaid && p.Charge != nil && p.Charge.ID == charge.ID)
		},
		func(p *model.Payment) {
			p.Status = model.PaymentRefunded
			p.Charge = charge
			p.Refund = refund
		})
}

func (r paymentRepo) transition(ctx context.Context, op string, id primitive.ObjectID, match func(*model.Payment) bool, apply func(*model.Payment)) error {
	w, err := r.s.write(ctx, op)
	if err != nil {
		return err
	}
	defer w.done()

	p, ok := w.payments[id]
	if !ok || !match(p) {
		return repository.ErrStatusConflict
	}
	apply(p)
	p.UpdatedAt = now()
	// callers keep their charge and refund pointers
	*p = *clonePayment(p)
	w.touchPayment(id)
	return nil
}
