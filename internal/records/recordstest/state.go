package recordstest

import (
	"slices"

	"petrent/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type state struct {
	pets     map[primitive.ObjectID]*model.Pet
	owners   map[primitive.ObjectID]*model.Owner
	renters  map[primitive.ObjectID]*model.Renter
	bookings map[primitive.ObjectID]*model.Booking
	payments map[primitive.ObjectID]*model.Payment
}

func newState() *state {
	return &state{
		pets:     make(map[primitive.ObjectID]*model.Pet),
		owners:   make(map[primitive.ObjectID]*model.Owner),
		renters:  make(map[primitive.ObjectID]*model.Renter),
		bookings: make(map[primitive.ObjectID]*model.Booking),
		payments: make(map[primitive.ObjectID]*model.Payment),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, p := range s.pets {
		c.pets[id] = clonePet(p)
	}
	for id, o := range s.owners {
		c.owners[id] = cloneOwner(o)
	}
	for id, r := range s.renters {
		c.renters[id] = cloneRenter(r)
	}
	for id, b := range s.bookings {
		c.bookings[id] = cloneBooking(b)
	}
	for id, p := range s.payments {
		c.payments[id] = clonePayment(p)
	}
	return c
}

// apply copies every record in changed over the receiver.
func (s *state) apply(changed *state) {
	for id, p := range changed.pets {
		s.pets[id] = clonePet(p)
	}
	for id, r := range changed.renters {
		s.renters[id] = cloneRenter(r)
	}
	for id, b := range changed.bookings {
		s.bookings[id] = cloneBooking(b)
	}
	for id, p := range changed.payments {
		s.payments[id] = clonePayment(p)
	}
}

func (s *state) ids() []primitive.ObjectID {
	var ids []primitive.ObjectID
	for id := range s.pets {
		ids = append(ids, id)
	}
	for id := range s.renters {
		ids = append(ids, id)
	}
	for id := range s.bookings {
		ids = append(ids, id)
	}
	for id := range s.payments {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot is a point-in-time copy of the committed records.
type Snapshot struct {
	Pets     map[primitive.ObjectID]model.Pet
	Renters  map[primitive.ObjectID]model.Renter
	Bookings map[primitive.ObjectID]model.Booking
	Payments map[primitive.ObjectID]model.Payment
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Pets:     make(map[primitive.ObjectID]model.Pet, len(s.pets)),
		Renters:  make(map[primitive.ObjectID]model.Renter, len(s.renters)),
		Bookings: make(map[primitive.ObjectID]model.Booking, len(s.bookings)),
		Payments: make(map[primitive.ObjectID]model.Payment, len(s.payments)),
	}
	for id, p := range s.pets {
		snap.Pets[id] = *clonePet(p)
	}
	for id, r := range s.renters {
		snap.Renters[id] = *cloneRenter(r)
	}
	for id, b := range s.bookings {
		snap.Bookings[id] = *cloneBooking(b)
	}
	for id, p := range s.payments {
		snap.Payments[id] = *clonePayment(p)
	}
	return snap
}

// BookingsForPet returns the pet's bookings in start order.
func (s Snapshot) BookingsForPet(petID primitive.ObjectID) []model.Booking {
	var out []model.Booking
	for _, b := range s.Bookings {
		if b.Pet == petID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int {
		return a.StartAt.Compare(b.StartAt)
	})
	return out
}

func clonePet(p *model.Pet) *model.Pet {
	c := *p
	c.Bookings = slices.Clone(p.Bookings)
	c.Images = slices.Clone(p.Images)
	if p.Location != nil {
		loc := *p.Location
		loc.Coordinates = slices.Clone(p.Location.Coordinates)
		c.Location = &loc
	}
	return &c
}

func cloneOwner(o *model.Owner) *model.Owner {
	c := *o
	return &c
}

func cloneRenter(r *model.Renter) *model.Renter {
	c := *r
	c.Bookings = slices.Clone(r.Bookings)
	return &c
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func clonePayment(p *model.Payment) *model.Payment {
	c := *p
	if p.Charge != nil {
		charge := *p.Charge
		c.Charge = &charge
	}
	if p.Refund != nil {
		refund := *p.Refund
		c.Refund = &refund
	}
	return &c
}
