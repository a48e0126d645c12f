// Package recordstest is an in-memory record store with the same transaction
// semantics as the Mongo repositories: writes made under a transaction are
// invisible until commit and discarded on abort.
package recordstest

import (
	"context"
	"errors"
	"maps"
	"sync"

	"petrent/internal/records/repository"
	mongotx "petrent/pkg/db/mongo"
	"petrent/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Operation names accepted by FailOn and Calls.
const (
	OpTxBegin                  = "Tx.Begin"
	OpTxCommit                 = "Tx.Commit"
	OpRenterSetPaymentCustomer = "Renters.SetPaymentCustomer"
	OpRenterPushBooking        = "Renters.PushBooking"
	OpRenterAddToRevenue       = "Renters.AddToRevenue"
	OpPaymentCreate            = "Payments.Create"
	OpPaymentMarkPaid          = "Payments.MarkPaid"
	OpPaymentMarkDeclined      = "Payments.MarkDeclined"
	OpPaymentMarkRefunded      = "Payments.MarkRefunded"
	OpBookingCreate            = "Bookings.Create"
	OpBookingUpdateStatus      = "Bookings.UpdateStatus"
	OpPetPushBooking           = "Pets.PushBooking"
	OpPetPullBooking           = "Pets.PullBooking"
)

// OpTxCommitAck fails a commit after its writes were applied, like a commit
// whose acknowledgement was lost.
const OpTxCommitAck = "Tx.CommitAck"

type Store struct {
	mu        sync.Mutex
	committed *state
	// revs counts committed writes per record and detects write conflicts.
	revs     map[primitive.ObjectID]uint64
	failures map[string]error
	calls    map[string]int
	hooks    map[string]func()

	// txSem serializes transactions.
	txSem chan struct{}
}

func New() *Store {
	return &Store{
		committed: newState(),
		revs:      make(map[primitive.ObjectID]uint64),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
		hooks:     make(map[string]func()),
		txSem:     make(chan struct{}, 1),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Pets:     petRepo{s},
		Owners:   ownerRepo{s},
		Renters:  renterRepo{s},
		Bookings: bookingRepo{s},
		Payments: paymentRepo{s},
		Tx:       txManager{s},
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// OnCall runs fn before every later call of op, outside any store lock. A nil
// fn clears it.
func (s *Store) OnCall(op string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, op)
		return
	}
	s.hooks[op] = fn
}

func (s *Store) runHook(op string) {
	s.mu.Lock()
	fn := s.hooks[op]
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.snapshot()
}

func (s *Store) AddOwner(o model.Owner) model.Owner {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.owners[o.ID] = cloneOwner(&o)
	return o
}

func (s *Store) AddRenter(r model.Renter) model.Renter {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.renters[r.ID] = cloneRenter(&r)
	return r
}

func (s *Store) AddPet(p model.Pet) model.Pet {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Status == "" {
		p.Status = model.PetActive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.pets[p.ID] = clonePet(&p)
	return p
}

// AddBooking stores b and links it to its pet and renter.
func (s *Store) AddBooking(b model.Booking) model.Booking {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.bookings[b.ID] = cloneBooking(&b)
	if p, ok := s.committed.pets[b.Pet]; ok {
		p.Bookings = append(p.Bookings, b.ID)
		p.Version++
	}
	if r, ok := s.committed.renters[b.Renter]; ok {
		r.Bookings = append(r.Bookings, b.ID)
	}
	return b
}

func (s *Store) AddPayment(p model.Payment) model.Payment {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.payments[p.ID] = clonePayment(&p)
	return p
}

type txKey struct{}

type txState struct {
	working  *state
	dirty    *state
	baseRevs map[primitive.ObjectID]uint64
}

// write records op, applies any injected failure, and returns the state the
// write applies to. Inside a transaction that is the working copy, otherwise
// the committed state, which stays locked until done is called.
func (s *Store) write(ctx context.Context, op string) (*writer, error) {
	s.runHook(op)
	s.mu.Lock()
	s.calls[op]++
	if failure := s.failures[op]; failure != nil {
		s.mu.Unlock()
		return nil, failure
	}

	if ts, ok := ctx.Value(txKey{}).(*txState); ok {
		s.mu.Unlock()
		return &writer{state: ts.working, dirty: ts.dirty, done: func() {}}, nil
	}
	return &writer{state: s.committed, revs: s.revs, done: s.mu.Unlock}, nil
}

// read returns the state visible to ctx. The caller must invoke done.
func (s *Store) read(ctx context.Context) (*state, func()) {
	if ts, ok := ctx.Value(txKey{}).(*txState); ok {
		return ts.working, func() {}
	}
	s.mu.Lock()
	return s.committed, s.mu.Unlock
}

// writer targets either a transaction's working copy (dirty set) or the
// committed state (revs set).
type writer struct {
	*state
	dirty *state
	revs  map[primitive.ObjectID]uint64
	done  func()
}

func (w *writer) bump(id primitive.ObjectID) {
	if w.revs != nil {
		w.revs[id]++
	}
}

func (w *writer) touchPet(id primitive.ObjectID) {
	if w.dirty != nil {
		w.dirty.pets[id] = w.pets[id]
	}
	w.bump(id)
}

func (w *writer) touchRenter(id primitive.ObjectID) {
	if w.dirty != nil {
		w.dirty.renters[id] = w.renters[id]
	}
	w.bump(id)
}

func (w *writer) touchBooking(id primitive.ObjectID) {
	if w.dirty != nil {
		w.dirty.bookings[id] = w.bookings[id]
	}
	w.bump(id)
}

func (w *writer) touchPayment(id primitive.ObjectID) {
	if w.dirty != nil {
		w.dirty.payments[id] = w.payments[id]
	}
	w.bump(id)
}

type txManager struct{ s *Store }

func (m txManager) Begin(ctx context.Context) (mongotx.Tx, error) {
	m.s.runHook(OpTxBegin)
	m.s.mu.Lock()
	m.s.calls[OpTxBegin]++
	failure := m.s.failures[OpTxBegin]
	m.s.mu.Unlock()
	if failure != nil {
		return nil, errors.Join(mongotx.ErrBegin, failure)
	}

	select {
	case m.s.txSem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Join(mongotx.ErrBegin, ctx.Err())
	}

	m.s.mu.Lock()
	ts := &txState{
		working:  m.s.committed.clone(),
		dirty:    newState(),
		baseRevs: maps.Clone(m.s.revs),
	}
	m.s.mu.Unlock()

	return &memTx{s: m.s, ts: ts, ctx: context.WithValue(ctx, txKey{}, ts)}, nil
}

func (m txManager) WithTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	return mongotx.Run(tx, fn)
}

type memTx struct {
	s    *Store
	ts   *txState
	ctx  context.Context
	once sync.Once
}

func (t *memTx) Context() context.Context {
	return t.ctx
}

func (t *memTx) Commit() error {
	var err error
	t.once.Do(func() {
		defer func() { <-t.s.txSem }()

		t.s.mu.Lock()
		defer t.s.mu.Unlock()
		t.s.calls[OpTxCommit]++
		if err = t.s.failures[OpTxCommit]; err != nil {
			return
		}
		changed := t.ts.dirty.ids()
		for _, id := range changed {
			if t.s.revs[id] != t.ts.baseRevs[id] {
				err = writeConflict(id)
				return
			}
		}
		t.s.committed.apply(t.ts.dirty)
		for _, id := range changed {
			t.s.revs[id]++
		}
		err = t.s.failures[OpTxCommitAck]
	})
	return err
}

// writeConflict mirrors the server error raised when a record changed under
// an open transaction.
func writeConflict(id primitive.ObjectID) error {
	return mongo.CommandError{
		Code:    112,
		Name:    "WriteConflict",
		Message: "write conflict on " + id.Hex(),
		Labels:  []string{"TransientTransactionError"},
	}
}

func (t *memTx) Abort() error {
	t.once.Do(func() {
		<-t.s.txSem
	})
	return nil
}
