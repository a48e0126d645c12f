package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrBegin is wrapped around failures to open a transaction.
var ErrBegin = errors.New("failed to begin transaction")

// TransactionFunc runs inside an open transaction. Every store call made with
// txCtx joins the transaction.
type TransactionFunc func(txCtx context.Context) error

// Tx is a single open transaction. Exactly one of Commit or Abort takes effect;
// calls after the first are no-ops.
type Tx interface {
	Context() context.Context
	Commit() error
	Abort() error
}

type TransactionManager interface {
	Begin(ctx context.Context) (Tx, error)
	// WithTransaction begins a transaction, runs fn and commits. Any error from fn,
	// a panic, or a failed commit aborts the transaction before returning.
	WithTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

func (m *mongoTransactionManager) Begin(ctx context.Context) (Tx, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBegin, err)
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, fmt.Errorf("%w: %v", ErrBegin, err)
	}
	return &mongoTx{
		session: session,
		ctx:     mongo.NewSessionContext(ctx, session),
	}, nil
}

func (m *mongoTransactionManager) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	return Run(tx, fn)
}

// Run executes fn against an already open tx and resolves it.
func Run(tx Tx, fn TransactionFunc) (err error) {
	committed := false
	defer func() {
		if committed {
			return
		}
		if abortErr := tx.Abort(); abortErr != nil && err == nil {
			err = fmt.Errorf("failed to abort transaction: %w", abortErr)
		}
	}()

	if err = fn(tx.Context()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

type mongoTx struct {
	mu      sync.Mutex
	session mongo.Session
	ctx     mongo.SessionContext
	done    bool
}

func (t *mongoTx) Context() context.Context {
	return t.ctx
}

func (t *mongoTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	err := t.session.CommitTransaction(t.ctx)
	// ending the session aborts the transaction if the commit did not land
	t.session.EndSession(context.WithoutCancel(t.ctx))
	return err
}

func (t *mongoTx) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	err := t.session.AbortTransaction(context.WithoutCancel(t.ctx))
	t.session.EndSession(context.WithoutCancel(t.ctx))
	return err
}

// IsWriteConflict reports whether err is a transient transaction error, which
// Mongo raises when two transactions touch the same document.
func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)
	}
	return false
}

// InTransaction reports whether ctx carries a session.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}
