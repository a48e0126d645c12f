package errors

import "errors"

var (
	ErrNotPending = errors.New("payment is not pending")

	ErrNotPaymentOwner = errors.New("not authorized to settle this payment")

	ErrConcurrentUpdate = errors.New("payment was modified concurrently, please retry")
)
