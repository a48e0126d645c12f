// Package gateway adapts the external card processor to the three operations
// the booking flow needs: tokenize a payment method, charge, and refund.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"petrent/pkg/model"

	"github.com/shopspring/decimal"
)

type Gateway interface {
	TokenizeCustomer(ctx context.Context, email, paymentMethodToken string) (*model.CustomerToken, error)
	// Charge takes a decimal dollar amount and bills it in minor units.
	Charge(ctx context.Context, amount decimal.Decimal, customerID, sourceID string) (*model.ChargeRecord, error)
	// Refund fully refunds chargeID, retrying per the configured policy.
	Refund(ctx context.Context, chargeID string) (*model.RefundRecord, error)
}

const (
	OpTokenize = "tokenize"
	OpCharge   = "charge"
	OpRefund   = "refund"
)

var (
	ErrDeclined      = errors.New("declined by processor")
	ErrMissingSource = errors.New("no payment source on customer")
	ErrTimeout       = errors.New("processor call timed out")
	ErrInvalidAmount = errors.New("invalid amount")
)

// GatewayError is the normalized failure for every gateway operation.
type GatewayError struct {
	Op       string
	Code     string
	Message  string
	Attempts int
	Err      error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("gateway %s failed", e.Op)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
