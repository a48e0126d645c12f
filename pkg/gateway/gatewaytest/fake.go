// Package gatewaytest provides an in-memory Gateway that records every call.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"petrent/pkg/gateway"
	"petrent/pkg/model"

	"github.com/shopspring/decimal"
)

type Fake struct {
	mu sync.Mutex

	TokenizeErr error
	ChargeErr   error
	RefundErr   error

	TokenizeCalls int
	ChargeCalls   int
	RefundCalls   int
	Charged       []string
	Refunded      []string

	seq int
}

func New() *Fake {
	return &Fake{}
}

func (f *Fake) TokenizeCustomer(_ context.Context, email, token string) (*model.CustomerToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TokenizeCalls++
	if f.TokenizeErr != nil {
		return nil, f.TokenizeErr
	}
	f.seq++
	return &model.CustomerToken{
		CustomerID: fmt.Sprintf("cust_%d", f.seq),
		SourceID:   fmt.Sprintf("card_%d", f.seq),
	}, nil
}

func (f *Fake) Charge(_ context.Context, amount decimal.Decimal, customerID, sourceID string) (*model.ChargeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChargeCalls++
	if f.ChargeErr != nil {
		return nil, f.ChargeErr
	}
	minor, err := gateway.ToMinorUnits(amount)
	if err != nil {
		return nil, &gateway.GatewayError{Op: gateway.OpCharge, Err: err}
	}
	f.seq++
	id := fmt.Sprintf("chrg_%d", f.seq)
	f.Charged = append(f.Charged, id)
	return &model.ChargeRecord{
		ID:        id,
		Amount:    minor,
		Currency:  "usd",
		Status:    "successful",
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *Fake) Refund(_ context.Context, chargeID string) (*model.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RefundCalls++
	if f.RefundErr != nil {
		return nil, f.RefundErr
	}
	f.seq++
	f.Refunded = append(f.Refunded, chargeID)
	return &model.RefundRecord{
		ID:        fmt.Sprintf("rfnd_%d", f.seq),
		ChargeID:  chargeID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Calls returns the charge and refund counts under the lock.
func (f *Fake) Calls() (charges, refunds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ChargeCalls, f.RefundCalls
}

var _ gateway.Gateway = (*Fake)(nil)
