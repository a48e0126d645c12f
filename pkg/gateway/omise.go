package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"petrent/pkg/logger"
	"petrent/pkg/model"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/shopspring/decimal"
)

const chargeSuccessful = "successful"

// Processor is the subset of the Omise API the gateway calls.
type Processor interface {
	CreateCustomer(email, card string) (*omise.Customer, error)
	CreateCharge(amount int64, currency, customerID, cardID string) (*omise.Charge, error)
	RetrieveCharge(chargeID string) (*omise.Charge, error)
	CreateRefund(chargeID string, amount int64) (*omise.Refund, error)
}

// NewOmiseClient builds an API client. Keys must carry the pkey_/skey_ prefixes.
func NewOmiseClient(publicKey, secretKey string) (*omise.Client, error) {
	return omise.NewClient(publicKey, secretKey)
}

type omiseProcessor struct {
	client *omise.Client
}

func NewOmiseProcessor(client *omise.Client) Processor {
	return &omiseProcessor{client: client}
}

func (p *omiseProcessor) CreateCustomer(email, card string) (*omise.Customer, error) {
	customer := &omise.Customer{}
	err := p.client.Do(customer, &operations.CreateCustomer{
		Email: email,
		Card:  card,
	})
	return customer, err
}

func (p *omiseProcessor) CreateCharge(amount int64, currency, customerID, cardID string) (*omise.Charge, error) {
	ch := &omise.Charge{}
	err := p.client.Do(ch, &operations.CreateCharge{
		Amount:   amount,
		Currency: currency,
		Customer: customerID,
		Card:     cardID,
	})
	return ch, err
}

func (p *omiseProcessor) RetrieveCharge(chargeID string) (*omise.Charge, error) {
	ch := &omise.Charge{}
	err := p.client.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID})
	return ch, err
}

func (p *omiseProcessor) CreateRefund(chargeID string, amount int64) (*omise.Refund, error) {
	refund := &omise.Refund{}
	err := p.client.Do(refund, &operations.CreateRefund{
		ChargeID: chargeID,
		Amount:   amount,
	})
	return refund, err
}

type Config struct {
	Currency     string
	Timeout      time.Duration
	RefundPolicy RetryPolicy
}

type OmiseGateway struct {
	processor Processor
	cfg       Config
	log       *logger.Logger
}

func NewOmiseGateway(processor Processor, cfg Config, log *logger.Logger) *OmiseGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &OmiseGateway{
		processor: processor,
		cfg:       cfg,
		log:       log,
	}
}

func (g *OmiseGateway) TokenizeCustomer(ctx context.Context, email, paymentMethodToken string) (*model.CustomerToken, error) {
	customer, err := call(ctx, g.cfg.Timeout, func() (*omise.Customer, error) {
		return g.processor.CreateCustomer(email, paymentMethodToken)
	})
	if err != nil {
		return nil, newGatewayError(OpTokenize, err)
	}
	if customer.DefaultCard == "" {
		return nil, &GatewayError{Op: OpTokenize, Message: "customer has no default card", Err: ErrMissingSource}
	}

	return &model.CustomerToken{
		CustomerID: customer.ID,
		SourceID:   customer.DefaultCard,
	}, nil
}

func (g *OmiseGateway) Charge(ctx context.Context, amount decimal.Decimal, customerID, sourceID string) (*model.ChargeRecord, error) {
	if customerID == "" || sourceID == "" {
		return nil, &GatewayError{Op: OpCharge, Message: "customer and source are required", Err: ErrMissingSource}
	}
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, &GatewayError{Op: OpCharge, Message: err.Error(), Err: err}
	}

	ch, err := call(ctx, g.cfg.Timeout, func() (*omise.Charge, error) {
		return g.processor.CreateCharge(minor, g.cfg.Currency, customerID, sourceID)
	})
	if err != nil {
		return nil, newGatewayError(OpCharge, err)
	}

	if string(ch.Status) != chargeSuccessful {
		gwErr := &GatewayError{Op: OpCharge, Code: string(ch.Status), Message: "charge was not completed", Err: ErrDeclined}
		if ch.FailureCode != nil {
			gwErr.Code = *ch.FailureCode
		}
		if ch.FailureMessage != nil {
			gwErr.Message = *ch.FailureMessage
		}
		return nil, gwErr
	}

	return &model.ChargeRecord{
		ID:        ch.ID,
		Amount:    ch.Amount,
		Currency:  ch.Currency,
		Status:    string(ch.Status),
		CreatedAt: ch.Created,
	}, nil
}

func (g *OmiseGateway) Refund(ctx context.Context, chargeID string) (*model.RefundRecord, error) {
	if chargeID == "" {
		return nil, &GatewayError{Op: OpRefund, Message: "charge id is required", Err: ErrInvalidAmount}
	}

	var (
		amount int64
		refund *omise.Refund
	)
	attempts, err := g.cfg.RefundPolicy.Do(ctx, func() error {
		if amount == 0 {
			ch, err := call(ctx, g.cfg.Timeout, func() (*omise.Charge, error) {
				return g.processor.RetrieveCharge(chargeID)
			})
			if err != nil {
				return classify(err)
			}
			amount = ch.Amount
		}
		r, err := call(ctx, g.cfg.Timeout, func() (*omise.Refund, error) {
			return g.processor.CreateRefund(chargeID, amount)
		})
		if err != nil {
			return classify(err)
		}
		refund = r
		return nil
	}, func(err error, attempt int) {
		g.log.Warn("Refund attempt failed",
			"charge_id", chargeID,
			"attempt", attempt,
			"max_attempts", g.cfg.RefundPolicy.MaxAttempts,
			"error", err,
		)
	})
	if err != nil {
		gwErr := newGatewayError(OpRefund, err)
		gwErr.Attempts = attempts
		return nil, gwErr
	}

	return &model.RefundRecord{
		ID:        refund.ID,
		ChargeID:  chargeID,
		Amount:    refund.Amount,
		CreatedAt: refund.Created,
	}, nil
}

type result[T any] struct {
	value T
	err   error
}

// call bounds a blocking SDK call by timeout. On deadline the SDK call is left
// to finish in the background and its result is dropped.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn()
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// classify stops retries for client errors the processor will keep rejecting.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var omiseErr *omise.Error
	if errors.As(err, &omiseErr) &&
		omiseErr.StatusCode >= http.StatusBadRequest &&
		omiseErr.StatusCode < http.StatusInternalServerError &&
		omiseErr.StatusCode != http.StatusTooManyRequests {
		return Permanent(err)
	}
	return err
}

func newGatewayError(op string, err error) *GatewayError {
	gwErr := &GatewayError{Op: op, Attempts: 1, Err: err}
	var omiseErr *omise.Error
	if errors.As(err, &omiseErr) {
		gwErr.Code = omiseErr.Code
		gwErr.Message = omiseErr.Message
	}
	if errors.Is(err, ErrTimeout) {
		gwErr.Code = "timeout"
	}
	return gwErr
}
