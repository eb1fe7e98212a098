package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/remote"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is what the simulated gateway does with a new charge.
type Outcome int

const (
	OutcomeApprove Outcome = iota
	OutcomeDecline
	// OutcomePhantom takes the money but reports a timeout to the caller.
	OutcomePhantom
)

// Decider picks the outcome of a new charge.
type Decider func() Outcome

// RandomDecider approves 70%, declines 20% and phantom-charges 10% of calls.
func RandomDecider() Outcome {
	chance := rand.IntN(100)
	switch {
	case chance < 70:
		return OutcomeApprove
	case chance < 90:
		return OutcomeDecline
	default:
		return OutcomePhantom
	}
}

// Fixed always returns o.
func Fixed(o Outcome) Decider {
	return func() Outcome { return o }
}

type charge struct {
	orderID int64
	result  domain.PaymentResult
}

// SimulatedGateway is an in-process payment service. Charges are keyed by
// idempotency key, so repeating a request returns the first result.
type SimulatedGateway struct {
	mu      sync.RWMutex
	charges map[uuid.UUID]charge
	byOrder map[int64]uuid.UUID
	decide  Decider
	latency time.Duration
}

func NewSimulatedGateway(decide Decider, latency time.Duration) *SimulatedGateway {
	if decide == nil {
		decide = RandomDecider
	}
	return &SimulatedGateway{
		charges: make(map[uuid.UUID]charge),
		byOrder: make(map[int64]uuid.UUID),
		decide:  decide,
		latency: latency,
	}
}

func (g *SimulatedGateway) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	const op = "payment.ProcessPayment"

	if fields := missingFields(req); len(fields) > 0 {
		return nil, remote.ValidationError(op, fields...)
	}

	g.mu.RLock()
	prev, exists := g.charges[req.IdempotencyKey]
	g.mu.RUnlock()
	if exists {
		res := prev.result
		return &res, nil
	}

	outcome := g.decide()
	if err := g.wait(ctx, outcome); err != nil {
		return nil, remote.NetworkError(op, err)
	}

	switch outcome {
	case OutcomeApprove:
		res := g.store(req, domain.PaymentApproved)
		return &res, nil
	case OutcomeDecline:
		// A declined card does not settle the key; the shopper may try again.
		return &domain.PaymentResult{TransactionID: uuid.NewString(), Status: domain.PaymentDeclined}, nil
	default:
		g.store(req, domain.PaymentApproved)
		return nil, remote.NetworkError(op, fmt.Errorf("connection timeout"))
	}
}

func (g *SimulatedGateway) GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.PaymentResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	key, ok := g.byOrder[orderID]
	if !ok {
		return nil, nil
	}
	res := g.charges[key].result
	return &res, nil
}

// Charged reports how many distinct charges took money.
func (g *SimulatedGateway) Charged() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.charges)
}

func (g *SimulatedGateway) store(req domain.PaymentRequest, status domain.PaymentStatus) domain.PaymentResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	res := domain.PaymentResult{TransactionID: uuid.NewString(), Status: status}
	g.charges[req.IdempotencyKey] = charge{orderID: req.OrderID, result: res}
	g.byOrder[req.OrderID] = req.IdempotencyKey
	return res
}

func (g *SimulatedGateway) wait(ctx context.Context, outcome Outcome) error {
	d := g.latency
	if outcome == OutcomePhantom {
		d *= 20
	}
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

var _ Client = (*SimulatedGateway)(nil)
