package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutPhase string

const (
	PhaseIdle       CheckoutPhase = "IDLE"
	PhaseSubmitting CheckoutPhase = "SUBMITTING"
	PhaseSucceeded  CheckoutPhase = "SUCCEEDED"
	PhaseFailed     CheckoutPhase = "FAILED"
)

func (p CheckoutPhase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

func (p CheckoutPhase) String() string {
	return string(p)
}

var transitions = map[CheckoutPhase][]CheckoutPhase{
	PhaseIdle:       {PhaseSubmitting, PhaseFailed},
	PhaseSubmitting: {PhaseSucceeded, PhaseFailed},
	PhaseSucceeded:  {PhaseIdle},
	PhaseFailed:     {PhaseIdle},
}

// CanTransitionTo reports whether the checkout state machine allows from -> to.
// Terminal phases only go back to Idle when a new attempt starts.
func CanTransitionTo(from, to CheckoutPhase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckoutState is the value reported to the shopper for the current attempt.
type CheckoutState struct {
	Phase CheckoutPhase
	// Reason is one of the Err* sentinels when Phase is Failed.
	Reason        error
	OrderID       int64
	TransactionID string
	Amount        decimal.Decimal
	// Err is the underlying cause of a failure, if any.
	Err error
}

func IdleState() CheckoutState {
	return CheckoutState{Phase: PhaseIdle}
}

// Failed reports whether the state is Failed with the given reason.
func (s CheckoutState) Failed(reason error) bool {
	return s.Phase == PhaseFailed && s.Reason == reason
}

// PendingOrder is an order that exists on the order service but has not been paid.
type PendingOrder struct {
	OrderID         int64
	UserID          int64
	Amount          decimal.Decimal
	Items           []CartItem
	ShippingAddress string
	IdempotencyKey  uuid.UUID
	AttemptID       uuid.UUID
	// OutcomeUnknown is set when the last charge failed without a definite
	// answer, so the service may have taken the money.
	OutcomeUnknown bool
}

func (p *PendingOrder) PaymentRequest(method string) PaymentRequest {
	return PaymentRequest{
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		Method:         method,
		IdempotencyKey: p.IdempotencyKey,
	}
}
