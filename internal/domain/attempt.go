package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "PENDING"
	AttemptPaid      AttemptStatus = "PAID"
	AttemptAbandoned AttemptStatus = "ABANDONED"
)

// Attempt is the ledger row for an order created by checkout.
type Attempt struct {
	ID             uuid.UUID
	OrderID        int64
	UserID         int64
	Amount         decimal.Decimal
	IdempotencyKey uuid.UUID
	Status         AttemptStatus
	TransactionID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewAttempt(p *PendingOrder) *Attempt {
	now := time.Now()
	return &Attempt{
		ID:             p.AttemptID,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		IdempotencyKey: p.IdempotencyKey,
		Status:         AttemptPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
