package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "approved"
	PaymentDeclined PaymentStatus = "declined"
	PaymentError    PaymentStatus = "error"
)

const DefaultPaymentMethod = "stripe"

type PaymentRequest struct {
	OrderID        int64
	UserID         int64
	Amount         decimal.Decimal
	Method         string
	IdempotencyKey uuid.UUID
}

type PaymentResult struct {
	TransactionID string
	Status        PaymentStatus
}

func (r PaymentResult) Approved() bool {
	return r.Status == PaymentApproved
}
