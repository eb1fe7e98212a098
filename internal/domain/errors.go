package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrMissingAddress      = errors.New("shipping address is required")
	ErrInvalidAmount       = errors.New("order total must be greater than zero")
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
	ErrNoPendingOrder      = errors.New("no pending order to pay")
	ErrInvalidItem         = errors.New("invalid cart item")
)

// CheckoutError is returned for every failed attempt. OrderID is set when the
// order was created before the failure.
type CheckoutError struct {
	Reason  error
	OrderID int64
	Err     error
}

func (e *CheckoutError) Error() string {
	msg := e.Reason.Error()
	if e.OrderID != 0 {
		msg = fmt.Sprintf("%s (order %d)", msg, e.OrderID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CheckoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}
