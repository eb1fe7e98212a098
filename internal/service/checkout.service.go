package service

import (
	"context"
	"fmt"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/order"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/repo"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CartStore is the part of the cart the orchestrator needs.
type CartStore interface {
	Items() []domain.CartItem
	Clear()
}

// SessionSource supplies the current shopper, if any.
type SessionSource interface {
	Current() (domain.Session, bool)
}

// CheckoutService turns the cart into a created order and a confirmed payment.
// Failed attempts return a *domain.CheckoutError alongside the Failed state.
type CheckoutService interface {
	Checkout(ctx context.Context, address string) (domain.CheckoutState, error)
	// RetryPayment charges the pending order again without creating a new one.
	RetryPayment(ctx context.Context) (domain.CheckoutState, error)
	// AbandonPending forgets the pending order. Its ledger row stays PENDING
	// until reconciliation learns whether it was paid.
	AbandonPending(ctx context.Context) error
	State() domain.CheckoutState
	Pending() (domain.PendingOrder, bool)
}

type checkoutService struct {
	cart          CartStore
	session       SessionSource
	orders        order.Client
	payments      payment.Client
	attempts      repo.AttemptRepo
	paymentMethod string
	timeout       time.Duration

	mu      sync.Mutex
	state   domain.CheckoutState
	pending *domain.PendingOrder
}

func NewCheckoutService(
	cart CartStore,
	session SessionSource,
	orders order.Client,
	payments payment.Client,
	attempts repo.AttemptRepo,
	paymentMethod string,
	timeout time.Duration,
) CheckoutService {
	if paymentMethod == "" {
		paymentMethod = domain.DefaultPaymentMethod
	}
	return &checkoutService{
		cart:          cart,
		session:       session,
		orders:        orders,
		payments:      payments,
		attempts:      attempts,
		paymentMethod: paymentMethod,
		timeout:       timeout,
		state:         domain.IdleState(),
	}
}

func (s *checkoutService) Checkout(ctx context.Context, address string) (domain.CheckoutState, error) {
	s.mu.Lock()
	if s.state.Phase == domain.PhaseSubmitting {
		st := s.state
		s.mu.Unlock()
		return st, domain.ErrCheckoutInProgress
	}
	s.resetLocked()

	sess, ok := s.session.Current()
	items := s.cart.Items()
	amount := domain.Total(items)
	address = strings.TrimSpace(address)

	if reason := precondition(ok, items, address, amount); reason != nil {
		st, err := s.failLocked(reason, 0, nil)
		s.mu.Unlock()
		return st, err
	}

	pending := s.pending
	reuse := pending != nil &&
		pending.UserID == sess.UserID &&
		pending.ShippingAddress == address &&
		domain.SameLines(pending.Items, items)
	if pending != nil && !reuse {
		s.pending = nil
	}
	next := domain.CheckoutState{Phase: domain.PhaseSubmitting, Amount: amount}
	if reuse {
		next.OrderID = pending.OrderID
		next.Amount = pending.Amount
	}
	s.setLocked(next)
	s.mu.Unlock()

	ctx, cancel := s.detach(ctx)
	defer cancel()

	log := logging.WithFields(ctx, logrus.Fields{"user_id": sess.UserID, "amount": amount.StringFixed(2)})

	if reuse {
		log.WithField("order_id", pending.OrderID).Info("cart unchanged since failed payment, paying existing order")
		return s.pay(ctx, pending)
	}
	if pending != nil {
		log.WithField("order_id", pending.OrderID).Warn("cart or address changed since failed payment, leaving unpaid order to reconciliation")
	}

	req := domain.NewOrderRequest(sess, items, address, amount)
	created, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		log.WithError(err).Warn("order creation failed")
		return s.fail(domain.ErrOrderCreationFailed, 0, err)
	}
	if !created.TotalAmount.IsZero() && !created.TotalAmount.Equal(amount) {
		log.WithFields(logrus.Fields{
			"order_id":      created.OrderID,
			"service_total": created.TotalAmount.StringFixed(2),
		}).Warn("order service total differs from cart total, charging cart total")
	}

	pending = &domain.PendingOrder{
		OrderID:         created.OrderID,
		UserID:          sess.UserID,
		Amount:          amount,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		IdempotencyKey:  uuid.New(),
		AttemptID:       uuid.New(),
	}
	s.mu.Lock()
	s.pending = pending
	s.state.OrderID = created.OrderID
	s.mu.Unlock()

	if err := s.attempts.Create(ctx, domain.NewAttempt(pending)); err != nil {
		log.WithError(err).WithField("order_id", created.OrderID).Error("failed to record checkout attempt")
	}

	return s.pay(ctx, pending)
}

func (s *checkoutService) RetryPayment(ctx context.Context) (domain.CheckoutState, error) {
	s.mu.Lock()
	if s.state.Phase == domain.PhaseSubmitting {
		st := s.state
		s.mu.Unlock()
		return st, domain.ErrCheckoutInProgress
	}
	pending := s.pending
	if pending == nil {
		st := s.state
		s.mu.Unlock()
		return st, domain.ErrNoPendingOrder
	}
	s.resetLocked()
	s.setLocked(domain.CheckoutState{Phase: domain.PhaseSubmitting, OrderID: pending.OrderID, Amount: pending.Amount})
	s.mu.Unlock()

	ctx, cancel := s.detach(ctx)
	defer cancel()

	logging.WithFields(ctx, logrus.Fields{"order_id": pending.OrderID}).Info("retrying payment for pending order")
	return s.pay(ctx, pending)
}

func (s *checkoutService) AbandonPending(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Phase == domain.PhaseSubmitting {
		s.mu.Unlock()
		return domain.ErrCheckoutInProgress
	}
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pending == nil {
		return domain.ErrNoPendingOrder
	}
	logging.WithFields(ctx, logrus.Fields{"order_id": pending.OrderID}).Info("pending order dropped, left to reconciliation")
	return nil
}

func (s *checkoutService) State() domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *checkoutService) Pending() (domain.PendingOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.PendingOrder{}, false
	}
	return *s.pending, true
}

// pay charges p and commits the attempt. The order exists on entry, so every
// failure here leaves p pending. When an earlier charge ended without an
// answer, the payment service is asked first so the order is never charged
// twice.
func (s *checkoutService) pay(ctx context.Context, p *domain.PendingOrder) (domain.CheckoutState, error) {
	log := logging.WithFields(ctx, logrus.Fields{"order_id": p.OrderID, "user_id": p.UserID})

	s.mu.Lock()
	unknown := p.OutcomeUnknown
	s.mu.Unlock()

	if unknown {
		prev, err := s.payments.GetPaymentByOrder(ctx, p.OrderID)
		if err != nil {
			log.WithError(err).Warn("outcome of previous charge still unknown, not charging again")
			return s.failPayment(p, err, true)
		}
		if prev != nil && prev.Approved() {
			log.WithField("transaction_id", prev.TransactionID).Warn("previous charge went through, committing it")
			return s.commit(ctx, p, prev)
		}
	}

	res, err := s.payments.ProcessPayment(ctx, p.PaymentRequest(s.paymentMethod))
	if err != nil {
		log.WithError(err).Warn("payment failed, order left unpaid")
		return s.failPayment(p, err, payment.OutcomeUnknown(err))
	}
	if !res.Approved() {
		log.WithField("payment_status", res.Status).Warn("payment not approved, order left unpaid")
		return s.failPayment(p, fmt.Errorf("payment %s (transaction %q)", res.Status, res.TransactionID), false)
	}
	return s.commit(ctx, p, res)
}

// commit is the single point where the cart is cleared.
func (s *checkoutService) commit(ctx context.Context, p *domain.PendingOrder, res *domain.PaymentResult) (domain.CheckoutState, error) {
	s.mu.Lock()
	s.cart.Clear()
	if s.pending == p {
		s.pending = nil
	}
	s.setLocked(domain.CheckoutState{
		Phase:         domain.PhaseSucceeded,
		OrderID:       p.OrderID,
		TransactionID: res.TransactionID,
		Amount:        p.Amount,
	})
	st := s.state
	s.mu.Unlock()

	s.markAttempt(ctx, p, domain.AttemptPaid, res.TransactionID)
	logging.WithFields(ctx, logrus.Fields{
		"order_id":       p.OrderID,
		"transaction_id": res.TransactionID,
	}).Info("checkout succeeded")
	return st, nil
}

func (s *checkoutService) failPayment(p *domain.PendingOrder, cause error, unknown bool) (domain.CheckoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.OutcomeUnknown = unknown
	return s.failLocked(domain.ErrPaymentFailed, p.OrderID, cause)
}

func (s *checkoutService) fail(reason error, orderID int64, cause error) (domain.CheckoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(reason, orderID, cause)
}

func (s *checkoutService) failLocked(reason error, orderID int64, cause error) (domain.CheckoutState, error) {
	s.setLocked(domain.CheckoutState{
		Phase:   domain.PhaseFailed,
		Reason:  reason,
		OrderID: orderID,
		Amount:  s.state.Amount,
		Err:     cause,
	})
	return s.state, &domain.CheckoutError{Reason: reason, OrderID: orderID, Err: cause}
}

// resetLocked starts a new attempt from a finished one.
func (s *checkoutService) resetLocked() {
	if s.state.Phase.IsTerminal() {
		s.setLocked(domain.IdleState())
	}
}

// setLocked moves the attempt to next. A phase change the checkout state
// machine does not allow is a bug in this file.
func (s *checkoutService) setLocked(next domain.CheckoutState) {
	if next.Phase != s.state.Phase && !domain.CanTransitionTo(s.state.Phase, next.Phase) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", s.state.Phase, next.Phase))
	}
	s.state = next
}

// detach keeps the values of ctx, such as the request id, and drops its
// cancellation and deadline: once an order is issued the attempt runs to a
// recorded outcome. s.timeout bounds it instead.
func (s *checkoutService) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func (s *checkoutService) markAttempt(ctx context.Context, p *domain.PendingOrder, status domain.AttemptStatus, txID string) {
	if err := s.attempts.UpdateStatus(ctx, p.AttemptID, status, txID); err != nil {
		logging.WithFields(ctx, logrus.Fields{
			"order_id": p.OrderID,
			"status":   status,
		}).WithError(err).Error("failed to update checkout attempt")
	}
}

// precondition returns the first local reason the attempt cannot start.
func precondition(authenticated bool, items []domain.CartItem, address string, amount decimal.Decimal) error {
	switch {
	case !authenticated:
		return domain.ErrNotAuthenticated
	case len(items) == 0:
		return domain.ErrEmptyCart
	case strings.TrimSpace(address) == "":
		return domain.ErrMissingAddress
	case !amount.IsPositive():
		return domain.ErrInvalidAmount
	}
	return nil
}
