package service

import (
	"context"
	"storefront-checkout/internal/cart"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/repo"
	"storefront-checkout/internal/session"
	"sync"
	"time"
)

// MockOrderClient implements order.Client for testing
type MockOrderClient struct {
	mu       sync.Mutex
	Result   *domain.OrderResult
	Err      error
	Orders   []domain.Order
	Requests []domain.OrderRequest
	// Hook runs inside CreateOrder before it returns.
	Hook func()
}

func (m *MockOrderClient) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	res := *m.Result
	return &res, nil
}

func (m *MockOrderClient) GetUserOrders(_ context.Context, _ int64) ([]domain.Order, error) {
	return m.Orders, m.Err
}

func (m *MockOrderClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockPaymentClient implements payment.Client for testing. Like the real
// payment service it ignores the idempotency key: every ProcessPayment call
// is a new charge.
type MockPaymentClient struct {
	mu        sync.Mutex
	Result    *domain.PaymentResult
	Err       error
	Requests  []domain.PaymentRequest
	// CtxErrs and Deadlines record the ctx each ProcessPayment call received.
	CtxErrs   []error
	Deadlines []time.Time
	// ByOrder answers GetPaymentByOrder.
	ByOrder   map[int64]*domain.PaymentResult
	LookupErr error
	Lookups   int
}

func (m *MockPaymentClient) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	m.CtxErrs = append(m.CtxErrs, ctx.Err())
	deadline, _ := ctx.Deadline()
	m.Deadlines = append(m.Deadlines, deadline)
	if m.Err != nil {
		return nil, m.Err
	}
	res := *m.Result
	return &res, nil
}

func (m *MockPaymentClient) GetPaymentByOrder(_ context.Context, orderID int64) (*domain.PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	return m.ByOrder[orderID], nil
}

func (m *MockPaymentClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *MockPaymentClient) Respond(res *domain.PaymentResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Result = res
	m.Err = err
}

type fixture struct {
	cart     *cart.Store
	session  *session.Context
	orders   *MockOrderClient
	payments *MockPaymentClient
	attempts *repo.MemoryAttemptRepo
	svc      CheckoutService
}

func newFixture() *fixture {
	f := &fixture{
		cart:     cart.NewStore(),
		session:  session.NewContext(),
		orders:   &MockOrderClient{Result: &domain.OrderResult{OrderID: 500, Status: domain.OrderPending}},
		payments: &MockPaymentClient{Result: &domain.PaymentResult{TransactionID: "tx1", Status: domain.PaymentApproved}},
		attempts: repo.NewMemoryAttemptRepo(),
	}
	f.svc = NewCheckoutService(f.cart, f.session, f.orders, f.payments, f.attempts, "", time.Minute)
	return f
}
