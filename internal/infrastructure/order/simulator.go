package order

import (
	"context"
	"math/rand/v2"
	"net/http"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/remote"
	"sync"
	"time"
)

// Simulator is an in-process order service. FailureRate is the share of
// CreateOrder calls, in percent, that fail before an order is stored.
type Simulator struct {
	mu          sync.Mutex
	nextID      int64
	orders      map[int64][]domain.Order
	FailureRate int
	Latency     time.Duration
}

func NewSimulator(failureRate int) *Simulator {
	return &Simulator{
		nextID:      500,
		orders:      make(map[int64][]domain.Order),
		FailureRate: failureRate,
	}
}

func (s *Simulator) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	const op = "order.CreateOrder"

	if fields := missingFields(req); len(fields) > 0 {
		return nil, remote.ValidationError(op, fields...)
	}
	if err := s.wait(ctx); err != nil {
		return nil, remote.NetworkError(op, err)
	}
	if rand.IntN(100) < s.FailureRate {
		return nil, remote.ServerError(op, http.StatusServiceUnavailable, "order service unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	order := domain.Order{
		ID:              id,
		UserID:          req.UserID,
		TotalAmount:     req.Total,
		Status:          domain.OrderPending,
		Items:           make([]domain.OrderItem, 0, len(req.Items)),
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       time.Now(),
	}
	for _, line := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	s.orders[req.UserID] = append(s.orders[req.UserID], order)

	return &domain.OrderResult{OrderID: id, Status: order.Status, TotalAmount: order.TotalAmount}, nil
}

func (s *Simulator) GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	if err := s.wait(ctx); err != nil {
		return nil, remote.NetworkError("order.GetUserOrders", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, len(s.orders[userID]))
	copy(out, s.orders[userID])
	return out, nil
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.Latency):
		return nil
	}
}

var _ Client = (*Simulator)(nil)
