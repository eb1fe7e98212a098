package service

import (
	"context"
	"fmt"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/order"
)

type HistoryService interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type historyService struct {
	session SessionSource
	orders  order.Client
}

func NewHistoryService(session SessionSource, orders order.Client) HistoryService {
	return &historyService{session: session, orders: orders}
}

// ListOrders returns the orders of the current shopper.
func (s *historyService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	sess, ok := s.session.Current()
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	orders, err := s.orders.GetUserOrders(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", sess.UserID, err)
	}
	return orders, nil
}
