package cart

import (
	"storefront-checkout/internal/domain"
	"sync"

	"github.com/shopspring/decimal"
)

// Store holds the shopper's cart lines in insertion order.
// Adding the same product twice yields two lines.
type Store struct {
	mu    sync.RWMutex
	items []domain.CartItem
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Add(item domain.CartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return nil
}

// Remove drops every line for productID.
func (s *Store) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	clear(s.items[len(kept):])
	s.items = kept
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Items returns a copy of the current lines.
func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Total(s.items)
}
