package repo

import (
	"context"
	"fmt"
	"sort"
	"storefront-checkout/internal/domain"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAttemptRepo keeps the ledger in process memory. Used when no
// database is configured.
type MemoryAttemptRepo struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]domain.Attempt
	now      func() time.Time
}

func NewMemoryAttemptRepo() *MemoryAttemptRepo {
	return &MemoryAttemptRepo{
		attempts: make(map[uuid.UUID]domain.Attempt),
		now:      time.Now,
	}
}

func (r *MemoryAttemptRepo) Create(_ context.Context, a *domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[a.ID]; exists {
		return fmt.Errorf("attempt %s already exists", a.ID)
	}
	for _, existing := range r.attempts {
		if existing.OrderID == a.OrderID {
			return fmt.Errorf("attempt for order %d already exists", a.OrderID)
		}
	}
	r.attempts[a.ID] = *a
	return nil
}

func (r *MemoryAttemptRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.AttemptStatus, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[id]
	if !ok {
		return ErrAttemptNotFound
	}
	a.Status = status
	if transactionID != "" {
		a.TransactionID = transactionID
	}
	a.UpdatedAt = r.now()
	r.attempts[id] = a
	return nil
}

func (r *MemoryAttemptRepo) SettlePending(_ context.Context, id uuid.UUID, status domain.AttemptStatus, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[id]
	if !ok || a.Status != domain.AttemptPending {
		return false, nil
	}
	a.Status = status
	if transactionID != "" {
		a.TransactionID = transactionID
	}
	a.UpdatedAt = r.now()
	r.attempts[id] = a
	return true, nil
}

func (r *MemoryAttemptRepo) FindByOrderID(_ context.Context, orderID int64) (*domain.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.attempts {
		if a.OrderID == orderID {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *MemoryAttemptRepo) FindStuck(_ context.Context, olderThan time.Duration) ([]domain.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-olderThan)
	var out []domain.Attempt
	for _, a := range r.attempts {
		if a.Status == domain.AttemptPending && a.UpdatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ AttemptRepo = (*MemoryAttemptRepo)(nil)
