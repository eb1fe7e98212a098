package worker

import (
	"context"
	"errors"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/repo"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	payments map[int64]*domain.PaymentResult
	errs     map[int64]error
	// onLookup runs before GetPaymentByOrder answers.
	onLookup func(orderID int64)
}

func (g *fakeGateway) ProcessPayment(context.Context, domain.PaymentRequest) (*domain.PaymentResult, error) {
	return nil, errors.New("not used")
}

func (g *fakeGateway) GetPaymentByOrder(_ context.Context, orderID int64) (*domain.PaymentResult, error) {
	if g.onLookup != nil {
		g.onLookup(orderID)
	}
	if err := g.errs[orderID]; err != nil {
		return nil, err
	}
	return g.payments[orderID], nil
}

func stuckAttempt(t *testing.T, r repo.AttemptRepo, orderID int64) *domain.Attempt {
	t.Helper()
	a := domain.NewAttempt(&domain.PendingOrder{
		OrderID:        orderID,
		UserID:         7,
		Amount:         decimal.NewFromInt(50),
		IdempotencyKey: uuid.New(),
		AttemptID:      uuid.New(),
	})
	a.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, r.Create(context.Background(), a))
	return a
}

func TestRunOnce(t *testing.T) {
	attempts := repo.NewMemoryAttemptRepo()
	stuckAttempt(t, attempts, 500)
	stuckAttempt(t, attempts, 501)
	stuckAttempt(t, attempts, 502)
	stuckAttempt(t, attempts, 503)

	gateway := &fakeGateway{
		payments: map[int64]*domain.PaymentResult{
			500: {TransactionID: "tx-phantom", Status: domain.PaymentApproved},
			502: {TransactionID: "tx-declined", Status: domain.PaymentDeclined},
		},
		errs: map[int64]error{503: errors.New("payment service down")},
	}
	w := NewReconciliationWorker(attempts, gateway, time.Second, time.Minute)

	report, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{Paid: 1, Abandoned: 2, Skipped: 1}, report)

	paid, _ := attempts.FindByOrderID(context.Background(), 500)
	assert.Equal(t, domain.AttemptPaid, paid.Status)
	assert.Equal(t, "tx-phantom", paid.TransactionID)

	unpaid, _ := attempts.FindByOrderID(context.Background(), 501)
	assert.Equal(t, domain.AttemptAbandoned, unpaid.Status)

	declined, _ := attempts.FindByOrderID(context.Background(), 502)
	assert.Equal(t, domain.AttemptAbandoned, declined.Status)

	skipped, _ := attempts.FindByOrderID(context.Background(), 503)
	assert.Equal(t, domain.AttemptPending, skipped.Status)
}

func TestRunOnce_IgnoresFreshAttempts(t *testing.T) {
	attempts := repo.NewMemoryAttemptRepo()
	a := stuckAttempt(t, attempts, 500)
	require.NoError(t, attempts.UpdateStatus(context.Background(), a.ID, domain.AttemptPending, ""))

	w := NewReconciliationWorker(attempts, &fakeGateway{}, time.Second, time.Minute)
	report, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

func TestRun_StopsOnCancel(t *testing.T) {
	attempts := repo.NewMemoryAttemptRepo()
	stuckAttempt(t, attempts, 500)
	w := NewReconciliationWorker(attempts, &fakeGateway{}, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		a, _ := attempts.FindByOrderID(context.Background(), 500)
		return a.Status == domain.AttemptAbandoned
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunOnce_DoesNotOverwriteAttemptPaidDuringPass(t *testing.T) {
	attempts := repo.NewMemoryAttemptRepo()
	a := stuckAttempt(t, attempts, 500)

	gateway := &fakeGateway{
		// Checkout's retry succeeds between the worker's read and its write.
		onLookup: func(int64) {
			require.NoError(t, attempts.UpdateStatus(context.Background(), a.ID, domain.AttemptPaid, "tx-retry"))
		},
	}
	w := NewReconciliationWorker(attempts, gateway, time.Second, time.Minute)

	report, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{Skipped: 1}, report)
	found, _ := attempts.FindByOrderID(context.Background(), 500)
	assert.Equal(t, domain.AttemptPaid, found.Status)
	assert.Equal(t, "tx-retry", found.TransactionID)
}
