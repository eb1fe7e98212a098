package worker

import (
	"context"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/repo"
	"time"

	"github.com/sirupsen/logrus"
)

// ReconciliationWorker settles checkout attempts whose order exists but whose
// payment outcome the client never learned.
type ReconciliationWorker struct {
	attempts   repo.AttemptRepo
	gateway    payment.Client
	interval   time.Duration
	stuckAfter time.Duration
}

// Report counts what one pass did.
type Report struct {
	Paid      int
	Abandoned int
	Skipped   int
}

func NewReconciliationWorker(
	attempts repo.AttemptRepo,
	gateway payment.Client,
	interval time.Duration,
	stuckAfter time.Duration,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		attempts:   attempts,
		gateway:    gateway,
		interval:   interval,
		stuckAfter: stuckAfter,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	logging.Infof(ctx, "reconciliation worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rw.RunOnce(ctx); err != nil {
				logging.Errorf(ctx, "reconciliation failed: %v", err)
			}
		}
	}
}

// RunOnce resolves every stuck attempt once. The payment service is the
// source of truth: an approved payment means the order was paid even if
// checkout reported a failure.
func (rw *ReconciliationWorker) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	stuck, err := rw.attempts.FindStuck(ctx, rw.stuckAfter)
	if err != nil {
		return report, err
	}
	if len(stuck) == 0 {
		return report, nil
	}

	logging.Infof(ctx, "found %d stuck checkout attempts", len(stuck))

	for _, a := range stuck {
		log := logging.WithFields(ctx, logrus.Fields{"order_id": a.OrderID, "attempt_id": a.ID})

		res, err := rw.gateway.GetPaymentByOrder(ctx, a.OrderID)
		if err != nil {
			log.WithError(err).Warn("payment lookup failed, retrying next pass")
			report.Skipped++
			continue
		}

		status, txID := domain.AttemptAbandoned, ""
		if res != nil && res.Approved() {
			status, txID = domain.AttemptPaid, res.TransactionID
		}

		settled, err := rw.attempts.SettlePending(ctx, a.ID, status, txID)
		if err != nil {
			log.WithError(err).Error("failed to update attempt")
			report.Skipped++
			continue
		}
		if !settled {
			log.Info("attempt settled by checkout during the pass")
			report.Skipped++
			continue
		}

		if status == domain.AttemptPaid {
			log.WithField("transaction_id", txID).Warn("phantom charge: order was paid, marking PAID")
			report.Paid++
		} else {
			log.Info("order never paid, marking ABANDONED")
			report.Abandoned++
		}
	}
	return report, nil
}
