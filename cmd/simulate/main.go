package main

import (
	"context"
	"flag"
	"fmt"
	"storefront-checkout/internal/cart"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/database"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/order"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/repo"
	"storefront-checkout/internal/service"
	"storefront-checkout/internal/session"
	"storefront-checkout/internal/worker"
	"time"

	"github.com/shopspring/decimal"
)

func main() {
	runs := flag.Int("n", 20, "number of checkouts to simulate")
	orderFailures := flag.Int("order-failure-rate", 10, "percent of order creations that fail")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logging.Logger().Fatal(err)
	}
	logging.Configure(cfg.LogLevel, nil)

	var attempts repo.AttemptRepo = repo.NewMemoryAttemptRepo()
	if cfg.DB.Enabled() {
		db, err := database.NewPostgres(ctx, cfg.DB)
		if err != nil {
			logging.Logger().Fatal(err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			logging.Logger().Fatal(err)
		}
		attempts = repo.NewAttemptRepo(db)
	}

	store := cart.NewStore()
	sess := session.NewContext()
	sess.Set(domain.Session{UserID: 7, DisplayName: "simulator"})
	orders := order.NewSimulator(*orderFailures)
	gateway := payment.NewSimulatedGateway(payment.RandomDecider, 100*time.Millisecond)
	checkout := service.NewCheckoutService(store, sess, orders, gateway, attempts, cfg.PaymentMethod, cfg.CheckoutTimeout)

	fmt.Printf("--- STARTING SIMULATION (%d CHECKOUTS) ---\n", *runs)
	for i := 0; i < *runs; i++ {
		store.Clear()
		_ = store.Add(domain.CartItem{
			ProductID: int64(i%5 + 1),
			Name:      fmt.Sprintf("product-%d", i%5+1),
			UnitPrice: decimal.New(int64(1000+i*137), -2),
			Quantity:  i%3 + 1,
		})

		fmt.Printf("[%d] Checking out %s ... ", i+1, store.Total().StringFixed(2))
		st, err := checkout.Checkout(ctx, "1 Main St")
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			fmt.Printf("SUCCESS order=%d tx=%s\n", st.OrderID, st.TransactionID)
		}

		// An unpaid order is left for reconciliation instead of being retried.
		if p, ok := checkout.Pending(); ok {
			if err := checkout.AbandonPending(ctx); err == nil {
				fmt.Printf("    -> order %d left unpaid for reconciliation\n", p.OrderID)
			}
		}
		fmt.Println("---------------------------------------------------")
	}

	w := worker.NewReconciliationWorker(attempts, gateway, cfg.ReconcileInterval, 0)
	report, err := w.RunOnce(ctx)
	if err != nil {
		logging.Logger().Fatal(err)
	}
	fmt.Printf("Reconciliation: %d phantom charges marked PAID, %d orders ABANDONED, %d skipped\n",
		report.Paid, report.Abandoned, report.Skipped)
	fmt.Printf("Gateway holds %d charges\n", gateway.Charged())
}
