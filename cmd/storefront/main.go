package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"storefront-checkout/internal/cart"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/database"
	"storefront-checkout/internal/infrastructure/order"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/infrastructure/remote"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/repo"
	"storefront-checkout/internal/server"
	"storefront-checkout/internal/service"
	"storefront-checkout/internal/session"
	"storefront-checkout/internal/worker"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Logger().Fatal(err)
	}
	logging.Configure(cfg.LogLevel, nil)
	log := logging.Logger()

	deps := server.Deps{
		Cart:    cart.NewStore(),
		Session: session.NewContext(),
	}

	var attempts repo.AttemptRepo = repo.NewMemoryAttemptRepo()
	if cfg.DB.Enabled() {
		db, err := database.NewPostgres(ctx, cfg.DB)
		if err != nil {
			log.Fatal(err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		deps.DB = database.New(db)
		defer deps.DB.Close()
		attempts = repo.NewAttemptRepo(db)
	} else {
		log.Warn("BLUEPRINT_DB_HOST not set, checkout ledger kept in memory")
	}

	httpClient := remote.NewHTTPClient(cfg.RequestTimeout)
	orders := order.NewHTTPClient(cfg.OrderServiceURL, httpClient)
	payments := payment.NewHTTPClient(cfg.PaymentServiceURL, httpClient)

	deps.Checkout = service.NewCheckoutService(deps.Cart, deps.Session, orders, payments, attempts, cfg.PaymentMethod, cfg.CheckoutTimeout)
	deps.History = service.NewHistoryService(deps.Session, orders)

	go worker.NewReconciliationWorker(attempts, payments, cfg.ReconcileInterval, cfg.StuckAfter).Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(deps, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("storefront listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
