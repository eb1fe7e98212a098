package server

import (
	"storefront-checkout/internal/cart"
	"storefront-checkout/internal/database"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/service"
	"storefront-checkout/internal/session"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type Deps struct {
	Cart     *cart.Store
	Session  *session.Context
	Checkout service.CheckoutService
	History  service.HistoryService
	// DB is nil when the ledger runs in memory.
	DB database.Service
}

// New builds the router for the single-shopper storefront backend.
func New(deps Deps, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = allowedOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, requestIDHeader)
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	h := &handler{deps: deps}

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/session", h.getSession)
	api.POST("/session", h.login)
	api.DELETE("/session", h.logout)

	api.GET("/cart", h.getCart)
	api.POST("/cart/items", h.addItem)
	api.DELETE("/cart/items/:productId", h.removeItem)
	api.DELETE("/cart", h.clearCart)

	api.GET("/checkout", h.getCheckout)
	api.POST("/checkout", h.checkout)
	api.POST("/checkout/retry-payment", h.retryPayment)
	api.DELETE("/checkout/pending", h.abandonPending)

	api.GET("/orders", h.listOrders)

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.WithFields(c.Request.Context(), logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}
