package server

import (
	"errors"
	"net/http"
	"storefront-checkout/internal/domain"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type handler struct {
	deps Deps
}

type sessionDTO struct {
	UserID      int64  `json:"userId" binding:"required,gt=0"`
	DisplayName string `json:"displayName"`
}

type addItemDTO struct {
	ProductID int64           `json:"productId" binding:"required,gt=0"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type cartDTO struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

type checkoutDTO struct {
	ShippingAddress string `json:"shippingAddress"`
}

type stateDTO struct {
	Phase         domain.CheckoutPhase `json:"phase"`
	Reason        string               `json:"reason,omitempty"`
	Error         string               `json:"error,omitempty"`
	OrderID       int64                `json:"orderId,omitempty"`
	TransactionID string               `json:"transactionId,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	Pending       *pendingDTO          `json:"pending,omitempty"`
}

type pendingDTO struct {
	OrderID         int64           `json:"orderId"`
	Amount          decimal.Decimal `json:"amount"`
	ShippingAddress string          `json:"shippingAddress"`
}

func (h *handler) health(c *gin.Context) {
	if h.deps.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "up", "ledger": "memory"})
		return
	}
	stats := h.deps.DB.Health(c.Request.Context())
	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, stats)
}

func (h *handler) getSession(c *gin.Context) {
	sess, ok := h.deps.Session.Current()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "session": sess})
}

// login accepts the identity established by the auth service.
func (h *handler) login(c *gin.Context) {
	var req sessionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	sess := domain.Session{UserID: req.UserID, DisplayName: req.DisplayName}
	h.deps.Session.Set(sess)
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "session": sess})
}

func (h *handler) logout(c *gin.Context) {
	h.deps.Session.Clear()
	h.deps.Cart.Clear()
	c.Status(http.StatusNoContent)
}

func (h *handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartView())
}

func (h *handler) addItem(c *gin.Context) {
	var req addItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item := domain.CartItem{ProductID: req.ProductID, Name: req.Name, UnitPrice: req.UnitPrice, Quantity: req.Quantity}
	if err := h.deps.Cart.Add(item); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, h.cartView())
}

func (h *handler) removeItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	h.deps.Cart.Remove(id)
	c.JSON(http.StatusOK, h.cartView())
}

func (h *handler) clearCart(c *gin.Context) {
	h.deps.Cart.Clear()
	c.JSON(http.StatusOK, h.cartView())
}

func (h *handler) getCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, h.stateView(h.deps.Checkout.State()))
}

func (h *handler) checkout(c *gin.Context) {
	var req checkoutDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	st, err := h.deps.Checkout.Checkout(c.Request.Context(), req.ShippingAddress)
	c.JSON(statusFor(err), h.stateView(st))
}

func (h *handler) retryPayment(c *gin.Context) {
	st, err := h.deps.Checkout.RetryPayment(c.Request.Context())
	c.JSON(statusFor(err), h.stateView(st))
}

func (h *handler) abandonPending(c *gin.Context) {
	if err := h.deps.Checkout.AbandonPending(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.deps.History.ListOrders(c.Request.Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotAuthenticated) {
			code = http.StatusUnauthorized
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *handler) cartView() cartDTO {
	items := h.deps.Cart.Items()
	return cartDTO{Items: items, Total: domain.Total(items), Count: len(items)}
}

func (h *handler) stateView(st domain.CheckoutState) stateDTO {
	out := stateDTO{
		Phase:         st.Phase,
		OrderID:       st.OrderID,
		TransactionID: st.TransactionID,
		Amount:        st.Amount,
	}
	if st.Reason != nil {
		out.Reason = st.Reason.Error()
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	if p, ok := h.deps.Checkout.Pending(); ok {
		out.Pending = &pendingDTO{OrderID: p.OrderID, Amount: p.Amount, ShippingAddress: p.ShippingAddress}
	}
	return out
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrMissingAddress),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoPendingOrder):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrOrderCreationFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
