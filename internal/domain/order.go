package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type OrderLine struct {
	ProductID int64
	Quantity  int
}

type OrderRequest struct {
	UserID          int64
	Items           []OrderLine
	ShippingAddress string
	Total           decimal.Decimal
}

// NewOrderRequest builds the request for one checkout attempt from a cart snapshot.
func NewOrderRequest(session Session, items []CartItem, address string, total decimal.Decimal) OrderRequest {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return OrderRequest{
		UserID:          session.UserID,
		Items:           lines,
		ShippingAddress: address,
		Total:           total,
	}
}

type OrderResult struct {
	OrderID     int64
	Status      OrderStatus
	TotalAmount decimal.Decimal
}

type OrderItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order is a previously placed order as reported by the order service.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress string          `json:"shippingAddress"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
