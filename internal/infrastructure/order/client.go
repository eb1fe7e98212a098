package order

import (
	"context"
	"fmt"
	"net/http"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/remote"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client submits orders to the order service. Implementations do not retry.
type Client interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
	GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient talks to the order service rooted at baseURL, e.g.
// http://localhost:8083/api.
func NewHTTPClient(baseURL string, client *http.Client) Client {
	return &httpClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type orderLineDTO struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type createOrderDTO struct {
	UserID          int64          `json:"userId"`
	Items           []orderLineDTO `json:"items"`
	ShippingAddress string         `json:"shippingAddress"`
	TotalAmount     float64        `json:"totalAmount"`
}

type orderItemDTO struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type orderDTO struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"userId"`
	TotalAmount     float64        `json:"totalAmount"`
	Status          string         `json:"status"`
	Items           []orderItemDTO `json:"items"`
	ShippingAddress string         `json:"shippingAddress"`
	TrackingNumber  string         `json:"trackingNumber"`
	CreatedAt       string         `json:"createdAt"`
}

func (c *httpClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	const op = "order.CreateOrder"

	if fields := missingFields(req); len(fields) > 0 {
		return nil, remote.ValidationError(op, fields...)
	}

	body := createOrderDTO{
		UserID:          req.UserID,
		Items:           make([]orderLineDTO, 0, len(req.Items)),
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.Total.InexactFloat64(),
	}
	for _, line := range req.Items {
		body.Items = append(body.Items, orderLineDTO{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	var out orderDTO
	if err := remote.DoJSON(ctx, c.http, op, http.MethodPost, c.baseURL+"/orders", nil, body, &out); err != nil {
		return nil, err
	}
	if out.ID <= 0 {
		return nil, remote.ServerError(op, http.StatusOK, "response has no order id")
	}

	return &domain.OrderResult{
		OrderID:     out.ID,
		Status:      domain.OrderStatus(out.Status),
		TotalAmount: decimal.NewFromFloat(out.TotalAmount),
	}, nil
}

func (c *httpClient) GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	const op = "order.GetUserOrders"

	var out []orderDTO
	url := fmt.Sprintf("%s/orders/user/%d", c.baseURL, userID)
	if err := remote.DoJSON(ctx, c.http, op, http.MethodGet, url, nil, nil, &out); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(out))
	for _, o := range out {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

func (o orderDTO) toDomain() domain.Order {
	order := domain.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalAmount:     decimal.NewFromFloat(o.TotalAmount),
		Status:          domain.OrderStatus(o.Status),
		Items:           make([]domain.OrderItem, 0, len(o.Items)),
		ShippingAddress: o.ShippingAddress,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       parseTime(o.CreatedAt),
	}
	for _, it := range o.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       decimal.NewFromFloat(it.Price),
		})
	}
	return order
}

// The order service emits zone-less local timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func missingFields(req domain.OrderRequest) []string {
	var fields []string
	if req.UserID <= 0 {
		fields = append(fields, "userId")
	}
	if len(req.Items) == 0 {
		fields = append(fields, "items")
	}
	for _, line := range req.Items {
		if line.ProductID <= 0 || line.Quantity < 1 {
			fields = append(fields, "items")
			break
		}
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		fields = append(fields, "shippingAddress")
	}
	return fields
}
