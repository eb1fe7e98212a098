package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/remote"
	"strings"
)

// Client charges orders on the payment service. Implementations do not retry.
type Client interface {
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error)
	// GetPaymentByOrder returns nil, nil when the service has no payment for orderID.
	GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.PaymentResult, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient talks to the payment service rooted at baseURL, e.g.
// http://localhost:8084/api.
func NewHTTPClient(baseURL string, client *http.Client) Client {
	return &httpClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type processPaymentDTO struct {
	OrderID       int64   `json:"order_id"`
	UserID        int64   `json:"user_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// paymentDTO accepts both the process reply and the stored payment row.
type paymentDTO struct {
	TransactionID  string `json:"transactionId"`
	TransactionID2 string `json:"transaction_id"`
	Status         string `json:"status"`
}

func (p paymentDTO) toDomain() *domain.PaymentResult {
	id := p.TransactionID
	if id == "" {
		id = p.TransactionID2
	}
	return &domain.PaymentResult{TransactionID: id, Status: MapStatus(p.Status)}
}

func (c *httpClient) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	const op = "payment.ProcessPayment"

	if fields := missingFields(req); len(fields) > 0 {
		return nil, remote.ValidationError(op, fields...)
	}

	body := processPaymentDTO{
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		Amount:        req.Amount.InexactFloat64(),
		PaymentMethod: req.Method,
	}
	headers := map[string]string{remote.IdempotencyHeader: req.IdempotencyKey.String()}

	var out paymentDTO
	err := remote.DoJSON(ctx, c.http, op, http.MethodPost, c.baseURL+"/payments/process", headers, body, &out)
	if err != nil {
		// The payment service answers a non-completed charge with 400 and the
		// payment record; that is a result, not a transport failure.
		if res, ok := resultFromRejection(err); ok {
			return res, nil
		}
		return nil, err
	}

	res := out.toDomain()
	if res.Approved() && res.TransactionID == "" {
		return nil, remote.ServerError(op, http.StatusOK, "approved payment has no transaction id")
	}
	return res, nil
}

func (c *httpClient) GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.PaymentResult, error) {
	const op = "payment.GetPaymentByOrder"

	var out paymentDTO
	url := fmt.Sprintf("%s/payments/order/%d", c.baseURL, orderID)
	err := remote.DoJSON(ctx, c.http, op, http.MethodGet, url, nil, nil, &out)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func resultFromRejection(err error) (*domain.PaymentResult, bool) {
	var rerr *remote.Error
	if !errors.As(err, &rerr) || rerr.Kind != remote.KindValidation || len(rerr.Body) == 0 {
		return nil, false
	}
	var out paymentDTO
	if json.Unmarshal(rerr.Body, &out) != nil || out.Status == "" {
		return nil, false
	}
	return out.toDomain(), true
}

// OutcomeUnknown reports whether a ProcessPayment error leaves open that the
// charge went through: the request may have reached the service before the
// connection failed, or the service may have failed after charging.
func OutcomeUnknown(err error) bool {
	return errors.Is(err, remote.ErrNetwork) || errors.Is(err, remote.ErrServer)
}

// MapStatus folds the payment service's status vocabulary into approved,
// declined or error.
func MapStatus(status string) domain.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED", "APPROVED", "SUCCEEDED":
		return domain.PaymentApproved
	case "DECLINED", "FAILED", "PENDING", "REFUNDED":
		return domain.PaymentDeclined
	}
	return domain.PaymentError
}

func missingFields(req domain.PaymentRequest) []string {
	var fields []string
	if req.OrderID <= 0 {
		fields = append(fields, "order_id")
	}
	if req.UserID <= 0 {
		fields = append(fields, "user_id")
	}
	if !req.Amount.IsPositive() {
		fields = append(fields, "amount")
	}
	if req.Method == "" {
		fields = append(fields, "payment_method")
	}
	return fields
}
