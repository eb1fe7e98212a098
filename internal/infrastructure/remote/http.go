package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const IdempotencyHeader = "Idempotency-Key"

// errorBody is the error shape shared by the order and payment services.
type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields"`
}

// NewHTTPClient returns the client used for service calls. A zero timeout
// leaves calls bounded only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// DoJSON sends body as JSON and decodes a 2xx reply into out. Transport
// failures, including timeouts and cancelled contexts, become KindNetwork;
// 404 becomes KindNotFound; other 4xx become KindValidation; everything else
// that is not 2xx or cannot be decoded becomes KindServer.
func DoJSON(ctx context.Context, client *http.Client, op, method, url string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindValidation, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindValidation, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return NetworkError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return NetworkError(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Kind: KindServer, Status: resp.StatusCode, Message: "invalid response payload", Err: err}
	}
	return nil
}

func statusError(op string, status int, raw []byte) *Error {
	e := &Error{Op: op, Status: status, Body: raw}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		e.Fields = eb.Fields
		e.Message = eb.Error
		if e.Message == "" {
			e.Message = eb.Message
		}
	}

	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status >= 400 && status < 500:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}
