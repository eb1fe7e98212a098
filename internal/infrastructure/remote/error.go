package remote

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindValidation
	KindServer
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindNotFound:
		return "not found"
	}
	return "unknown"
}

var (
	ErrNetwork    = errors.New("network error")
	ErrValidation = errors.New("validation error")
	ErrServer     = errors.New("server error")
	ErrNotFound   = errors.New("not found")
)

// Error is the failure of a single call to a remote service.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	// Fields lists the request fields the service rejected, if it said so.
	Fields  []string
	Message string
	// Body is the raw response body of a non-2xx reply.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrServer:
		return e.Kind == KindServer
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

func NetworkError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, Err: err}
}

func ValidationError(op string, fields ...string) *Error {
	return &Error{Op: op, Kind: KindValidation, Fields: fields}
}

func ServerError(op string, status int, msg string) *Error {
	return &Error{Op: op, Kind: KindServer, Status: status, Message: msg}
}
