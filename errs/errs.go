// Package errs provides structured error types shared across the brokerlink client.
package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Kind identifies the failure category of a client operation.
type Kind string

const (
	// KindNetwork indicates a transport failure: connectivity, timeout, TLS,
	// malformed request, or an unexpected HTTP status.
	KindNetwork Kind = "network"
	// KindAuth indicates an authentication or validation failure reported by
	// the server with HTTP 400.
	KindAuth Kind = "auth"
)

// E captures structured error information produced by the client core.
type E struct {
	Kind      Kind
	Operation string
	HTTP      int
	Message   string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the operation and failure kind.
func New(operation string, kind Kind, opts ...Option) *E {
	e := &E{
		Kind:      kind,
		Operation: strings.TrimSpace(operation),
		HTTP:      0,
		Message:   "",
		cause:     nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error. Auth errors
// surface this message verbatim to the caller, whitespace included.
func WithMessage(message string) Option {
	return func(e *E) {
		e.Message = message
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	op := strings.TrimSpace(e.Operation)
	if op == "" {
		op = "unknown"
	}
	parts = append(parts, "op="+op)

	kind := strings.TrimSpace(string(e.Kind))
	if kind == "" {
		kind = "unknown"
	}
	parts = append(parts, "kind="+kind)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// KindOf reports the failure kind carried by err, unwrapping as needed.
// A nil error has no kind.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	var e *E
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsNetwork reports whether err is a network-class failure.
func IsNetwork(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNetwork
}

// IsAuth reports whether err is an auth-class failure.
func IsAuth(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindAuth
}

// UserMessage returns the server-supplied message for auth failures and a
// generic description otherwise. Callers surface this text verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return string(e.Kind) + " error"
	}
	return err.Error()
}
