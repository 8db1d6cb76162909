package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure
type Kind string

const (
	KindMethodNotAllowed  Kind = "method_not_allowed"
	KindMissingCredential Kind = "missing_credential"
	KindInvalidPayload    Kind = "invalid_payload"
	KindUpstream          Kind = "upstream"
	KindTransport         Kind = "transport"
)

// Error is the only error type Send returns.
type Error struct {
	Kind Kind
	// StatusCode and Body are set for KindUpstream.
	StatusCode int
	Body       []byte
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUpstream:
		return fmt.Sprintf("gateway: upstream status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimited reports a provider 429, where a personal key may help.
func (e *Error) RateLimited() bool {
	return e.Kind == KindUpstream && e.StatusCode == http.StatusTooManyRequests
}

// KindOf returns the kind of a gateway error, or "" for anything else.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}
