// Package apierror maps gateway error responses and transport failures to
// typed errors.
package apierror

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrZaguan matches every error produced by this package via errors.Is.
var ErrZaguan = errors.New("zaguan")

// UnknownErrorMessage is used when an error body carries no usable message.
const UnknownErrorMessage = "Unknown error"

// Gateway error types with dedicated error structs.
const (
	TypeInsufficientCredits = "insufficient_credits"
	TypeRateLimitExceeded   = "rate_limit_exceeded"
	TypeBandAccessDenied    = "band_access_denied"
)

// StatusError is implemented by every classified HTTP error.
type StatusError interface {
	error
	HTTPStatus() int
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	Type       string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("zaguan: %s (status=%d, request_id=%s)", e.Message, e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("zaguan: %s (status=%d)", e.Message, e.StatusCode)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Is reports whether target is ErrZaguan.
func (e *APIError) Is(target error) bool {
	return target == ErrZaguan
}

// InsufficientCreditsError means the account cannot pay for the request.
type InsufficientCreditsError struct {
	APIError
	CreditsRequired  int
	CreditsRemaining int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("%s: required=%d remaining=%d", e.APIError.Error(), e.CreditsRequired, e.CreditsRemaining)
}

// RateLimitError means the caller was throttled. RetryAfter is in seconds and
// nil when the gateway did not say.
type RateLimitError struct {
	APIError
	RetryAfter *int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter == nil {
		return e.APIError.Error()
	}
	return fmt.Sprintf("%s: retry after %ds", e.APIError.Error(), *e.RetryAfter)
}

// BandAccessDeniedError means the account tier does not include the model's
// band.
type BandAccessDeniedError struct {
	APIError
	Band         *string
	RequiredTier *string
	CurrentTier  *string
}

func (e *BandAccessDeniedError) Error() string {
	return fmt.Sprintf("%s: band=%s required_tier=%s current_tier=%s",
		e.APIError.Error(), deref(e.Band), deref(e.RequiredTier), deref(e.CurrentTier))
}

// ConnectionError is a transport failure: the request never produced an HTTP
// response.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("zaguan: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrZaguan.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrZaguan
}

// Timeout reports whether the failure was a timeout.
func (e *ConnectionError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StreamParseError is a stream frame that was valid JSON but did not match
// the expected event schema.
type StreamParseError struct {
	Event   string
	Payload string
	Err     error
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("zaguan: failed to parse stream chunk: %v", e.Err)
}

func (e *StreamParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrZaguan.
func (e *StreamParseError) Is(target error) bool {
	return target == ErrZaguan
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
