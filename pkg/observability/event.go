// Package observability defines the hooks the gateway client fires around
// every HTTP attempt, plus logging and metrics implementations.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
)

// RequestEvent is emitted when an attempt is sent.
type RequestEvent struct {
	RequestID string    `json:"request_id"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Model     string    `json:"model,omitempty"`
	Attempt   int       `json:"attempt"`
	Streaming bool      `json:"streaming"`
	Timestamp time.Time `json:"timestamp"`
}

// ResponseEvent is emitted when an attempt returns a 2xx response.
type ResponseEvent struct {
	RequestID        string        `json:"request_id"`
	StatusCode       int           `json:"status_code"`
	Latency          time.Duration `json:"latency"`
	Model            string        `json:"model,omitempty"`
	PromptTokens     int           `json:"prompt_tokens,omitempty"`
	CompletionTokens int           `json:"completion_tokens,omitempty"`
	TotalTokens      int           `json:"total_tokens,omitempty"`
	ReasoningTokens  int           `json:"reasoning_tokens,omitempty"`
	Cost             float64       `json:"cost,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
}

// ErrorEvent is emitted when an attempt fails. RetryAttempt is the 0-based
// attempt that failed; WillRetry says whether another attempt follows.
type ErrorEvent struct {
	RequestID    string    `json:"request_id"`
	ErrorType    string    `json:"error_type"`
	Message      string    `json:"message"`
	StatusCode   int       `json:"status_code,omitempty"`
	RetryAttempt int       `json:"retry_attempt"`
	WillRetry    bool      `json:"will_retry"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error types reported in ErrorEvent.ErrorType for failures that carry no
// gateway error type.
const (
	ErrorTypeAPI        = "api_error"
	ErrorTypeConnection = "connection_error"
	ErrorTypeTimeout    = "timeout"
	ErrorTypeStream     = "stream_parse_error"
	ErrorTypeCanceled   = "canceled"
	ErrorTypeUnknown    = "error"
)

// NewErrorEvent builds an ErrorEvent from err.
func NewErrorEvent(requestID string, err error, attempt int, willRetry bool) ErrorEvent {
	ev := ErrorEvent{
		RequestID:    requestID,
		ErrorType:    ErrorType(err),
		RetryAttempt: attempt,
		WillRetry:    willRetry,
		Timestamp:    time.Now().UTC(),
	}
	if err != nil {
		ev.Message = err.Error()
	}

	var statusErr apierror.StatusError
	if errors.As(err, &statusErr) {
		ev.StatusCode = statusErr.HTTPStatus()
	}

	return ev
}

// ErrorType names the category of err. Gateway errors use the gateway's own
// error type when it sent one.
func ErrorType(err error) string {
	var (
		insufficient *apierror.InsufficientCreditsError
		rateLimit    *apierror.RateLimitError
		band         *apierror.BandAccessDeniedError
		api          *apierror.APIError
		conn         *apierror.ConnectionError
		parse        *apierror.StreamParseError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &insufficient):
		return apierror.TypeInsufficientCredits
	case errors.As(err, &rateLimit):
		return apierror.TypeRateLimitExceeded
	case errors.As(err, &band):
		return apierror.TypeBandAccessDenied
	case errors.As(err, &api):
		if api.Type != "" {
			return api.Type
		}
		return ErrorTypeAPI
	case errors.As(err, &conn):
		if conn.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeConnection
	case errors.As(err, &parse):
		return ErrorTypeStream
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	default:
		return ErrorTypeUnknown
	}
}

// TokenUsage is the token accounting of one reply.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ReasoningTokens  int
	Cost             float64
}
