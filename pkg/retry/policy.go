// Package retry re-executes failed gateway calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
)

// Policy bounds and paces retries. It is a value type; callers copy it and it
// is never mutated during a call.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt, so a
	// call runs at most MaxRetries+1 times. Zero disables retrying.
	MaxRetries int

	// InitialDelay is the backoff before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps every backoff. Zero or negative means no cap.
	MaxDelay time.Duration

	// ExponentialBase multiplies the delay on each further retry.
	ExponentialBase float64

	// Jitter scales each delay by a uniform factor in [0.5, 1.0].
	Jitter bool

	// RetryStatusCodes lists the HTTP statuses worth retrying. Nil means
	// DefaultRetryStatusCodes.
	RetryStatusCodes map[int]bool
}

// DefaultRetryStatusCodes returns the statuses retried when a policy does not
// name its own: 429, 500, 502, 503 and 504.
func DefaultRetryStatusCodes() map[int]bool {
	return map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
}

// DefaultPolicy returns 3 retries starting at 1s, doubling, capped at 60s,
// with jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:       3,
		InitialDelay:     time.Second,
		MaxDelay:         60 * time.Second,
		ExponentialBase:  2.0,
		Jitter:           true,
		RetryStatusCodes: DefaultRetryStatusCodes(),
	}
}

// NoRetry is a policy that runs the call once.
func NoRetry() Policy {
	return Policy{}
}

// Delay returns the backoff before retry number attempt (0-based):
// min(InitialDelay * ExponentialBase^attempt, MaxDelay), scaled by a random
// factor in [0.5, 1.0] when Jitter is set.
func (p Policy) Delay(attempt int) time.Duration {
	return p.delay(attempt, rand.Float64)
}

func (p Policy) delay(attempt int, random func() float64) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.ExponentialBase, float64(attempt))
	if p.MaxDelay > 0 {
		d = math.Min(d, float64(p.MaxDelay))
	}
	if p.Jitter {
		d *= 0.5 + random()*0.5
	}

	switch {
	case math.IsNaN(d) || d <= 0:
		return 0
	case d >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	default:
		return time.Duration(d)
	}
}

// ShouldRetry reports whether a call that failed with err on the given
// 0-based attempt may run again. Transport failures are always eligible;
// classified HTTP errors are eligible when their status is in
// RetryStatusCodes. Context cancellation and everything else are not.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}

	var connErr *apierror.ConnectionError
	if errors.As(err, &connErr) {
		return true
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var statusErr apierror.StatusError
	if errors.As(err, &statusErr) {
		return p.retryStatus(statusErr.HTTPStatus())
	}

	return false
}

func (p Policy) retryStatus(code int) bool {
	codes := p.RetryStatusCodes
	if codes == nil {
		codes = DefaultRetryStatusCodes()
	}
	return codes[code]
}
