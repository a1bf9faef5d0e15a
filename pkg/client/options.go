package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zaguanai/zaguan-go/pkg/observability"
	"github.com/zaguanai/zaguan-go/pkg/retry"
)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	policy     retry.Policy
	logger     *slog.Logger
	hooks      []observability.Hook
	userAgent  string
	maxBody    int64
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client. Its own Timeout, if any,
// also applies to streamed bodies.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRetryPolicy retries failed calls under p. A nil p disables retrying,
// which is also the default.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *options) {
		if p == nil {
			o.policy = retry.NoRetry()
			return
		}
		o.policy = *p
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHooks adds observability hooks. Hooks are called in the order given.
func WithHooks(hooks ...observability.Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithMaxResponseBytes caps how much of a non-streaming response body is
// read. Larger bodies fail with ErrResponseTooLarge. Values <= 0 keep the
// default of 64 MiB.
func WithMaxResponseBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}
