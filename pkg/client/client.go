// Package client is the Zaguan gateway client. Every operation takes a
// context, sends the gateway headers, runs under the configured retry policy
// and reports each attempt to the configured hooks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/logger"
	"github.com/zaguanai/zaguan-go/pkg/observability"
	"github.com/zaguanai/zaguan-go/pkg/retry"
	"github.com/zaguanai/zaguan-go/pkg/utils"
)

const (
	// DefaultTimeout bounds each non-streaming attempt and the handshake of
	// each streaming attempt.
	DefaultTimeout = 60 * time.Second

	// DefaultModel is used by ChatSimple and ChatWithSystem.
	DefaultModel = "openai/gpt-4o-mini"

	anthropicVersionHeader = "anthropic-version"
	defaultMaxResponseBody = 64 << 20
)

// ErrInvalidConfig is returned by New for a blank base URL or API key.
var ErrInvalidConfig = errors.New("zaguan: invalid client configuration")

// ErrResponseTooLarge is returned when a response body exceeds the client's
// read limit.
var ErrResponseTooLarge = errors.New("zaguan: response body too large")

var (
	errAttemptTimeout   = fmt.Errorf("attempt timed out: %w", context.DeadlineExceeded)
	errHandshakeTimeout = fmt.Errorf("waiting for response headers: %w", context.DeadlineExceeded)
)

// Client talks to a Zaguan gateway. It is safe for concurrent use.
type Client struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	timeout   time.Duration
	policy    retry.Policy
	logger    *slog.Logger
	hooks     observability.Hook
	userAgent string
	maxBody   int64
}

// New returns a Client for the gateway at baseURL.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", ErrInvalidConfig)
	}

	o := &options{
		timeout:   DefaultTimeout,
		policy:    retry.NoRetry(),
		userAgent: utils.UserAgent(),
		maxBody:   defaultMaxResponseBody,
	}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var hook observability.Hook = observability.Nop{}
	if len(o.hooks) > 0 {
		hook = observability.NewComposite(o.hooks...)
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		http:      httpClient,
		timeout:   o.timeout,
		policy:    o.policy,
		logger:    logger.OrNop(o.logger),
		hooks:     hook,
		userAgent: o.userAgent,
		maxBody:   o.maxBody,
	}, nil
}

// BaseURL returns the gateway base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestIDKey struct{}

// WithRequestID returns a context whose calls send id as X-Request-Id. Calls
// without one get a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// request describes one logical call. The body is re-sent on every attempt.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	model       string
	streaming   bool
}

func jsonRequest(method, path string, v any) (*request, error) {
	req := &request{method: method, path: path}
	if v == nil {
		return req, nil
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("zaguan: encoding %s request: %w", path, err)
	}
	req.body = body
	req.contentType = "application/json"
	return req, nil
}

// response is a fully read 2xx response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// do runs req under the retry policy and returns the first 2xx response with
// its body read.
func (c *Client) do(ctx context.Context, req *request) (*response, error) {
	id := requestID(ctx)

	return withRetry(ctx, c, id, func(ctx context.Context, attempt int) (*response, error) {
		ctx, cancel := c.attemptContext(ctx)
		defer cancel()

		started := time.Now()
		resp, err := c.roundTrip(ctx, req, id, attempt)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return nil, c.transportError(ctx, req, err)
		}
		if int64(len(body)) > c.maxBody {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, req.path, c.maxBody)
		}

		c.hooks.OnRequestEnd(ctx, responseEvent(id, resp.StatusCode, started, body))
		return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
	})
}

// open runs the handshake of req under the retry policy and returns the live
// 2xx response. The attempt timeout only covers the handshake; the returned
// body stays bound to ctx and must be closed by the caller.
func (c *Client) open(ctx context.Context, req *request) (*http.Response, error) {
	id := requestID(ctx)

	return withRetry(ctx, c, id, func(ctx context.Context, attempt int) (*http.Response, error) {
		ctx, cancel := context.WithCancelCause(ctx)
		var timer *time.Timer
		if c.timeout > 0 {
			timer = time.AfterFunc(c.timeout, func() { cancel(errHandshakeTimeout) })
		}

		started := time.Now()
		resp, err := c.roundTrip(ctx, req, id, attempt)
		if timer != nil && !timer.Stop() && err == nil {
			// Headers arrived after the timer already cancelled ctx.
			resp.Body.Close()
			err = c.transportError(ctx, req, errHandshakeTimeout)
		}
		if err != nil {
			cancel(nil)
			return nil, err
		}

		c.hooks.OnRequestEnd(ctx, observability.ResponseEvent{
			RequestID:  id,
			StatusCode: resp.StatusCode,
			Latency:    time.Since(started),
			Model:      req.model,
			Timestamp:  time.Now().UTC(),
		})

		resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	})
}

// withRetry runs fn under the client's policy. Each retried failure is
// reported as an error event that will be retried; the final failure as one
// that will not.
func withRetry[T any](ctx context.Context, c *Client, id string, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	r := retry.New(c.policy)
	r.OnRetry = func(ctx context.Context, a retry.Attempt) {
		c.hooks.OnRequestError(ctx, observability.NewErrorEvent(id, a.Err, a.Number, true))
		c.logger.Debug("retrying gateway request",
			"request_id", id,
			"attempt", a.Number,
			"delay", a.Delay,
			"error", a.Err,
		)
	}

	attempt := 0
	v, err := retry.Run(ctx, r, func(ctx context.Context) (T, error) {
		n := attempt
		attempt++
		return fn(ctx, n)
	})
	if err != nil {
		c.hooks.OnRequestError(ctx, observability.NewErrorEvent(id, err, attempt-1, false))
		var zero T
		return zero, err
	}
	return v, nil
}

func (c *Client) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, c.timeout, errAttemptTimeout)
}

// roundTrip sends one attempt. Transport failures come back as
// *apierror.ConnectionError and non-2xx responses as classified gateway
// errors; on success the caller owns the response body.
func (c *Client) roundTrip(ctx context.Context, req *request, id string, attempt int) (*http.Response, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("zaguan: building %s request: %w", req.path, err)
	}
	c.setHeaders(httpReq, req, id)

	c.hooks.OnRequestStart(ctx, observability.RequestEvent{
		RequestID: id,
		Method:    req.method,
		URL:       u,
		Model:     req.model,
		Attempt:   attempt,
		Streaming: req.streaming,
		Timestamp: time.Now().UTC(),
	})

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, req, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, apierror.ClassifyResponse(resp)
	}
	return resp, nil
}

func (c *Client) setHeaders(httpReq *http.Request, req *request, id string) {
	h := httpReq.Header
	h.Set("Authorization", "Bearer "+c.apiKey)
	h.Set(apierror.RequestIDHeader, id)
	contentType := req.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	h.Set("Content-Type", contentType)
	if c.userAgent != "" {
		h.Set("User-Agent", c.userAgent)
	}
	if req.streaming {
		h.Set("Accept", "text/event-stream")
	}
	if strings.HasPrefix(req.path, "/v1/messages") {
		h.Set(anthropicVersionHeader, llm.AnthropicVersion)
	}
}

// transportError wraps a failure to get or read a response. Cancellation or
// deadline of the caller's context is returned as the bare context error;
// only the client's own attempt and handshake timeouts become
// ConnectionErrors, detectable through errors.Is(err, context.DeadlineExceeded).
func (c *Client) transportError(ctx context.Context, req *request, err error) error {
	if cause := context.Cause(ctx); cause != nil {
		if cause != errAttemptTimeout && cause != errHandshakeTimeout {
			return cause
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", cause, err)
		}
	}
	return &apierror.ConnectionError{
		Op:  req.method,
		URL: c.baseURL + req.path,
		Err: err,
	}
}

// usageProbe picks the accounting members out of any JSON response.
type usageProbe struct {
	Model string     `json:"model"`
	Usage *llm.Usage `json:"usage"`
	Cost  float64    `json:"cost"`
}

func responseEvent(id string, status int, started time.Time, body []byte) observability.ResponseEvent {
	ev := observability.ResponseEvent{
		RequestID:  id,
		StatusCode: status,
		Latency:    time.Since(started),
		Timestamp:  time.Now().UTC(),
	}

	var probe usageProbe
	if json.Unmarshal(body, &probe) != nil {
		return ev
	}
	ev.Model = probe.Model
	ev.Cost = probe.Cost
	if u := probe.Usage; u != nil {
		ev.PromptTokens = u.PromptTokens
		ev.CompletionTokens = u.CompletionTokens
		ev.TotalTokens = u.TotalTokens
		ev.ReasoningTokens = u.ReasoningTokens()
	}
	return ev
}

// cancelBody releases the attempt context when a streamed body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelCauseFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}

// decode unmarshals a 2xx response body.
func decode[T any](resp *response, path string) (*T, error) {
	var out T
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("zaguan: decoding %s response: %w", path, err)
	}
	return &out, nil
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array in "data".
func decodeList[T any](resp *response, path string) ([]T, error) {
	body := bytes.TrimSpace(resp.body)
	if len(body) > 0 && body[0] == '[' {
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("zaguan: decoding %s response: %w", path, err)
		}
		return out, nil
	}

	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("zaguan: decoding %s response: %w", path, err)
	}
	return wrapped.Data, nil
}

// call is a JSON request/response round trip under the retry policy.
func call[T any](ctx context.Context, c *Client, method, path string, in any) (*T, error) {
	req, err := jsonRequest(method, path, in)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decode[T](resp, path)
}
