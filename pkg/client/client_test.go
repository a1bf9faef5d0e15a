package client_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
	"github.com/zaguanai/zaguan-go/pkg/client"
	"github.com/zaguanai/zaguan-go/pkg/gatewaytest"
	"github.com/zaguanai/zaguan-go/pkg/llm"
)

var _ = Describe("New", func() {
	DescribeTable("rejects blank configuration",
		func(baseURL, apiKey string) {
			_, err := client.New(baseURL, apiKey)
			Expect(err).To(MatchError(client.ErrInvalidConfig))
		},
		Entry("empty base URL", "", "key"),
		Entry("blank base URL", "   ", "key"),
		Entry("empty API key", "http://gw", ""),
		Entry("blank API key", "http://gw", " \t"),
	)

	It("trims trailing slashes from the base URL", func() {
		c, err := client.New("http://gw.example/", "key")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.BaseURL()).To(Equal("http://gw.example"))
	})
})

var _ = Describe("Client", func() {
	var (
		srv *gatewaytest.Server
		rec *recorder
		ctx context.Context
	)

	BeforeEach(func() {
		srv = startGateway()
		rec = &recorder{}
		ctx = context.Background()
	})

	Describe("headers", func() {
		BeforeEach(func() {
			srv.Handle(http.MethodGet, "/health", raw(`{"status":"ok"}`))
			srv.Handle(http.MethodPost, "/v1/messages/count_tokens", raw(`{"input_tokens":3}`))
		})

		It("authenticates and correlates every request", func() {
			c := newClient(srv, client.WithUserAgent("tests/1.0"))

			_, err := c.Health(client.WithRequestID(ctx, "req-123"))
			Expect(err).NotTo(HaveOccurred())

			h := srv.Last().Header
			Expect(h.Get("Authorization")).To(Equal("Bearer " + testAPIKey))
			Expect(h.Get("Content-Type")).To(Equal("application/json"))
			Expect(h.Get("X-Request-Id")).To(Equal("req-123"))
			Expect(h.Get("User-Agent")).To(Equal("tests/1.0"))
			Expect(h.Get("Anthropic-Version")).To(BeEmpty())
		})

		It("generates a request id when none is given", func() {
			c := newClient(srv)

			_, err := c.Health(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = uuid.Parse(srv.Last().Header.Get("X-Request-Id"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("sends anthropic-version on native messages routes", func() {
			c := newClient(srv)

			_, err := c.CountTokens(ctx, &llm.CountTokensRequest{Model: "anthropic/claude"})
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.Last().Header.Get("Anthropic-Version")).To(Equal(llm.AnthropicVersion))
		})
	})

	Describe("retries", func() {
		It("retries retryable statuses until success", func() {
			srv.Handle(http.MethodGet, "/health",
				gatewaytest.Status(http.StatusServiceUnavailable),
				gatewaytest.Status(http.StatusServiceUnavailable),
				gatewaytest.Status(http.StatusServiceUnavailable),
				raw(`{"status":"ok"}`),
			)
			c := newClient(srv, client.WithRetryPolicy(fastPolicy(3)), client.WithHooks(rec))

			health, err := c.Health(client.WithRequestID(ctx, "same"))
			Expect(err).NotTo(HaveOccurred())
			Expect(health.Status).To(Equal("ok"))
			Expect(srv.Calls(http.MethodGet, "/health")).To(Equal(4))

			for _, r := range srv.Requests() {
				Expect(r.Header.Get("X-Request-Id")).To(Equal("same"))
			}

			Expect(rec.starts).To(HaveLen(4))
			Expect(rec.starts[3].Attempt).To(Equal(3))
			Expect(rec.ends).To(HaveLen(1))
			Expect(rec.errs).To(HaveLen(3))
			for i, e := range rec.errs {
				Expect(e.RetryAttempt).To(Equal(i))
				Expect(e.WillRetry).To(BeTrue())
				Expect(e.StatusCode).To(Equal(http.StatusServiceUnavailable))
			}
		})

		It("gives up after the retry budget", func() {
			srv.Handle(http.MethodGet, "/health", gatewaytest.Status(http.StatusBadGateway))
			c := newClient(srv, client.WithRetryPolicy(fastPolicy(2)), client.WithHooks(rec))

			_, err := c.Health(ctx)

			var statusErr apierror.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.HTTPStatus()).To(Equal(http.StatusBadGateway))
			Expect(srv.Calls(http.MethodGet, "/health")).To(Equal(3))

			Expect(rec.errs).To(HaveLen(3))
			last := rec.errs[2]
			Expect(last.WillRetry).To(BeFalse())
			Expect(last.RetryAttempt).To(Equal(2))
		})

		It("returns client errors immediately", func() {
			srv.Handle(http.MethodGet, "/health",
				gatewaytest.Error(http.StatusBadRequest, "invalid_request_error", "bad model", nil))
			c := newClient(srv, client.WithRetryPolicy(fastPolicy(3)), client.WithHooks(rec))

			_, err := c.Health(ctx)

			var apiErr *apierror.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(apiErr.Message).To(Equal("bad model"))
			Expect(apiErr.Type).To(Equal("invalid_request_error"))
			Expect(srv.Calls(http.MethodGet, "/health")).To(Equal(1))
			Expect(rec.errs).To(HaveLen(1))
			Expect(rec.errs[0].WillRetry).To(BeFalse())
		})

		It("does not retry without a policy", func() {
			srv.Handle(http.MethodGet, "/health", gatewaytest.Status(http.StatusServiceUnavailable))
			c := newClient(srv)

			_, err := c.Health(ctx)
			Expect(err).To(MatchError(apierror.ErrZaguan))
			Expect(srv.Calls(http.MethodGet, "/health")).To(Equal(1))
		})

		It("surfaces typed gateway errors", func() {
			srv.Handle(http.MethodGet, "/v1/credits/balance",
				gatewaytest.Error(http.StatusTooManyRequests, "rate_limit_exceeded", "slow down", map[string]any{"retry_after": 7}))
			c := newClient(srv)

			_, err := c.CreditsBalance(ctx)

			var rateErr *apierror.RateLimitError
			Expect(errors.As(err, &rateErr)).To(BeTrue())
			Expect(rateErr.RetryAfter).To(HaveValue(Equal(7)))
		})
	})

	Describe("transport failures", func() {
		It("wraps connection failures and retries them", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			addr := ln.Addr().String()
			Expect(ln.Close()).To(Succeed())

			c, err := client.New("http://"+addr, testAPIKey,
				client.WithRetryPolicy(fastPolicy(2)),
				client.WithHooks(rec),
			)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.Health(ctx)

			var connErr *apierror.ConnectionError
			Expect(errors.As(err, &connErr)).To(BeTrue())
			Expect(connErr.Timeout()).To(BeFalse())
			Expect(err).To(MatchError(apierror.ErrZaguan))
			Expect(rec.starts).To(HaveLen(3))
		})

		It("reports attempt timeouts", func() {
			srv.Handle(http.MethodGet, "/health", gatewaytest.Reply{
				Status: http.StatusOK,
				JSON:   map[string]string{"status": "ok"},
				Delay:  300 * time.Millisecond,
			})
			c := newClient(srv, client.WithTimeout(50*time.Millisecond))

			_, err := c.Health(ctx)

			var connErr *apierror.ConnectionError
			Expect(errors.As(err, &connErr)).To(BeTrue())
			Expect(connErr.Timeout()).To(BeTrue())
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		})

		It("returns caller cancellation unwrapped and does not retry", func() {
			srv.Handle(http.MethodGet, "/health", gatewaytest.Reply{
				Status: http.StatusOK,
				Delay:  300 * time.Millisecond,
			})
			c := newClient(srv, client.WithRetryPolicy(fastPolicy(3)))

			cctx, cancel := context.WithCancel(ctx)
			time.AfterFunc(30*time.Millisecond, cancel)

			_, err := c.Health(cctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(srv.Calls(http.MethodGet, "/health")).To(Equal(1))
		})

		It("returns the caller's own deadline unwrapped and does not retry", func() {
			srv.Handle(http.MethodGet, "/health", gatewaytest.Reply{
				Status: http.StatusOK,
				Delay:  300 * time.Millisecond,
			})
			c := newClient(srv, client.WithRetryPolicy(fastPolicy(3)))

			dctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()

			_, err := c.Health(dctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))

			var connErr *apierror.ConnectionError
			Expect(errors.As(err, &connErr)).To(BeFalse())
			Expect(srv.Calls(http.MethodGet, "/health")).To(Equal(1))
		})

		It("reports a handshake that completes after the timeout", func() {
			slow := roundTripFunc(func(*http.Request) (*http.Response, error) {
				time.Sleep(100 * time.Millisecond)
				return &http.Response{
					StatusCode: http.StatusOK,
					Header:     http.Header{"Content-Type": {"text/event-stream"}},
					Body:       io.NopCloser(strings.NewReader("data: [DONE]\n\n")),
				}, nil
			})
			c, err := client.New("http://gw.invalid", testAPIKey,
				client.WithHTTPClient(&http.Client{Transport: slow}),
				client.WithTimeout(20*time.Millisecond),
			)
			Expect(err).NotTo(HaveOccurred())

			s, err := c.ChatStream(ctx, &llm.ChatRequest{Model: "m"})
			Expect(s).To(BeNil())

			var connErr *apierror.ConnectionError
			Expect(errors.As(err, &connErr)).To(BeTrue())
			Expect(connErr.Timeout()).To(BeTrue())
		})
	})

	Describe("response size", func() {
		It("fails bodies over the read limit instead of truncating them", func() {
			srv.Handle(http.MethodPost, "/v1/audio/speech", gatewaytest.Reply{
				Status: http.StatusOK,
				Body:   []byte("0123456789"),
			})
			c := newClient(srv, client.WithMaxResponseBytes(8))

			audio, err := c.CreateSpeech(ctx, &llm.AudioSpeechRequest{Model: "tts-1", Input: "Hi", Voice: "alloy"})
			Expect(err).To(MatchError(client.ErrResponseTooLarge))
			Expect(audio).To(BeNil())
		})

		It("accepts a body exactly at the limit", func() {
			srv.Handle(http.MethodPost, "/v1/audio/speech", gatewaytest.Reply{
				Status: http.StatusOK,
				Body:   []byte("01234567"),
			})
			c := newClient(srv, client.WithMaxResponseBytes(8))

			audio, err := c.CreateSpeech(ctx, &llm.AudioSpeechRequest{Model: "tts-1", Input: "Hi", Voice: "alloy"})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(audio)).To(Equal("01234567"))
		})
	})
})
