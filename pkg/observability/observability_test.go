package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
	"github.com/zaguanai/zaguan-go/pkg/logger"
	"github.com/zaguanai/zaguan-go/pkg/observability"
)

// recorder keeps every event it sees.
type recorder struct {
	starts []observability.RequestEvent
	ends   []observability.ResponseEvent
	errs   []observability.ErrorEvent
}

func (r *recorder) OnRequestStart(_ context.Context, e observability.RequestEvent) {
	r.starts = append(r.starts, e)
}

func (r *recorder) OnRequestEnd(_ context.Context, e observability.ResponseEvent) {
	r.ends = append(r.ends, e)
}

func (r *recorder) OnRequestError(_ context.Context, e observability.ErrorEvent) {
	r.errs = append(r.errs, e)
}

var _ = Describe("ErrorType", func() {
	DescribeTable("categorises errors",
		func(err error, expected string) {
			Expect(observability.ErrorType(err)).To(Equal(expected))
		},
		Entry("rate limit", apierror.Classify(429, []byte(`{"error":{"type":"rate_limit_exceeded"}}`), ""), "rate_limit_exceeded"),
		Entry("credits", apierror.Classify(402, []byte(`{"error":{"type":"insufficient_credits"}}`), ""), "insufficient_credits"),
		Entry("band", apierror.Classify(403, []byte(`{"error":{"type":"band_access_denied"}}`), ""), "band_access_denied"),
		Entry("typed api error", apierror.Classify(400, []byte(`{"error":{"type":"invalid_request_error"}}`), ""), "invalid_request_error"),
		Entry("untyped api error", apierror.Classify(500, nil, ""), observability.ErrorTypeAPI),
		Entry("connection", &apierror.ConnectionError{Err: errors.New("refused")}, observability.ErrorTypeConnection),
		Entry("timeout", &apierror.ConnectionError{Err: context.DeadlineExceeded}, observability.ErrorTypeTimeout),
		Entry("stream", &apierror.StreamParseError{Err: errors.New("bad")}, observability.ErrorTypeStream),
		Entry("canceled", context.Canceled, observability.ErrorTypeCanceled),
		Entry("other", errors.New("boom"), observability.ErrorTypeUnknown),
	)
})

var _ = Describe("NewErrorEvent", func() {
	It("captures status and retry state", func() {
		ev := observability.NewErrorEvent("req-1", apierror.Classify(503, nil, ""), 2, true)

		Expect(ev.RequestID).To(Equal("req-1"))
		Expect(ev.StatusCode).To(Equal(503))
		Expect(ev.RetryAttempt).To(Equal(2))
		Expect(ev.WillRetry).To(BeTrue())
		Expect(ev.Message).To(ContainSubstring("Unknown error"))
		Expect(ev.Timestamp).NotTo(BeZero())
	})
})

var _ = Describe("Composite", func() {
	It("forwards events to every hook in order", func() {
		a, b := &recorder{}, &recorder{}
		hook := observability.NewComposite(a, nil, observability.NewComposite(b))
		Expect(hook).To(HaveLen(2))

		ctx := context.Background()
		hook.OnRequestStart(ctx, observability.RequestEvent{RequestID: "1"})
		hook.OnRequestEnd(ctx, observability.ResponseEvent{RequestID: "1"})
		hook.OnRequestError(ctx, observability.ErrorEvent{RequestID: "2"})

		for _, r := range []*recorder{a, b} {
			Expect(r.starts).To(HaveLen(1))
			Expect(r.ends).To(HaveLen(1))
			Expect(r.errs).To(HaveLen(1))
		}
	})
})

var _ = Describe("MetricsCollector", func() {
	var (
		m   *observability.MetricsCollector
		ctx context.Context
	)

	BeforeEach(func() {
		m = observability.NewMetricsCollector()
		ctx = context.Background()
	})

	It("starts empty", func() {
		Expect(m.AverageLatency()).To(BeZero())
		Expect(m.SuccessRate()).To(BeZero())
		Expect(m.Summary().TotalRequests).To(BeZero())
	})

	It("aggregates successes and failures", func() {
		for range 4 {
			m.OnRequestStart(ctx, observability.RequestEvent{})
		}
		m.OnRequestEnd(ctx, observability.ResponseEvent{
			Model: "openai/gpt-4o-mini", Latency: 100 * time.Millisecond,
			PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Cost: 0.25,
		})
		m.OnRequestEnd(ctx, observability.ResponseEvent{
			Model: "openai/gpt-4o-mini", Latency: 300 * time.Millisecond,
			PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2, ReasoningTokens: 7,
		})
		m.OnRequestEnd(ctx, observability.ResponseEvent{Model: "anthropic/claude", Latency: 200 * time.Millisecond})
		m.OnRequestError(ctx, observability.ErrorEvent{ErrorType: "rate_limit_exceeded"})

		s := m.Summary()
		Expect(s.TotalRequests).To(Equal(4))
		Expect(s.SuccessfulRequests).To(Equal(3))
		Expect(s.FailedRequests).To(Equal(1))
		Expect(s.SuccessRate).To(BeNumerically("~", 0.75))
		Expect(s.AverageLatency).To(Equal(200 * time.Millisecond))
		Expect(s.TotalTokens).To(Equal(17))
		Expect(s.TotalPromptTokens).To(Equal(11))
		Expect(s.TotalCompletionTokens).To(Equal(6))
		Expect(s.TotalReasoningTokens).To(Equal(7))
		Expect(s.TotalCost).To(BeNumerically("~", 0.25))
		Expect(s.RequestsByModel).To(Equal(map[string]int{"openai/gpt-4o-mini": 2, "anthropic/claude": 1}))
		Expect(s.ErrorsByType).To(Equal(map[string]int{"rate_limit_exceeded": 1}))
	})

	It("adds recorded usage without counting a request", func() {
		m.OnRequestStart(ctx, observability.RequestEvent{})
		m.OnRequestEnd(ctx, observability.ResponseEvent{Model: "m", Latency: 10 * time.Millisecond})
		m.RecordUsage(observability.TokenUsage{PromptTokens: 9, CompletionTokens: 3, TotalTokens: 12, ReasoningTokens: 1, Cost: 0.5})

		s := m.Summary()
		Expect(s.TotalRequests).To(Equal(1))
		Expect(s.SuccessfulRequests).To(Equal(1))
		Expect(s.TotalTokens).To(Equal(12))
		Expect(s.TotalPromptTokens).To(Equal(9))
		Expect(s.TotalCompletionTokens).To(Equal(3))
		Expect(s.TotalReasoningTokens).To(Equal(1))
		Expect(s.TotalCost).To(BeNumerically("~", 0.5))
	})

	It("returns snapshots that do not alias internal state", func() {
		m.OnRequestEnd(ctx, observability.ResponseEvent{Model: "m"})
		s := m.Summary()
		s.RequestsByModel["m"] = 99

		Expect(m.Summary().RequestsByModel["m"]).To(Equal(1))
	})

	It("works from the zero value", func() {
		var zero observability.MetricsCollector
		zero.OnRequestError(ctx, observability.ErrorEvent{ErrorType: "x"})
		zero.OnRequestEnd(ctx, observability.ResponseEvent{Model: "m"})

		Expect(zero.Summary().ErrorsByType).To(HaveKeyWithValue("x", 1))
	})

	It("is safe for concurrent use", func() {
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.OnRequestStart(ctx, observability.RequestEvent{})
				m.OnRequestEnd(ctx, observability.ResponseEvent{Model: "m", TotalTokens: 1})
			}()
		}
		wg.Wait()

		Expect(m.Summary().TotalTokens).To(Equal(50))
		Expect(m.SuccessRate()).To(Equal(1.0))
	})
})

var _ = Describe("LoggingHook", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	lines := func() []map[string]any {
		var out []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var parsed map[string]any
			Expect(json.Unmarshal([]byte(line), &parsed)).To(Succeed())
			out = append(out, parsed)
		}
		return out
	}

	It("logs only completions and failures when quiet", func() {
		hook := observability.NewLoggingHook(logger.New(logger.WithWriter(buf), logger.WithJSON(true)), false)
		ctx := context.Background()

		hook.OnRequestStart(ctx, observability.RequestEvent{RequestID: "r"})
		hook.OnRequestEnd(ctx, observability.ResponseEvent{RequestID: "r", StatusCode: 200, Model: "m"})
		hook.OnRequestError(ctx, observability.ErrorEvent{RequestID: "r", ErrorType: "api_error", Message: "secret"})

		out := lines()
		Expect(out).To(HaveLen(2))
		Expect(out[0]["msg"]).To(Equal("gateway request completed"))
		Expect(out[0]).NotTo(HaveKey("model"))
		Expect(out[1]["level"]).To(Equal("ERROR"))
		Expect(out[1]).NotTo(HaveKey("message"))
	})

	It("logs details when verbose", func() {
		hook := observability.NewLoggingHook(logger.New(logger.WithWriter(buf), logger.WithJSON(true)), true)
		ctx := context.Background()

		hook.OnRequestStart(ctx, observability.RequestEvent{RequestID: "r", Method: "POST", URL: "http://gw/v1/chat/completions", Model: "m"})
		hook.OnRequestEnd(ctx, observability.ResponseEvent{RequestID: "r", StatusCode: 200, Model: "m", TotalTokens: 3, PromptTokens: 1, CompletionTokens: 2})
		hook.OnRequestError(ctx, observability.ErrorEvent{RequestID: "r", ErrorType: "api_error", Message: "boom", StatusCode: 503, WillRetry: true})

		out := lines()
		Expect(out).To(HaveLen(3))
		Expect(out[0]["model"]).To(Equal("m"))
		Expect(out[1]["total_tokens"]).To(BeNumerically("==", 3))
		Expect(out[2]["level"]).To(Equal("WARN"))
		Expect(out[2]["status"]).To(BeNumerically("==", 503))
	})

	It("tolerates a nil logger", func() {
		hook := observability.NewLoggingHook(nil, true)
		Expect(func() {
			hook.OnRequestError(context.Background(), observability.ErrorEvent{})
		}).NotTo(Panic())
	})
})
