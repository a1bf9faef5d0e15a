package observability

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Summary is a snapshot of a MetricsCollector.
type Summary struct {
	TotalRequests         int            `json:"total_requests"`
	SuccessfulRequests    int            `json:"successful_requests"`
	FailedRequests        int            `json:"failed_requests"`
	SuccessRate           float64        `json:"success_rate"`
	AverageLatency        time.Duration  `json:"average_latency"`
	TotalTokens           int            `json:"total_tokens"`
	TotalPromptTokens     int            `json:"total_prompt_tokens"`
	TotalCompletionTokens int            `json:"total_completion_tokens"`
	TotalReasoningTokens  int            `json:"total_reasoning_tokens"`
	TotalCost             float64        `json:"total_cost"`
	RequestsByModel       map[string]int `json:"requests_by_model"`
	ErrorsByType          map[string]int `json:"errors_by_type"`
}

// MetricsCollector counts requests, latency, token usage and errors. It is
// safe for concurrent use.
type MetricsCollector struct {
	mu sync.Mutex

	total        int
	succeeded    int
	failed       int
	latency      time.Duration
	tokens       int
	prompt       int
	completion   int
	reasoning    int
	cost         float64
	byModel      map[string]int
	errorsByType map[string]int
}

// NewMetricsCollector returns an empty collector. The zero value is also
// usable.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		byModel:      make(map[string]int),
		errorsByType: make(map[string]int),
	}
}

func (m *MetricsCollector) OnRequestStart(context.Context, RequestEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
}

func (m *MetricsCollector) OnRequestEnd(_ context.Context, event ResponseEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.succeeded++
	m.latency += event.Latency
	if event.Model != "" {
		if m.byModel == nil {
			m.byModel = make(map[string]int)
		}
		m.byModel[event.Model]++
	}
	m.tokens += event.TotalTokens
	m.prompt += event.PromptTokens
	m.completion += event.CompletionTokens
	m.reasoning += event.ReasoningTokens
	m.cost += event.Cost
}

func (m *MetricsCollector) OnRequestError(_ context.Context, event ErrorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed++
	if m.errorsByType == nil {
		m.errorsByType = make(map[string]int)
	}
	m.errorsByType[event.ErrorType]++
}

// RecordUsage adds token usage that arrived outside a response event, such as
// the final chunk of a stream. Request counts are not touched.
func (m *MetricsCollector) RecordUsage(u TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens += u.TotalTokens
	m.prompt += u.PromptTokens
	m.completion += u.CompletionTokens
	m.reasoning += u.ReasoningTokens
	m.cost += u.Cost
}

// AverageLatency is the mean latency of successful requests.
func (m *MetricsCollector) AverageLatency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.averageLatency()
}

// SuccessRate is successful requests over started requests, or 0.
func (m *MetricsCollector) SuccessRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.successRate()
}

// Summary returns a consistent snapshot of every counter.
func (m *MetricsCollector) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Summary{
		TotalRequests:         m.total,
		SuccessfulRequests:    m.succeeded,
		FailedRequests:        m.failed,
		SuccessRate:           m.successRate(),
		AverageLatency:        m.averageLatency(),
		TotalTokens:           m.tokens,
		TotalPromptTokens:     m.prompt,
		TotalCompletionTokens: m.completion,
		TotalReasoningTokens:  m.reasoning,
		TotalCost:             m.cost,
		RequestsByModel:       maps.Clone(m.byModel),
		ErrorsByType:          maps.Clone(m.errorsByType),
	}
}

func (m *MetricsCollector) averageLatency() time.Duration {
	if m.succeeded == 0 {
		return 0
	}
	return m.latency / time.Duration(m.succeeded)
}

func (m *MetricsCollector) successRate() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.succeeded) / float64(m.total)
}
