package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zaguanai/zaguan-go/pkg/llm"
)

// CreditsHistoryOptions filters and pages the credits history. Zero values
// are omitted from the query.
type CreditsHistoryOptions struct {
	Limit     int
	Cursor    string
	StartDate string
	EndDate   string
	Model     string
}

func (o CreditsHistoryOptions) values() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	setIf(q, "cursor", o.Cursor)
	setIf(q, "start_date", o.StartDate)
	setIf(q, "end_date", o.EndDate)
	setIf(q, "model", o.Model)
	return q
}

// CreditsStatsOptions selects the aggregation of CreditsStats.
type CreditsStatsOptions struct {
	// Period is "day", "week" or "month".
	Period string

	// GroupBy is "model", "provider" or "band".
	GroupBy string
}

func (o CreditsStatsOptions) values() url.Values {
	q := url.Values{}
	setIf(q, "period", o.Period)
	setIf(q, "group_by", o.GroupBy)
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// ListModels lists the models the gateway exposes.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return list[llm.ModelInfo](ctx, c, "/v1/models")
}

// GetCapabilities lists per-model capabilities.
func (c *Client) GetCapabilities(ctx context.Context) ([]llm.ModelCapabilities, error) {
	return list[llm.ModelCapabilities](ctx, c, "/v1/capabilities")
}

// CreditsBalance returns the account's credit balance.
func (c *Client) CreditsBalance(ctx context.Context) (*llm.CreditsBalance, error) {
	return call[llm.CreditsBalance](ctx, c, http.MethodGet, "/v1/credits/balance", nil)
}

// CreditsHistory returns one page of credit history.
func (c *Client) CreditsHistory(ctx context.Context, opts CreditsHistoryOptions) (*llm.CreditsHistory, error) {
	return query[llm.CreditsHistory](ctx, c, "/v1/credits/history", opts.values())
}

// CreditsStats returns aggregated credit usage.
func (c *Client) CreditsStats(ctx context.Context, opts CreditsStatsOptions) (*llm.CreditsStats, error) {
	return query[llm.CreditsStats](ctx, c, "/v1/credits/stats", opts.values())
}

// Health returns the gateway health payload.
func (c *Client) Health(ctx context.Context) (*llm.HealthStatus, error) {
	return call[llm.HealthStatus](ctx, c, http.MethodGet, "/health", nil)
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	resp, err := c.do(ctx, &request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeList[T](resp, path)
}

func query[T any](ctx context.Context, c *Client, path string, q url.Values) (*T, error) {
	resp, err := c.do(ctx, &request{method: http.MethodGet, path: path, query: q})
	if err != nil {
		return nil, err
	}
	return decode[T](resp, path)
}
