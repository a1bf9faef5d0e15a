package llm

import "encoding/json"

// ModelInfo describes a model exposed by the gateway.
type ModelInfo struct {
	ID          string         `json:"id"`
	Object      string         `json:"object"`
	OwnedBy     string         `json:"owned_by,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ModelCapabilities lists what a model supports.
type ModelCapabilities struct {
	ModelID           string         `json:"model_id"`
	SupportsVision    bool           `json:"supports_vision"`
	SupportsTools     bool           `json:"supports_tools"`
	SupportsReasoning bool           `json:"supports_reasoning"`
	MaxContextTokens  *int           `json:"max_context_tokens,omitempty"`
	ProviderSpecific  map[string]any `json:"provider_specific,omitempty"`
}

// CreditsBalance is the account's current credit balance.
type CreditsBalance struct {
	CreditsRemaining int            `json:"credits_remaining"`
	Tier             string         `json:"tier"`
	Bands            []string       `json:"bands"`
	ResetDate        string         `json:"reset_date,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// CreditsHistoryEntry records the credits debited by a single request.
type CreditsHistoryEntry struct {
	ID               string  `json:"id"`
	Timestamp        string  `json:"timestamp"`
	RequestID        string  `json:"request_id"`
	Model            string  `json:"model"`
	Provider         string  `json:"provider"`
	Band             string  `json:"band"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CreditsDebited   int     `json:"credits_debited"`
	Cost             float64 `json:"cost"`
	LatencyMs        int     `json:"latency_ms"`
	Status           string  `json:"status"`
}

// CreditsHistory is one page of credit history.
type CreditsHistory struct {
	Entries      []CreditsHistoryEntry `json:"entries"`
	TotalEntries int                   `json:"total_entries"`
	NextCursor   string                `json:"next_cursor,omitempty"`
}

// CreditsStats aggregates credit usage over a period.
type CreditsStats struct {
	Period           string           `json:"period"`
	TotalCreditsUsed int              `json:"total_credits_used"`
	TotalCost        float64          `json:"total_cost"`
	ModelBreakdown   []map[string]any `json:"model_breakdown"`
}

// HealthStatus is the gateway /health payload. Fields beyond status are
// gateway-defined and kept in Details.
type HealthStatus struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"-"`
}

// UnmarshalJSON keeps every member of the payload in Details.
func (h *HealthStatus) UnmarshalJSON(data []byte) error {
	var details map[string]any
	if err := json.Unmarshal(data, &details); err != nil {
		return err
	}
	status, _ := details["status"].(string)
	*h = HealthStatus{Status: status, Details: details}
	return nil
}
