package llm

import (
	"encoding/json"
	"maps"
)

// ChatRequest is an OpenAI-compatible chat completion request with the
// gateway's extensions.
type ChatRequest struct {
	// Model in "provider/model" form (e.g. "openai/gpt-4o-mini").
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Generation parameters
	Temperature      *float64           `json:"temperature,omitempty"`
	MaxTokens        *int               `json:"max_tokens,omitempty"`
	TopP             *float64           `json:"top_p,omitempty"`
	N                *int               `json:"n,omitempty"`
	PresencePenalty  *float64           `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64           `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]float64 `json:"logit_bias,omitempty"`
	Stop             []string           `json:"stop,omitempty"`
	Seed             *int               `json:"seed,omitempty"`
	User             string             `json:"user,omitempty"`
	Metadata         map[string]string  `json:"metadata,omitempty"`

	// Whether to stream the response. The client sets this for streaming calls.
	Stream *bool `json:"stream,omitempty"`

	// StreamOptions only applies to streaming calls.
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	// Tools and structured output
	Tools             []map[string]any `json:"tools,omitempty"`
	ToolChoice        any              `json:"tool_choice,omitempty"` // string or object
	ParallelToolCalls *bool            `json:"parallel_tool_calls,omitempty"`
	ResponseFormat    map[string]any   `json:"response_format,omitempty"`

	// Audio output
	Modalities []string       `json:"modalities,omitempty"`
	Audio      map[string]any `json:"audio,omitempty"`

	// Reasoning models: "minimal", "low", "medium", "high"
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
	Thinking        *bool  `json:"thinking,omitempty"`

	// Gateway extensions
	VirtualModelID string `json:"virtual_model_id,omitempty"`
	Store          *bool  `json:"store,omitempty"`
	Verbosity      string `json:"verbosity,omitempty"`

	// ProviderSpecificParams are forwarded verbatim to the upstream provider.
	ProviderSpecificParams map[string]any `json:"provider_specific_params,omitempty"`

	// ExtraBody is the OpenAI SDK spelling of ProviderSpecificParams. It is
	// merged into provider_specific_params on encode, winning on key conflicts.
	ExtraBody map[string]any `json:"-"`
}

// StreamOptions tunes a streamed response. IncludeUsage asks for a final
// chunk carrying the usage block.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// MarshalJSON merges ExtraBody into provider_specific_params.
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	type alias ChatRequest
	out := alias(r)

	if len(r.ExtraBody) > 0 {
		merged := make(map[string]any, len(r.ProviderSpecificParams)+len(r.ExtraBody))
		maps.Copy(merged, r.ProviderSpecificParams)
		maps.Copy(merged, r.ExtraBody)
		out.ProviderSpecificParams = merged
	}

	return json.Marshal(out)
}

// WithStream returns a shallow copy of the request with Stream set.
func (r ChatRequest) WithStream(stream bool) *ChatRequest {
	r.Stream = &stream
	return &r
}
