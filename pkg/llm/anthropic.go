package llm

import (
	"bytes"
	"encoding/json"
)

// AnthropicVersion is sent as the anthropic-version header on native
// Messages API calls.
const AnthropicVersion = "2023-06-01"

// ContentBlock is one block of Anthropic message content.
type ContentBlock struct {
	Type      string          `json:"type"` // "text", "thinking", "tool_use", "tool_result", "image"
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Source    map[string]any  `json:"source,omitempty"`
}

// AnthropicMessage is a message in the native Messages API. Content given as a
// bare string on the wire is decoded into a single text block.
type AnthropicMessage struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []ContentBlock `json:"content"`
}

// NewAnthropicTextMessage builds a single-text-block message.
func NewAnthropicTextMessage(role, text string) AnthropicMessage {
	return AnthropicMessage{
		Role:    role,
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

// UnmarshalJSON accepts content as a string or a block array.
func (m *AnthropicMessage) UnmarshalJSON(data []byte) error {
	var w struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	m.Role = w.Role
	m.Content = nil

	raw := bytes.TrimSpace(w.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		m.Content = []ContentBlock{{Type: "text", Text: s}}
		return nil
	}
	return json.Unmarshal(raw, &m.Content)
}

// ThinkingConfig enables extended thinking.
type ThinkingConfig struct {
	Type         string `json:"type"` // "enabled" or "disabled"
	BudgetTokens *int   `json:"budget_tokens,omitempty"`
}

// AnthropicUsage contains Messages API token counts.
type AnthropicUsage struct {
	InputTokens              int  `json:"input_tokens"`
	OutputTokens             int  `json:"output_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens,omitempty"`
}

// MessagesRequest is a native Anthropic Messages API request.
type MessagesRequest struct {
	Model         string             `json:"model"`
	Messages      []AnthropicMessage `json:"messages"`
	MaxTokens     int                `json:"max_tokens"`
	System        any                `json:"system,omitempty"` // string or block list
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	TopK          *int               `json:"top_k,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Stream        *bool              `json:"stream,omitempty"`
	Thinking      *ThinkingConfig    `json:"thinking,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
	Tools         []map[string]any   `json:"tools,omitempty"`
	ToolChoice    any                `json:"tool_choice,omitempty"`
}

// MessagesResponse is a native Anthropic Messages API response.
type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason,omitempty"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        AnthropicUsage `json:"usage"`
}

// Text concatenates the response's text blocks.
func (r *MessagesResponse) Text() string {
	var buf bytes.Buffer
	for _, block := range r.Content {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}
	return buf.String()
}

// MessagesDelta is the delta carried by content_block_delta and message_delta
// events.
type MessagesDelta struct {
	Type         string `json:"type,omitempty"`
	Text         string `json:"text,omitempty"`
	Thinking     string `json:"thinking,omitempty"`
	PartialJSON  string `json:"partial_json,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

// MessagesStreamEvent is one event of a native Messages stream: message_start,
// content_block_start, content_block_delta, content_block_stop, message_delta,
// message_stop, ping or error.
type MessagesStreamEvent struct {
	Type         string            `json:"type"`
	Message      *MessagesResponse `json:"message,omitempty"`
	Index        *int              `json:"index,omitempty"`
	ContentBlock *ContentBlock     `json:"content_block,omitempty"`
	Delta        *MessagesDelta    `json:"delta,omitempty"`
	Usage        *AnthropicUsage   `json:"usage,omitempty"`
}

// ParseMessagesStreamEvent decodes and validates a native stream event. Only
// the type member is required.
func ParseMessagesStreamEvent(data []byte) (*MessagesStreamEvent, error) {
	fields, err := objectFields("MessagesStreamEvent", data)
	if err != nil {
		return nil, err
	}
	if err := requireFields("MessagesStreamEvent", fields, []string{"type"}); err != nil {
		return nil, err
	}

	var event MessagesStreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, &ValidationError{Type: "MessagesStreamEvent", Err: err}
	}
	return &event, nil
}

// CountTokensRequest asks how many input tokens a request would use.
type CountTokensRequest struct {
	Model    string             `json:"model"`
	Messages []AnthropicMessage `json:"messages"`
	System   any                `json:"system,omitempty"`
	Tools    []map[string]any   `json:"tools,omitempty"`
}

// CountTokensResponse carries the input token count.
type CountTokensResponse struct {
	InputTokens int `json:"input_tokens"`
}

// BatchItem is one request in a Messages batch.
type BatchItem struct {
	CustomID string          `json:"custom_id"`
	Params   MessagesRequest `json:"params"`
}

// BatchRequest creates a Messages batch.
type BatchRequest struct {
	Requests []BatchItem `json:"requests"`
}

// BatchResponse describes a Messages batch.
type BatchResponse struct {
	ID                string         `json:"id"`
	Type              string         `json:"type"`
	ProcessingStatus  string         `json:"processing_status"` // "in_progress", "canceling", "ended"
	RequestCounts     map[string]int `json:"request_counts"`
	EndedAt           string         `json:"ended_at,omitempty"`
	CreatedAt         string         `json:"created_at"`
	ExpiresAt         string         `json:"expires_at"`
	CancelInitiatedAt string         `json:"cancel_initiated_at,omitempty"`
	ResultsURL        string         `json:"results_url,omitempty"`
}

// BatchList is one page of batches.
type BatchList struct {
	Data    []BatchResponse `json:"data"`
	HasMore bool            `json:"has_more"`
	FirstID string          `json:"first_id,omitempty"`
	LastID  string          `json:"last_id,omitempty"`
}
