package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message roles accepted by the gateway.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleFunction  = "function"
	RoleDeveloper = "developer"
)

// Message represents a single message in an OpenAI-compatible conversation.
//
// Role is optional so the same type can carry streaming deltas, where only the
// first delta of a choice names the role. Content distinguishes "absent" (nil)
// from "empty" (pointer to ""). Multimodal content is carried in Parts; when
// Parts is non-nil it takes precedence over Content on the wire.
type Message struct {
	Role         string        `json:"role,omitempty"`
	Content      *string       `json:"-"`
	Parts        []ContentPart `json:"-"`
	Name         string        `json:"name,omitempty"`
	ToolCallID   string        `json:"tool_call_id,omitempty"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// ContentPart is one element of a multimodal message content array.
type ContentPart struct {
	Type     string    `json:"type"` // "text", "image_url", "input_audio"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by URL or data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ToolCall is a function invocation requested by the model. In streaming
// deltas a ToolCall is a fragment: Index identifies the call and Arguments
// arrive in pieces.
type ToolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: &text,
	}
}

// GetText returns the text content of the message. For multimodal messages the
// text parts are concatenated.
func (m *Message) GetText() string {
	if m.Parts != nil {
		var result string
		for _, part := range m.Parts {
			if part.Type == "text" {
				result += part.Text
			}
		}
		return result
	}
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// messageWire is the on-the-wire shape of a Message.
type messageWire struct {
	Role         string          `json:"role,omitempty"`
	Content      json.RawMessage `json:"content,omitempty"`
	Name         string          `json:"name,omitempty"`
	ToolCallID   string          `json:"tool_call_id,omitempty"`
	ToolCalls    []ToolCall      `json:"tool_calls,omitempty"`
	FunctionCall *FunctionCall   `json:"function_call,omitempty"`
}

// MarshalJSON encodes content as a string or as a content part array.
func (m Message) MarshalJSON() ([]byte, error) {
	w := messageWire{
		Role:         m.Role,
		Name:         m.Name,
		ToolCallID:   m.ToolCallID,
		ToolCalls:    m.ToolCalls,
		FunctionCall: m.FunctionCall,
	}

	var err error
	switch {
	case m.Parts != nil:
		w.Content, err = json.Marshal(m.Parts)
	case m.Content != nil:
		w.Content, err = json.Marshal(*m.Content)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(w)
}

// UnmarshalJSON accepts content as a string, a content part array, or null.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*m = Message{
		Role:         w.Role,
		Name:         w.Name,
		ToolCallID:   w.ToolCallID,
		ToolCalls:    w.ToolCalls,
		FunctionCall: w.FunctionCall,
	}

	raw := bytes.TrimSpace(w.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		m.Content = &s
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(raw, &parts); err != nil {
			return err
		}
		m.Parts = parts
	default:
		return fmt.Errorf("message content must be a string or an array, got %s", raw)
	}

	return nil
}
