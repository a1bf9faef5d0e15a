package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChatChunk is a single streaming chat completion event, the decoded payload of
// one SSE data frame.
type ChatChunk struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

// ValidationError reports a payload that is valid JSON but does not satisfy
// the schema of the type it was decoded into.
type ValidationError struct {
	Type  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("invalid %s: field %q: %v", e.Type, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("invalid %s: missing required field %q", e.Type, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("invalid %s: %v", e.Type, e.Err)
	default:
		return "invalid " + e.Type
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var (
	chatChunkRequired = []string{"id", "object", "created", "model", "choices"}
	choiceRequired    = []string{"index"}
)

// ParseChatChunk decodes and validates a chat completion chunk. The payload
// must be a JSON object carrying id, object, created, model and choices, and
// every choice must carry an index. Type mismatches (a string "created", say)
// are reported as validation errors too.
func ParseChatChunk(data []byte) (*ChatChunk, error) {
	fields, err := objectFields("ChatChunk", data)
	if err != nil {
		return nil, err
	}
	if err := requireFields("ChatChunk", fields, chatChunkRequired); err != nil {
		return nil, err
	}

	var rawChoices []json.RawMessage
	if err := json.Unmarshal(fields["choices"], &rawChoices); err != nil {
		return nil, &ValidationError{Type: "ChatChunk", Field: "choices", Err: err}
	}
	for _, raw := range rawChoices {
		choice, err := objectFields("Choice", raw)
		if err != nil {
			return nil, err
		}
		if err := requireFields("Choice", choice, choiceRequired); err != nil {
			return nil, err
		}
	}

	var chunk ChatChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, &ValidationError{Type: "ChatChunk", Err: err}
	}

	return &chunk, nil
}

// objectFields splits a JSON object into its raw members.
func objectFields(typ string, data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ValidationError{Type: typ, Err: err}
	}
	if fields == nil {
		return nil, &ValidationError{Type: typ, Err: fmt.Errorf("expected an object, got null")}
	}
	return fields, nil
}

// requireFields checks that every named member is present and not null.
func requireFields(typ string, fields map[string]json.RawMessage, names []string) error {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return &ValidationError{Type: typ, Field: name}
		}
	}
	return nil
}
