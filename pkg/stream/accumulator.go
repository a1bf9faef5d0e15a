package stream

import (
	"strings"

	"github.com/zaguanai/zaguan-go/pkg/llm"
)

// ChunkMetadata is the identity of a streamed completion, taken from the
// first chunk seen.
type ChunkMetadata struct {
	ID      string
	Object  string
	Created int64
	Model   string
}

// Accumulator rebuilds a complete assistant message from streamed chat
// chunks. It is single-owner: calls must not be made concurrently.
//
// Fragments from every choice are folded together, so an accumulator should
// only be fed streams with a single choice (n=1).
type Accumulator struct {
	meta   ChunkMetadata
	seen   bool
	role   string
	parts  []string
	tools  []llm.ToolCall
	finish *string
	usage  *llm.Usage
}

// NewAccumulator returns an empty Accumulator. The zero value is also ready
// to use.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// AddChunk folds a chunk into the accumulated state. Identity fields are kept
// from the first chunk; role and finish reason are last-wins; content and tool
// call fragments are appended in arrival order.
func (a *Accumulator) AddChunk(chunk *llm.ChatChunk) {
	if chunk == nil {
		return
	}

	if !a.seen {
		a.seen = true
		a.meta = ChunkMetadata{
			ID:      chunk.ID,
			Object:  chunk.Object,
			Created: chunk.Created,
			Model:   chunk.Model,
		}
	}

	if chunk.Usage != nil {
		a.usage = chunk.Usage
	}

	for _, choice := range chunk.Choices {
		if delta := choice.Delta; delta != nil {
			if delta.Role != "" {
				a.role = delta.Role
			}
			if delta.Content != nil && *delta.Content != "" {
				a.parts = append(a.parts, *delta.Content)
			}
			// Fragments stay a flat list; entries sharing an index or id are
			// not merged.
			a.tools = append(a.tools, delta.ToolCalls...)
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			reason := *choice.FinishReason
			a.finish = &reason
		}
	}
}

// Message returns the reconstructed message. Content is nil when no content
// fragment was ever received and ToolCalls is nil when no tool call fragment
// was.
func (a *Accumulator) Message() llm.Message {
	msg := llm.Message{Role: a.role}

	if len(a.parts) > 0 {
		content := strings.Join(a.parts, "")
		msg.Content = &content
	}
	if len(a.tools) > 0 {
		msg.ToolCalls = append([]llm.ToolCall(nil), a.tools...)
	}

	return msg
}

// Content returns the concatenated content fragments, or "" if there were
// none.
func (a *Accumulator) Content() string {
	return strings.Join(a.parts, "")
}

// FinishReason returns the last finish reason seen, or nil.
func (a *Accumulator) FinishReason() *string {
	return a.finish
}

// Metadata returns the identity captured from the first chunk.
func (a *Accumulator) Metadata() ChunkMetadata {
	return a.meta
}

// Usage returns the usage block of the last chunk that carried one. Gateways
// send it on the final chunk when usage reporting is requested.
func (a *Accumulator) Usage() *llm.Usage {
	return a.usage
}

// Reset clears all state so the accumulator can consume a new stream.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Reconstruct folds chunks into a single message.
func Reconstruct(chunks []*llm.ChatChunk) llm.Message {
	var acc Accumulator
	for _, chunk := range chunks {
		acc.AddChunk(chunk)
	}
	return acc.Message()
}
