package client

import (
	"context"
	"net/http"

	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/stream"
)

const chatCompletionsPath = "/v1/chat/completions"

// Chat sends a chat completion request.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	r, err := jsonRequest(http.MethodPost, chatCompletionsPath, req.WithStream(false))
	if err != nil {
		return nil, err
	}
	r.model = req.Model

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decode[llm.ChatResponse](resp, chatCompletionsPath)
}

// ChatStream sends req with streaming enabled and returns the chunk stream.
// Only the handshake is retried; once the stream is returned, failures
// surface through its Err. The caller must drain or Close the stream.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest) (*stream.Stream[*llm.ChatChunk], error) {
	r, err := jsonRequest(http.MethodPost, chatCompletionsPath, req.WithStream(true))
	if err != nil {
		return nil, err
	}
	r.model = req.Model
	r.streaming = true

	resp, err := c.open(ctx, r)
	if err != nil {
		return nil, err
	}

	return stream.New(resp.Body, stream.DecodeChatChunk,
		stream.WithContext(ctx),
		stream.WithLogger(c.logger),
	), nil
}

// ChatSimple sends a single user message. An empty model means DefaultModel.
func (c *Client) ChatSimple(ctx context.Context, message, model string) (*llm.ChatResponse, error) {
	return c.Chat(ctx, &llm.ChatRequest{
		Model:    modelOrDefault(model),
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, message)},
	})
}

// ChatWithSystem sends a system prompt followed by a user message. An empty
// model means DefaultModel.
func (c *Client) ChatWithSystem(ctx context.Context, systemPrompt, message, model string) (*llm.ChatResponse, error) {
	return c.Chat(ctx, &llm.ChatRequest{
		Model: modelOrDefault(model),
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, systemPrompt),
			llm.NewTextMessage(llm.RoleUser, message),
		},
	})
}

func modelOrDefault(model string) string {
	if model == "" {
		return DefaultModel
	}
	return model
}
