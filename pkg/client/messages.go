package client

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/stream"
)

const (
	messagesPath = "/v1/messages"
	batchesPath  = "/v1/messages/batches"
)

// Messages sends a native Anthropic Messages API request.
func (c *Client) Messages(ctx context.Context, req *llm.MessagesRequest) (*llm.MessagesResponse, error) {
	body := *req
	body.Stream = nil

	r, err := jsonRequest(http.MethodPost, messagesPath, &body)
	if err != nil {
		return nil, err
	}
	r.model = req.Model

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decode[llm.MessagesResponse](resp, messagesPath)
}

// MessagesStream sends req with streaming enabled and returns the native
// event stream. Only the handshake is retried.
func (c *Client) MessagesStream(ctx context.Context, req *llm.MessagesRequest) (*stream.Stream[*llm.MessagesStreamEvent], error) {
	body := *req
	streaming := true
	body.Stream = &streaming

	r, err := jsonRequest(http.MethodPost, messagesPath, &body)
	if err != nil {
		return nil, err
	}
	r.model = req.Model
	r.streaming = true

	resp, err := c.open(ctx, r)
	if err != nil {
		return nil, err
	}

	return stream.New(resp.Body, stream.DecodeMessagesEvent,
		stream.WithContext(ctx),
		stream.WithLogger(c.logger),
	), nil
}

// CountTokens returns the input token count of a prospective request.
func (c *Client) CountTokens(ctx context.Context, req *llm.CountTokensRequest) (*llm.CountTokensResponse, error) {
	return call[llm.CountTokensResponse](ctx, c, http.MethodPost, messagesPath+"/count_tokens", req)
}

// CreateMessagesBatch submits a batch of Messages requests.
func (c *Client) CreateMessagesBatch(ctx context.Context, req *llm.BatchRequest) (*llm.BatchResponse, error) {
	return call[llm.BatchResponse](ctx, c, http.MethodPost, batchesPath, req)
}

// GetMessagesBatch returns the status of a batch.
func (c *Client) GetMessagesBatch(ctx context.Context, batchID string) (*llm.BatchResponse, error) {
	return call[llm.BatchResponse](ctx, c, http.MethodGet, batchPath(batchID), nil)
}

// ListMessagesBatches returns the first page of batches.
func (c *Client) ListMessagesBatches(ctx context.Context) (*llm.BatchList, error) {
	return call[llm.BatchList](ctx, c, http.MethodGet, batchesPath, nil)
}

// CancelMessagesBatch asks the gateway to cancel a batch.
func (c *Client) CancelMessagesBatch(ctx context.Context, batchID string) (*llm.BatchResponse, error) {
	return call[llm.BatchResponse](ctx, c, http.MethodPost, batchPath(batchID)+"/cancel", nil)
}

// MessagesBatchResults streams the JSONL results of an ended batch, one
// non-blank line per element. The handshake runs under the retry policy;
// a failure to open or read the results is yielded as the final element.
func (c *Client) MessagesBatchResults(ctx context.Context, batchID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.open(ctx, &request{
			method: http.MethodGet,
			path:   batchPath(batchID) + "/results",
		})
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), int(c.maxBody))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			yield("", fmt.Errorf("zaguan: reading batch results: %w", err))
		}
	}
}

func batchPath(batchID string) string {
	return batchesPath + "/" + url.PathEscape(batchID)
}
