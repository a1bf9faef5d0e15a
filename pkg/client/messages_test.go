package client_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
	"github.com/zaguanai/zaguan-go/pkg/client"
	"github.com/zaguanai/zaguan-go/pkg/gatewaytest"
	"github.com/zaguanai/zaguan-go/pkg/llm"
)

const batchJSON = `{"id":"msgbatch_1","type":"message_batch","processing_status":"in_progress","request_counts":{"processing":2},"created_at":"2026-10-19T00:00:00Z","expires_at":"2026-10-20T00:00:00Z"}`

var _ = Describe("Messages API", func() {
	var (
		srv *gatewaytest.Server
		c   *client.Client
		ctx context.Context
		req *llm.MessagesRequest
	)

	BeforeEach(func() {
		srv = startGateway()
		c = newClient(srv)
		ctx = context.Background()
		req = &llm.MessagesRequest{
			Model:     "anthropic/claude-3-5-sonnet",
			MaxTokens: 256,
			Messages:  []llm.AnthropicMessage{llm.NewAnthropicTextMessage("user", "Hi")},
		}
	})

	It("sends a native messages request", func() {
		srv.Handle(http.MethodPost, "/v1/messages", raw(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude",
			"content": [{"type": "thinking", "thinking": "hmm"}, {"type": "text", "text": "Hello"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`))

		resp, err := c.Messages(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Text()).To(Equal("Hello"))
		Expect(resp.Usage.OutputTokens).To(Equal(2))

		last := srv.Last()
		Expect(last.Header.Get("Anthropic-Version")).To(Equal(llm.AnthropicVersion))
		Expect(string(last.Body)).To(MatchJSON(`{
			"model": "anthropic/claude-3-5-sonnet",
			"max_tokens": 256,
			"messages": [{"role": "user", "content": [{"type": "text", "text": "Hi"}]}]
		}`))
	})

	It("streams native events", func() {
		srv.Handle(http.MethodPost, "/v1/messages", gatewaytest.Reply{
			Status: http.StatusOK,
			Events: []string{
				"event: message_start",
				`data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude","usage":{"input_tokens":5,"output_tokens":0}}}`,
				"",
				"event: content_block_delta",
				`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
				"",
				"event: content_block_delta",
				`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
				"",
				"event: message_stop",
				`data: {"type":"message_stop"}`,
				"",
			},
		})

		s, err := c.MessagesStream(ctx, req)
		Expect(err).NotTo(HaveOccurred())

		var text string
		var types []string
		for ev, err := range s.All() {
			Expect(err).NotTo(HaveOccurred())
			types = append(types, ev.Type)
			if ev.Delta != nil {
				text += ev.Delta.Text
			}
		}
		Expect(types).To(Equal([]string{"message_start", "content_block_delta", "content_block_delta", "message_stop"}))
		Expect(text).To(Equal("Hello"))

		var body llm.MessagesRequest
		Expect(srv.Last().Decode(&body)).To(Succeed())
		Expect(body.Stream).To(HaveValue(BeTrue()))
		Expect(req.Stream).To(BeNil())
	})

	It("counts tokens", func() {
		srv.Handle(http.MethodPost, "/v1/messages/count_tokens", raw(`{"input_tokens":42}`))

		resp, err := c.CountTokens(ctx, &llm.CountTokensRequest{Model: req.Model, Messages: req.Messages})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.InputTokens).To(Equal(42))
	})

	Describe("batches", func() {
		It("creates, reads, lists and cancels batches", func() {
			srv.Handle(http.MethodPost, "/v1/messages/batches", raw(batchJSON))
			srv.Handle(http.MethodGet, "/v1/messages/batches/msgbatch_1", raw(batchJSON))
			srv.Handle(http.MethodGet, "/v1/messages/batches", raw(`{"data":[`+batchJSON+`],"has_more":false,"first_id":"msgbatch_1","last_id":"msgbatch_1"}`))
			srv.Handle(http.MethodPost, "/v1/messages/batches/msgbatch_1/cancel",
				raw(`{"id":"msgbatch_1","type":"message_batch","processing_status":"canceling","request_counts":{},"created_at":"x","expires_at":"y"}`))

			created, err := c.CreateMessagesBatch(ctx, &llm.BatchRequest{
				Requests: []llm.BatchItem{{CustomID: "a", Params: *req}, {CustomID: "b", Params: *req}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(Equal("msgbatch_1"))
			Expect(created.RequestCounts).To(HaveKeyWithValue("processing", 2))

			got, err := c.GetMessagesBatch(ctx, "msgbatch_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ProcessingStatus).To(Equal("in_progress"))

			page, err := c.ListMessagesBatches(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Data).To(HaveLen(1))
			Expect(page.LastID).To(Equal("msgbatch_1"))

			canceled, err := c.CancelMessagesBatch(ctx, "msgbatch_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(canceled.ProcessingStatus).To(Equal("canceling"))

			for _, r := range srv.Requests() {
				Expect(r.Header.Get("Anthropic-Version")).To(Equal(llm.AnthropicVersion))
			}
		})

		It("yields non-blank result lines", func() {
			srv.Handle(http.MethodGet, "/v1/messages/batches/msgbatch_1/results", gatewaytest.Reply{
				Status: http.StatusOK,
				Body:   []byte("{\"custom_id\":\"a\"}\n\n  {\"custom_id\":\"b\"}  \n"),
			})

			var lines []string
			for line, err := range c.MessagesBatchResults(ctx, "msgbatch_1") {
				Expect(err).NotTo(HaveOccurred())
				lines = append(lines, line)
			}
			Expect(lines).To(Equal([]string{`{"custom_id":"a"}`, `{"custom_id":"b"}`}))
		})

		It("stops early when the consumer breaks", func() {
			srv.Handle(http.MethodGet, "/v1/messages/batches/msgbatch_1/results", gatewaytest.Reply{
				Status: http.StatusOK,
				Body:   []byte("1\n2\n3\n"),
			})

			var lines []string
			for line := range c.MessagesBatchResults(ctx, "msgbatch_1") {
				lines = append(lines, line)
				break
			}
			Expect(lines).To(Equal([]string{"1"}))
		})

		It("yields the gateway error for missing results", func() {
			srv.Handle(http.MethodGet, "/v1/messages/batches/nope/results",
				gatewaytest.Error(http.StatusNotFound, "not_found_error", "no such batch", nil))

			var errs []error
			for line, err := range c.MessagesBatchResults(ctx, "nope") {
				Expect(line).To(BeEmpty())
				errs = append(errs, err)
			}
			Expect(errs).To(HaveLen(1))

			var apiErr *apierror.APIError
			Expect(errors.As(errs[0], &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusNotFound))
			Expect(apiErr.Message).To(Equal("no such batch"))
		})
	})
})
