package stream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/logger"
	"github.com/zaguanai/zaguan-go/pkg/stream"
)

const (
	roleChunk  = `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1700000000,"model":"openai/gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":"Hello"}}]}`
	worldChunk = `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1700000000,"model":"openai/gpt-4o-mini","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":"stop"}]}`
)

// trackingBody records whether it was closed.
type trackingBody struct {
	io.Reader
	closed int
}

func (b *trackingBody) Close() error {
	b.closed++
	return nil
}

func body(lines ...string) *trackingBody {
	return &trackingBody{Reader: strings.NewReader(strings.Join(lines, "\n") + "\n")}
}

// failingReader returns data then an error.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

var _ = Describe("Stream", func() {
	It("yields chunks and skips malformed lines and the terminator", func() {
		b := body("data: "+roleChunk, "invalid json", "data: "+worldChunk, "data: [DONE]")
		s := stream.New(b, stream.DecodeChatChunk)

		chunks, err := s.Collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(2))
		Expect(*chunks[0].Choices[0].Delta.Content).To(Equal("Hello"))
		Expect(*chunks[1].Choices[0].FinishReason).To(Equal("stop"))
		Expect(b.closed).To(Equal(1))
	})

	It("yields nothing for a terminator-only stream", func() {
		s := stream.New(body("data: [DONE]"), stream.DecodeChatChunk)

		Expect(s.Next()).To(BeFalse())
		Expect(s.Err()).NotTo(HaveOccurred())
	})

	It("skips data payloads that are not valid JSON", func() {
		var logs bytes.Buffer
		l := logger.New(logger.WithWriter(&logs), logger.WithDebug(true))
		s := stream.New(body(`data: {"id": "chatcmpl-1", "obj`, "data: "+roleChunk), stream.DecodeChatChunk, stream.WithLogger(l))

		chunks, err := s.Collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(1))
		Expect(logs.String()).To(ContainSubstring("skipping malformed stream frame"))
	})

	It("stops with a parse error on schema-invalid payloads", func() {
		b := body("data: "+roleChunk, `data: {"id":"x","choices":[]}`, "data: "+worldChunk)
		s := stream.New(b, stream.DecodeChatChunk)

		Expect(s.Next()).To(BeTrue())
		Expect(s.Next()).To(BeFalse())

		var perr *apierror.StreamParseError
		Expect(errors.As(s.Err(), &perr)).To(BeTrue())
		Expect(perr.Payload).To(Equal(`{"id":"x","choices":[]}`))
		Expect(errors.Is(s.Err(), apierror.ErrZaguan)).To(BeTrue())

		var verr *llm.ValidationError
		Expect(errors.As(s.Err(), &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("object"))

		Expect(s.Next()).To(BeFalse())
		Expect(b.closed).To(Equal(1))
	})

	It("treats a valid JSON array as a schema error", func() {
		s := stream.New(body(`data: [1,2]`), stream.DecodeChatChunk)
		_, err := s.Collect()

		var perr *apierror.StreamParseError
		Expect(errors.As(err, &perr)).To(BeTrue())
	})

	It("returns the events read before an error from Collect", func() {
		s := stream.New(body("data: "+roleChunk, `data: {}`), stream.DecodeChatChunk)
		chunks, err := s.Collect()

		Expect(err).To(HaveOccurred())
		Expect(chunks).To(HaveLen(1))
	})

	It("closes the body when a range loop breaks early", func() {
		b := body("data: "+roleChunk, "data: "+worldChunk)
		s := stream.New(b, stream.DecodeChatChunk)

		for range s.All() {
			break
		}
		Expect(b.closed).To(Equal(1))
		Expect(s.Next()).To(BeFalse())
	})

	It("ends iteration when closed", func() {
		b := body("data: "+roleChunk, "data: "+worldChunk)
		s := stream.New(b, stream.DecodeChatChunk)

		Expect(s.Next()).To(BeTrue())
		Expect(s.Close()).To(Succeed())
		Expect(s.Close()).To(Succeed())
		Expect(s.Next()).To(BeFalse())
		Expect(s.Err()).NotTo(HaveOccurred())
		Expect(b.closed).To(Equal(1))
	})

	It("wraps read failures", func() {
		r := &failingReader{data: []byte("data: " + roleChunk + "\n"), err: errors.New("connection reset")}
		s := stream.New(io.NopCloser(r), stream.DecodeChatChunk)

		Expect(s.Next()).To(BeTrue())
		Expect(s.Next()).To(BeFalse())
		Expect(s.Err()).To(MatchError(ContainSubstring("connection reset")))
	})

	It("reports cancellation instead of the read failure", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := &failingReader{err: errors.New("use of closed network connection")}
		s := stream.New(io.NopCloser(r), stream.DecodeChatChunk, stream.WithContext(ctx))

		Expect(s.Next()).To(BeFalse())
		Expect(s.Err()).To(MatchError(context.Canceled))
	})

	It("copies raw bytes to a tee", func() {
		var tee bytes.Buffer
		s := stream.New(body("data: "+roleChunk, "data: [DONE]"), stream.DecodeChatChunk, stream.WithTee(&tee))

		_, err := s.Collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(tee.String()).To(Equal("data: " + roleChunk + "\ndata: [DONE]\n"))
	})

	Context("with native Anthropic events", func() {
		It("decodes events following event lines", func() {
			b := body(
				"event: message_start",
				`data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"anthropic/claude","usage":{"input_tokens":3,"output_tokens":0}}}`,
				"",
				"event: content_block_delta",
				`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`,
				"",
				"event: message_stop",
				`data: {"type":"message_stop"}`,
			)
			s := stream.New(b, stream.DecodeMessagesEvent)

			events, err := s.Collect()
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(3))
			Expect(events[0].Message.ID).To(Equal("msg_1"))
			Expect(events[1].Delta.Text).To(Equal("Hi"))
			Expect(events[2].Type).To(Equal("message_stop"))
		})

		It("rejects events without a type", func() {
			s := stream.New(body(`data: {"index":0}`), stream.DecodeMessagesEvent)
			_, err := s.Collect()

			var perr *apierror.StreamParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})
	})
})
