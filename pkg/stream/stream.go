// Package stream turns gateway SSE response bodies into typed, pull-based
// event streams and reassembles chat completion chunks into messages.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/logger"
	"github.com/zaguanai/zaguan-go/pkg/sse"
)

// DecodeFunc builds a typed event from a frame whose payload is valid JSON.
// An error means the payload does not match the event schema.
type DecodeFunc[T any] func(frame *sse.Frame) (T, error)

// DecodeChatChunk decodes OpenAI-compatible chat completion chunks.
func DecodeChatChunk(frame *sse.Frame) (*llm.ChatChunk, error) {
	return llm.ParseChatChunk([]byte(frame.Data))
}

// DecodeMessagesEvent decodes native Anthropic Messages stream events.
func DecodeMessagesEvent(frame *sse.Frame) (*llm.MessagesStreamEvent, error) {
	return llm.ParseMessagesStreamEvent([]byte(frame.Data))
}

type options struct {
	ctx    context.Context
	logger *slog.Logger
	tee    io.Writer
}

// Option configures a Stream.
type Option func(*options)

// WithContext ties the stream to the context of the request that produced
// the body, so Err reports cancellation instead of a read error.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithLogger logs skipped frames at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTee copies the raw stream bytes to w as they are read.
func WithTee(w io.Writer) Option {
	return func(o *options) {
		o.tee = w
	}
}

// Stream is a single-pass iterator over the typed events of one response
// body. It is not safe for concurrent use.
//
//	for s.Next() {
//		chunk := s.Current()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream[T any] struct {
	body   io.ReadCloser
	reader *sse.Reader
	decode DecodeFunc[T]
	ctx    context.Context
	logger *slog.Logger

	current T
	err     error
	done    bool
	closed  bool
}

// New returns a Stream reading SSE frames from body. The stream owns body and
// closes it when iteration ends or Close is called.
func New[T any](body io.ReadCloser, decode DecodeFunc[T], opts ...Option) *Stream[T] {
	o := &options{ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}

	return &Stream[T]{
		body:   body,
		reader: sse.NewTeeReader(body, o.tee),
		decode: decode,
		ctx:    o.ctx,
		logger: logger.OrNop(o.logger),
	}
}

// Next advances to the next event. It returns false at the end of the stream
// or on the first error; check Err afterwards.
func (s *Stream[T]) Next() bool {
	if s.done {
		return false
	}

	for {
		frame, err := s.reader.Next()
		if err != nil {
			s.fail(s.readError(err))
			return false
		}
		if frame == nil {
			s.finish()
			return false
		}

		if !json.Valid([]byte(frame.Data)) {
			s.logger.Debug("skipping malformed stream frame",
				"event", frame.Event,
				"bytes", len(frame.Data),
			)
			continue
		}

		v, err := s.decode(frame)
		if err != nil {
			s.fail(&apierror.StreamParseError{
				Event:   frame.Event,
				Payload: frame.Data,
				Err:     err,
			})
			return false
		}

		s.current = v
		return true
	}
}

// Current returns the event produced by the last successful Next.
func (s *Stream[T]) Current() T {
	return s.current
}

// Err returns the error that ended the stream, or nil if it ended normally.
func (s *Stream[T]) Err() error {
	return s.err
}

// Close releases the response body. It is safe to call more than once and
// ends iteration.
func (s *Stream[T]) Close() error {
	s.done = true
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// All adapts the stream to a range-over-func iterator. A terminal error is
// yielded once as the final pair. Breaking out of the loop closes the stream.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()

		for s.Next() {
			if !yield(s.current, nil) {
				return
			}
		}
		if s.err != nil {
			var zero T
			yield(zero, s.err)
		}
	}
}

// Collect drains the stream. On error it returns the events read so far
// together with the error.
func (s *Stream[T]) Collect() ([]T, error) {
	var out []T
	for v, err := range s.All() {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Stream[T]) readError(err error) error {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("zaguan: reading stream: %w", err)
}

func (s *Stream[T]) fail(err error) {
	s.err = err
	s.finish()
}

func (s *Stream[T]) finish() {
	_ = s.Close()
}
