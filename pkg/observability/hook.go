package observability

import "context"

// Hook receives request lifecycle events. Hooks run synchronously on the
// calling goroutine and must be safe for concurrent use when the client is
// shared.
type Hook interface {
	OnRequestStart(ctx context.Context, event RequestEvent)
	OnRequestEnd(ctx context.Context, event ResponseEvent)
	OnRequestError(ctx context.Context, event ErrorEvent)
}

// Nop is a Hook that does nothing.
type Nop struct{}

func (Nop) OnRequestStart(context.Context, RequestEvent) {}
func (Nop) OnRequestEnd(context.Context, ResponseEvent)  {}
func (Nop) OnRequestError(context.Context, ErrorEvent)   {}

// Composite fans events out to several hooks in order.
type Composite []Hook

// NewComposite drops nil hooks and flattens nested composites.
func NewComposite(hooks ...Hook) Composite {
	out := make(Composite, 0, len(hooks))
	for _, h := range hooks {
		switch v := h.(type) {
		case nil:
		case Composite:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}
	return out
}

func (c Composite) OnRequestStart(ctx context.Context, event RequestEvent) {
	for _, h := range c {
		h.OnRequestStart(ctx, event)
	}
}

func (c Composite) OnRequestEnd(ctx context.Context, event ResponseEvent) {
	for _, h := range c {
		h.OnRequestEnd(ctx, event)
	}
}

func (c Composite) OnRequestError(ctx context.Context, event ErrorEvent) {
	for _, h := range c {
		h.OnRequestError(ctx, event)
	}
}
