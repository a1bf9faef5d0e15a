package observability

import (
	"context"
	"log/slog"

	"github.com/zaguanai/zaguan-go/pkg/logger"
)

// LoggingHook writes events to a slog.Logger. Request starts and response
// details are only logged when verbose.
type LoggingHook struct {
	logger  *slog.Logger
	verbose bool
}

// NewLoggingHook returns a LoggingHook writing to l. A nil l discards.
func NewLoggingHook(l *slog.Logger, verbose bool) *LoggingHook {
	return &LoggingHook{
		logger:  logger.OrNop(l),
		verbose: verbose,
	}
}

func (h *LoggingHook) OnRequestStart(ctx context.Context, event RequestEvent) {
	if !h.verbose {
		return
	}

	attrs := []slog.Attr{
		slog.String("request_id", event.RequestID),
		slog.String("method", event.Method),
		slog.String("url", event.URL),
		slog.Int("attempt", event.Attempt),
	}
	if event.Model != "" {
		attrs = append(attrs, slog.String("model", event.Model))
	}
	if event.Streaming {
		attrs = append(attrs, slog.Bool("streaming", true))
	}

	h.logger.LogAttrs(ctx, slog.LevelInfo, "gateway request started", attrs...)
}

func (h *LoggingHook) OnRequestEnd(ctx context.Context, event ResponseEvent) {
	attrs := []slog.Attr{
		slog.String("request_id", event.RequestID),
		slog.Int("status", event.StatusCode),
		slog.Duration("latency", event.Latency),
	}

	if h.verbose {
		if event.Model != "" {
			attrs = append(attrs, slog.String("model", event.Model))
		}
		if event.TotalTokens > 0 {
			attrs = append(attrs,
				slog.Int("prompt_tokens", event.PromptTokens),
				slog.Int("completion_tokens", event.CompletionTokens),
				slog.Int("total_tokens", event.TotalTokens),
			)
		}
		if event.ReasoningTokens > 0 {
			attrs = append(attrs, slog.Int("reasoning_tokens", event.ReasoningTokens))
		}
		if event.Cost > 0 {
			attrs = append(attrs, slog.Float64("cost", event.Cost))
		}
	}

	h.logger.LogAttrs(ctx, slog.LevelInfo, "gateway request completed", attrs...)
}

func (h *LoggingHook) OnRequestError(ctx context.Context, event ErrorEvent) {
	attrs := []slog.Attr{
		slog.String("request_id", event.RequestID),
		slog.String("error_type", event.ErrorType),
	}

	if h.verbose {
		attrs = append(attrs, slog.String("message", event.Message))
		if event.StatusCode != 0 {
			attrs = append(attrs, slog.Int("status", event.StatusCode))
		}
		attrs = append(attrs,
			slog.Int("retry_attempt", event.RetryAttempt),
			slog.Bool("will_retry", event.WillRetry),
		)
	}

	level := slog.LevelError
	if event.WillRetry {
		level = slog.LevelWarn
	}
	h.logger.LogAttrs(ctx, level, "gateway request failed", attrs...)
}
