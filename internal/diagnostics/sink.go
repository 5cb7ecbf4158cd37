package diagnostics

import (
	"context"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

// NoopSink drops events
type NoopSink struct{}

func (NoopSink) Emit(context.Context, *domain.DiagnosticEvent) {}

// LogSink writes events through the structured logger
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("component", "diagnostics")}
}

func (s *LogSink) Emit(ctx context.Context, event *domain.DiagnosticEvent) {
	args := []any{
		"action", string(event.Action),
		"severity", string(event.Severity),
		"at", event.Timestamp,
	}
	if event.UserID != 0 {
		args = append(args, "user_id", event.UserID)
	}
	if event.Method != "" {
		args = append(args, "method", string(event.Method))
	}
	if event.ErrorMsg != "" {
		args = append(args, "error", event.ErrorMsg)
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}

	switch event.Severity {
	case domain.SeverityError:
		s.log.Error(ctx, "diagnostic event", args...)
	case domain.SeverityWarning:
		s.log.Warn(ctx, "diagnostic event", args...)
	default:
		s.log.Info(ctx, "diagnostic event", args...)
	}
}

// FanoutSink emits every event to each of its sinks in order
type FanoutSink []Sink

func (f FanoutSink) Emit(ctx context.Context, event *domain.DiagnosticEvent) {
	for _, s := range f {
		s.Emit(ctx, event)
	}
}
