package events

import (
	"context"
	"log/slog"
)

// LogEmitter writes events to the structured log. It is the fallback when
// no broker is configured, keeping command code broker-agnostic.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ctx context.Context, name string, payload map[string]any) {
	e.logger.InfoContext(ctx, "booking event", "event", name, "payload", payload)
}
