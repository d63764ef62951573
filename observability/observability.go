// Package observability records domain-level review events: a report was
// sanitized, an edit was committed, a slice failed to load. Events go to
// structured logs; recording never blocks and never propagates errors, so a
// failing sink can never take the review UI down.
package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ReviewEvent represents a domain-level event to record.
type ReviewEvent struct {
	EventType string
	StudyID   string
	EntityID  string
	Action    string
	Details   string
	Success   bool
}

// EventLogger writes review events.
type EventLogger struct {
	log   *slog.Logger
	newID func() string
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen func() string) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger. A nil slog logger falls back to
// slog.Default().
func NewEventLogger(log *slog.Logger, opts ...EventLoggerOption) *EventLogger {
	if log == nil {
		log = slog.Default()
	}
	l := &EventLogger{
		log:   log,
		newID: func() string { return "evt_" + uuid.NewString() },
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Log records a review event.
func (l *EventLogger) Log(ctx context.Context, ev ReviewEvent) {
	l.log.LogAttrs(ctx, slog.LevelInfo, "review event",
		slog.String("event_id", l.newID()),
		slog.String("event_type", ev.EventType),
		slog.String("study_id", ev.StudyID),
		slog.String("entity_id", ev.EntityID),
		slog.String("action", ev.Action),
		slog.String("details", ev.Details),
		slog.Bool("success", ev.Success),
	)
}
