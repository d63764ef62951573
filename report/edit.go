package report

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dundysm/spine-ai-app/observability"
)

// EditOptions configures an EditSession.
type EditOptions struct {
	// OnCommit receives the new sanitized HTML after every commit. The
	// external collaborator holding report state persists it; the session
	// does not.
	OnCommit func(html string)
	// Events, when set, records commits.
	Events *observability.EventLogger
	// StudyID identifies the study in events.
	StudyID string
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

// EditSession toggles between the read-only structured view of the live
// Document and a raw-HTML edit buffer. The session is the only writer of
// the live Document and replaces it atomically on commit.
type EditSession struct {
	opts EditOptions

	mu       sync.Mutex
	doc      Document
	buffer   string
	viewMode bool // true = read-only display
}

// NewEditSession starts in view mode over the given raw report.
func NewEditSession(raw string, opts EditOptions) *EditSession {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &EditSession{
		opts:     opts,
		doc:      NewDocument(raw),
		viewMode: true,
	}
}

// Document returns the live document snapshot.
func (e *EditSession) Document() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// ViewMode reports whether the session is displaying (true) or editing.
func (e *EditSession) ViewMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewMode
}

// Buffer returns the current edit buffer.
func (e *EditSession) Buffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer
}

// SetBuffer replaces the edit buffer with the editor's current content.
func (e *EditSession) SetBuffer(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = s
}

// EnterEdit copies the displayed HTML into the edit buffer and leaves view
// mode. Re-entering while already editing resets the buffer, which is how
// an abandoned edit is discarded.
func (e *EditSession) EnterEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = e.doc.HTML
	e.viewMode = false
}

// CancelEdit leaves edit mode without committing.
func (e *EditSession) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = ""
	e.viewMode = true
}

// Replace swaps in a new raw report (a fresh analysis result), dropping any
// in-progress edit.
func (e *EditSession) Replace(raw string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = NewDocument(raw)
	e.buffer = ""
	e.viewMode = true
}

// Commit sanitizes the edit buffer, atomically replaces the live Document,
// returns to view mode, and hands the new HTML to the OnCommit collaborator.
func (e *EditSession) Commit() {
	e.mu.Lock()
	buf := e.buffer
	doc := NewDocument(buf)
	e.doc = doc
	e.buffer = ""
	e.viewMode = true
	e.mu.Unlock()

	e.opts.Logger.Debug("report: edit committed", "study", e.opts.StudyID, "bytes", len(doc.HTML))
	if e.opts.Events != nil {
		e.opts.Events.Log(context.Background(), observability.ReviewEvent{
			EventType: "report_edit_committed",
			StudyID:   e.opts.StudyID,
			Action:    "commit",
			Success:   true,
		})
	}
	if e.opts.OnCommit != nil {
		e.opts.OnCommit(doc.HTML)
	}
}
