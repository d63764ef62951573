// Package viewer implements the slice viewing session: one rendering
// surface, one ordered sequence of image references, one current index.
//
// Loads are asynchronous and are never truly cancelled. Every mutation of
// the index, sequence or surface bumps a generation counter; a load carries
// the generation it was issued for and applies its result only if that
// generation is still current at completion time. Stale successes and stale
// failures alike are discarded with no observable effect, so the surface
// always reflects the most recently requested slice even under rapid
// paging.
package viewer

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dundysm/spine-ai-app/engine"
	"github.com/dundysm/spine-ai-app/observability"
)

// Surface is a screen region capable of displaying decoded pixels. It is
// exclusively owned by at most one Session at a time.
type Surface interface {
	// Bind prepares the region for display. Called once per BindSurface.
	Bind() error
	// Present replaces the displayed pixels.
	Present(img image.Image) error
	// Clear blanks the region.
	Clear()
	// Release undoes Bind. Called once per UnbindSurface.
	Release()
}

// State is a snapshot of the session, safe to hand to observers.
type State struct {
	Index        int // -1 when the sequence is empty
	Length       int
	SurfaceBound bool
	Loading      bool
	LastErr      string
}

// Resolver turns an image reference into decoded pixels. The default is
// engine.Resolve.
type Resolver func(ctx context.Context, ref string) (image.Image, error)

// Options configures a Session.
type Options struct {
	// Resolve overrides the engine resolver.
	Resolve Resolver
	// OnChange, when set, receives a state snapshot after every visible
	// transition. It must not call back into the session.
	OnChange func(State)
	// Events, when set, records slice load failures.
	Events *observability.EventLogger
	// StudyID identifies the study in logs and events.
	StudyID string
	// PrevKeys and NextKeys override the navigation key bindings.
	PrevKeys []string
	NextKeys []string
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Resolve == nil {
		o.Resolve = engine.Resolve
	}
	if len(o.PrevKeys) == 0 {
		o.PrevKeys = defaultPrevKeys
	}
	if len(o.NextKeys) == 0 {
		o.NextKeys = defaultNextKeys
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Session owns the viewer state for one study.
type Session struct {
	id   string
	opts Options

	mu      sync.Mutex
	surface Surface
	refs    []string
	idx     int
	gen     uint64
	loading bool
	lastErr string
}

// NewSession creates an inert session: no sequence, no surface.
func NewSession(opts Options) *Session {
	opts.defaults()
	return &Session{
		id:   uuid.NewString(),
		opts: opts,
		idx:  -1,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of the current viewer state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		Index:        s.idx,
		Length:       len(s.refs),
		SurfaceBound: s.surface != nil,
		Loading:      s.loading,
		LastErr:      s.lastErr,
	}
}

// BindSurface binds the session to a rendering surface. It is a no-op when
// a surface is already bound or sf is nil. On bind failure the error is
// recorded and the session stays unbound: the viewer is inert but the rest
// of the application keeps working.
func (s *Session) BindSurface(sf Surface) {
	if sf == nil {
		return
	}
	s.mu.Lock()
	if s.surface != nil {
		s.mu.Unlock()
		return
	}
	if err := sf.Bind(); err != nil {
		s.lastErr = err.Error()
		st := s.stateLocked()
		s.mu.Unlock()
		s.opts.Logger.Warn("viewer: surface bind failed", "session", s.id, "error", err)
		s.notify(st)
		return
	}
	s.surface = sf
	s.gen++
	s.startLoadLocked()
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

// UnbindSurface releases the surface binding. Safe to call when not bound.
func (s *Session) UnbindSurface() {
	s.mu.Lock()
	sf := s.surface
	s.surface = nil
	s.gen++
	s.loading = false
	st := s.stateLocked()
	s.mu.Unlock()
	if sf != nil {
		sf.Release()
	}
	s.notify(st)
}

// SetSequence replaces the image sequence. The index resets to 0 when the
// sequence is non-empty, -1 otherwise. Order is clinically meaningful and
// preserved as supplied.
func (s *Session) SetSequence(refs []string) {
	s.mu.Lock()
	s.refs = append([]string(nil), refs...)
	if len(s.refs) > 0 {
		s.idx = 0
	} else {
		s.idx = -1
	}
	s.gen++
	s.lastErr = ""
	s.startLoadLocked()
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

// GoTo jumps to an index. Out-of-range indices are rejected with no state
// change.
func (s *Session) GoTo(i int) {
	s.mu.Lock()
	if i < 0 || i >= len(s.refs) {
		s.mu.Unlock()
		s.opts.Logger.Debug("viewer: goto out of range", "session", s.id, "index", i)
		return
	}
	s.idx = i
	s.gen++
	s.startLoadLocked()
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

// Next advances one slice, wrapping from the last back to the first. No-op
// when the sequence has one or zero elements.
func (s *Session) Next() { s.step(1) }

// Previous goes back one slice, wrapping from the first to the last. No-op
// when the sequence has one or zero elements.
func (s *Session) Previous() { s.step(-1) }

func (s *Session) step(delta int) {
	s.mu.Lock()
	n := len(s.refs)
	if n <= 1 {
		s.mu.Unlock()
		return
	}
	s.idx = (s.idx + delta + n) % n
	s.gen++
	s.startLoadLocked()
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

// Close tears the session down. Must be called when the hosting view is
// removed.
func (s *Session) Close() {
	s.UnbindSurface()
}

// startLoadLocked issues the asynchronous load-then-display of the slice at
// the current index. Callers hold s.mu. The load is tagged with the current
// generation; completion applies its effect only if the tag is still
// current.
func (s *Session) startLoadLocked() {
	if s.surface == nil || s.idx < 0 || s.idx >= len(s.refs) {
		return
	}
	gen := s.gen
	idx := s.idx
	ref := s.refs[idx]
	s.loading = true
	s.lastErr = ""

	go func() {
		img, err := s.opts.Resolve(context.Background(), ref)

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			s.opts.Logger.Debug("viewer: stale load discarded", "session", s.id, "index", idx)
			return
		}
		if err == nil && s.surface != nil {
			err = s.surface.Present(img)
		}
		s.loading = false
		if err != nil {
			s.lastErr = err.Error()
		}
		st := s.stateLocked()
		s.mu.Unlock()

		if err != nil {
			s.opts.Logger.Warn("viewer: slice load failed", "session", s.id, "index", idx, "error", err)
			if s.opts.Events != nil {
				s.opts.Events.Log(context.Background(), observability.ReviewEvent{
					EventType: "slice_load_failed",
					StudyID:   s.opts.StudyID,
					EntityID:  s.id,
					Action:    "load",
					Details:   err.Error(),
				})
			}
		}
		s.notify(st)
	}()
}

func (s *Session) notify(st State) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(st)
	}
}
