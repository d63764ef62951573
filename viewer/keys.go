package viewer

import "strings"

// Key is a keyboard event as reported by the host UI.
type Key struct {
	// Name is the key name: "left", "right", "j", "k", ... Arrow keys may
	// also arrive as "arrowleft"/"arrowright". Matching is case-insensitive.
	Name string
	// FromTextInput is set when keyboard focus is inside a text-editing
	// control. Navigation keys are ignored then so editing is never
	// hijacked.
	FromTextInput bool
}

var (
	defaultPrevKeys = []string{"left", "arrowleft", "j"}
	defaultNextKeys = []string{"right", "arrowright", "k"}
)

// HandleKey applies the navigation key bindings: left/j for the previous
// slice, right/k for the next. Events from text inputs are ignored, as are
// all events while the sequence has one or zero slices. Returns true when
// the event was consumed.
func (s *Session) HandleKey(k Key) bool {
	if k.FromTextInput {
		return false
	}
	s.mu.Lock()
	n := len(s.refs)
	s.mu.Unlock()
	if n <= 1 {
		return false
	}

	name := strings.ToLower(strings.TrimSpace(k.Name))
	switch {
	case matchKey(name, s.opts.PrevKeys):
		s.Previous()
		return true
	case matchKey(name, s.opts.NextKeys):
		s.Next()
		return true
	}
	return false
}

func matchKey(name string, set []string) bool {
	for _, k := range set {
		if name == k {
			return true
		}
	}
	return false
}
