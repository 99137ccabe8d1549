package seclog

import "sync"

// Recorder collects entries through a Hook. Used by tests of packages that emit security events.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Hook returns the function to register with WithHook or AddHook.
func (r *Recorder) Hook() Hook {
	return func(e Entry) {
		r.mu.Lock()
		r.entries = append(r.entries, e)
		r.mu.Unlock()
	}
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Events returns entries carrying the given event.
func (r *Recorder) Events(ev Event) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Event == ev {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
