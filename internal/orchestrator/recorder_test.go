package orchestrator

import "sync"

// Recorder keeps every event in memory.
type Recorder struct {
	emitter
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	r := &Recorder{}
	r.emitter = func(e Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	}
	return r
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Kinds() []EventKind {
	events := r.Events()
	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
