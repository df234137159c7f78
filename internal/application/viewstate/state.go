package viewstate

// Phase is a page's load phase.
type Phase int

const (
	// Loading holds from activation until the activation's fetch completes.
	Loading Phase = iota
	// Ready holds once the fetch completed, successfully or not.
	Ready
)

// String returns the phase name used in JSON and templates.
func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "loading"
}

// State is an immutable snapshot of a page's load state.
// Records is empty when the fetch failed.
type State[T any] struct {
	Phase      Phase
	Generation uint64
	Records    []T
}

// EventKind identifies a state transition request.
type EventKind int

const (
	EventActivated EventKind = iota
	EventLoaded
	EventFailed
)

// Event asks Reduce for a transition on behalf of one activation.
type Event[T any] struct {
	Kind       EventKind
	Generation uint64
	Records    []T
	Err        error
}

// Reduce returns the state after applying e to s.
// PRE: none
// POST: s is never mutated; events for an older or already completed generation
// return s unchanged
// INVARIANT: Ready is entered at most once per generation
func Reduce[T any](s State[T], e Event[T]) State[T] {
	switch e.Kind {
	case EventActivated:
		if e.Generation <= s.Generation {
			return s
		}
		return State[T]{Phase: Loading, Generation: e.Generation}
	case EventLoaded, EventFailed:
		if e.Generation != s.Generation || s.Phase != Loading {
			return s
		}
		records := []T{}
		if e.Kind == EventLoaded && e.Records != nil {
			records = e.Records
		}
		return State[T]{Phase: Ready, Generation: s.Generation, Records: records}
	default:
		return s
	}
}
