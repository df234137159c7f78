package viewstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Fetch outcomes passed to a FetchObserver.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeStale    = "stale"
)

// FetchFunc reads a page's full record collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// FetchObserver receives one call per completed fetch.
type FetchObserver interface {
	ObserveFetch(collection, outcome string, d time.Duration)
}

// Options tune a Page.
type Options struct {
	// Timeout bounds each fetch; zero disables the bound.
	Timeout time.Duration
	// Observer may be nil.
	Observer FetchObserver
}

// Page loads one record collection per activation.
// A fetch failure is logged and surfaces as a Ready state with no records.
type Page[T any] struct {
	name  string
	base  context.Context
	fetch FetchFunc[T]
	opts  Options

	mu     sync.Mutex
	state  State[T]
	cancel context.CancelFunc
	ready  chan struct{}
}

// NewPage creates an inactive page. Fetches derive their context from base,
// so cancelling base stops every in-flight read.
// PRE: base and fetch are non-nil; name identifies the collection in logs and metrics
// POST: Page is in Loading at generation 0 until Activate is called
func NewPage[T any](base context.Context, name string, fetch FetchFunc[T], opts Options) *Page[T] {
	return &Page[T]{
		name:  name,
		base:  base,
		fetch: fetch,
		opts:  opts,
		ready: make(chan struct{}),
	}
}

// Name returns the collection name.
func (p *Page[T]) Name() string {
	return p.name
}

// Activate starts a new activation and issues exactly one fetch for it.
// Any previous in-flight fetch is cancelled and its result will be discarded.
// POST: Returns the new generation; State() is Loading for it
func (p *Page[T]) Activate() uint64 {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	gen := p.state.Generation + 1
	p.state = Reduce(p.state, Event[T]{Kind: EventActivated, Generation: gen})

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if p.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(p.base, p.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(p.base)
	}
	p.cancel = cancel
	ready := make(chan struct{})
	p.ready = ready
	p.mu.Unlock()

	go p.run(ctx, cancel, gen, ready)
	return gen
}

// Deactivate cancels the in-flight fetch, if any.
func (p *Page[T]) Deactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// State returns the current snapshot.
func (p *Page[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until the current activation is Ready, ctx is done or d elapses.
// POST: Returns the snapshot at return time and whether it is Ready
func (p *Page[T]) Wait(ctx context.Context, d time.Duration) (State[T], bool) {
	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ready:
	case <-timer.C:
	case <-ctx.Done():
	}
	s := p.State()
	return s, s.Phase == Ready
}

func (p *Page[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, ready chan struct{}) {
	defer cancel()
	start := time.Now()
	records, err := p.fetch(ctx)
	elapsed := time.Since(start)

	outcome := OutcomeOK
	event := Event[T]{Kind: EventLoaded, Generation: gen, Records: records}
	if err != nil {
		event = Event[T]{Kind: EventFailed, Generation: gen, Err: err}
		outcome = OutcomeError
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			outcome = OutcomeCanceled
		}
	}

	// A cancelled fetch leaves the page in Loading; the next activation replaces it.
	p.mu.Lock()
	current := p.state.Phase == Loading && p.state.Generation == gen
	if current && outcome != OutcomeCanceled {
		p.state = Reduce(p.state, event)
		close(ready)
	}
	p.mu.Unlock()

	if !current {
		outcome = OutcomeStale
	}
	switch outcome {
	case OutcomeError:
		slog.Error("fetch_failed",
			"collection", p.name,
			"generation", gen,
			"duration_ms", float64(elapsed.Microseconds())/1000.0,
			"error", err,
		)
	case OutcomeCanceled, OutcomeStale:
		slog.Debug("fetch_discarded", "collection", p.name, "generation", gen, "outcome", outcome)
	}
	if p.opts.Observer != nil {
		p.opts.Observer.ObserveFetch(p.name, outcome, elapsed)
	}
}
