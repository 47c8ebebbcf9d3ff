// Package draft owns the live multi-line expense draft and keeps its parsed
// line items and running total consistent with the newest text under a
// debounce window.
package draft

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fk1blow/haplea/internal/grammar"
)

// DefaultQuiet is the debounce window used when none is configured.
const DefaultQuiet = 300 * time.Millisecond

// Snapshot is the result of one completed recompute. It is a pure function
// of the raw text it was computed from.
type Snapshot struct {
	// Raw is the full draft text the snapshot was computed from.
	Raw string `json:"raw"`
	// Lines are the non-empty lines of Raw, in order.
	Lines []string `json:"lines"`
	// Tokens are the monetary tokens matched across the concatenated lines.
	Tokens []grammar.Token `json:"tokens"`
	// Total is the sum of all token amounts; zero when nothing matched.
	Total decimal.Decimal `json:"total"`
}

// Compute parses raw draft text into a Snapshot. It performs no validation
// of currency sanity; negative or absurd amounts pass through as-is.
func Compute(raw string) Snapshot {
	tokens := grammar.ScanLines(raw)
	return Snapshot{
		Raw:    raw,
		Lines:  grammar.Lines(raw),
		Tokens: tokens,
		Total:  grammar.Sum(tokens),
	}
}

// Aggregator debounces draft edits. Submit records the newest text and
// schedules a recompute once a quiet window elapses with no further edits;
// readers always observe the last completed recompute, which may lag the
// newest Submit. A Submit arriving inside the quiet window discards the
// pending recompute, so at most one recompute runs per quiet window and it
// always runs against the newest text.
//
// Stale timers are fenced with a generation counter: each Submit bumps the
// generation, and a fired timer whose generation no longer matches does
// nothing. Recompute results are therefore observed in submission order and
// never go backward.
type Aggregator struct {
	quiet time.Duration

	mu      sync.Mutex
	gen     uint64
	pending string
	timer   *time.Timer
	last    Snapshot
	closed  bool

	onResult []func(Snapshot)
	onEdit   []func()
}

// NewAggregator creates an Aggregator with the given quiet window.
// A non-positive quiet window falls back to DefaultQuiet.
func NewAggregator(quiet time.Duration) *Aggregator {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Aggregator{
		quiet: quiet,
		last:  Compute(""),
	}
}

// Submit records a new draft version and schedules a recompute after the
// quiet window. It never blocks on the recompute itself. Edit listeners are
// notified synchronously on every Submit.
func (a *Aggregator) Submit(raw string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending = raw
	a.gen++
	gen := a.gen
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.quiet, func() { a.recompute(gen) })
	edits := append([]func(){}, a.onEdit...)
	a.mu.Unlock()

	for _, fn := range edits {
		fn()
	}
}

// Snapshot returns the result of the last completed recompute.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// CurrentTotal returns the total of the last completed recompute.
func (a *Aggregator) CurrentTotal() decimal.Decimal {
	return a.Snapshot().Total
}

// CurrentItems returns the tokens of the last completed recompute.
func (a *Aggregator) CurrentItems() []grammar.Token {
	return a.Snapshot().Tokens
}

// OnResult registers a listener invoked after every completed recompute.
// Listeners run outside the aggregator lock, in registration order.
func (a *Aggregator) OnResult(fn func(Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = append(a.onResult, fn)
}

// OnEdit registers a listener invoked synchronously on every Submit,
// before any recompute runs. Used to supersede pending validation pulses.
func (a *Aggregator) OnEdit(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEdit = append(a.onEdit, fn)
}

// Close discards any pending recompute. Further Submit calls are no-ops.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Aggregator) recompute(gen uint64) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	raw := a.pending
	a.mu.Unlock()

	snap := Compute(raw)

	a.mu.Lock()
	if gen != a.gen {
		// A newer Submit raced the compute; its own timer owns the result.
		a.mu.Unlock()
		return
	}
	a.last = snap
	subs := append([]func(Snapshot){}, a.onResult...)
	a.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
