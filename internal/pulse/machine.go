// Package pulse implements the cancellable validation signal that gates the
// draft save action. A pulse is triggered with a fixed invalid flag, stays
// live until an auto-clear deadline, and is superseded the instant a newer
// pulse or a post-trigger draft edit occurs.
package pulse

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fk1blow/haplea/internal/draft"
)

// DefaultClearAfter is the auto-clear deadline used when none is configured.
const DefaultClearAfter = 1000 * time.Millisecond

// Machine is the pulse state machine: Idle until a Trigger makes a pulse
// Active, then back to Idle on auto-clear or supersession. Observable output
// is a boolean sequence; the last emitted value is the current validation
// state. Only the newest pulse ever emits: superseded timers are fenced by
// a generation counter and stay silent.
type Machine struct {
	clearAfter time.Duration

	mu     sync.Mutex
	gen    uint64
	active bool
	state  bool
	timer  *time.Timer

	subs []func(bool)
}

// NewMachine creates a Machine with the given auto-clear deadline.
// A non-positive deadline falls back to DefaultClearAfter.
func NewMachine(clearAfter time.Duration) *Machine {
	if clearAfter <= 0 {
		clearAfter = DefaultClearAfter
	}
	return &Machine{clearAfter: clearAfter}
}

// Trigger starts a new pulse carrying the given invalid flag, immediately
// observable. Any still-active older pulse is silenced: its timer and its
// edit sensitivity are both discarded.
func (m *Machine) Trigger(invalid bool) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	if m.timer != nil {
		m.timer.Stop()
	}
	m.active = true
	m.state = invalid
	m.timer = time.AfterFunc(m.clearAfter, func() { m.autoClear(gen) })
	subs := append([]func(bool){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(invalid)
	}
}

// NoteEdit supersedes a live pulse on the first draft edit after its
// trigger: the pulse emits false and its auto-clear timer is cancelled.
// Edits while Idle are irrelevant.
func (m *Machine) NoteEdit() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.active = false
	m.state = false
	subs := append([]func(bool){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(false)
	}
}

// State returns the last emitted validation value.
func (m *Machine) State() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active reports whether a pulse is currently live.
func (m *Machine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// OnTransition registers a listener for every emitted value, invoked
// outside the machine lock in registration order.
func (m *Machine) OnTransition(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Close silences any live pulse without emitting.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.active = false
}

func (m *Machine) autoClear(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || !m.active {
		// Superseded while the timer was in flight; stay silent.
		m.mu.Unlock()
		return
	}
	m.active = false
	m.state = false
	subs := append([]func(bool){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(false)
	}
}

// Gate couples a Machine to a draft aggregator: Save triggers a pulse from
// the draft's last completed state, and every draft edit supersedes a live
// pulse. The aggregator stays unaware of validation.
type Gate struct {
	machine *Machine
	drafts  *draft.Aggregator
}

var minimumTotal = decimal.NewFromInt(1)

// NewGate wires the machine to the aggregator's edit stream.
func NewGate(m *Machine, a *draft.Aggregator) *Gate {
	a.OnEdit(m.NoteEdit)
	return &Gate{machine: m, drafts: a}
}

// Save triggers a validation pulse for the current draft and reports
// whether the save may proceed. The draft is invalid when it has no lines
// or its total is below one.
func (g *Gate) Save() bool {
	snap := g.drafts.Snapshot()
	invalid := len(snap.Lines) == 0 || snap.Total.LessThan(minimumTotal)
	g.machine.Trigger(invalid)
	return !invalid
}
