package pulse

import (
	"sync"
	"testing"
	"time"

	"github.com/fk1blow/haplea/internal/draft"
)

const testClear = 40 * time.Millisecond

// recorder collects emitted transitions.
type recorder struct {
	mu     sync.Mutex
	values []bool
}

func (r *recorder) record(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) all() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool{}, r.values...)
}

func TestMachine_TriggerThenAutoClear(t *testing.T) {
	m := NewMachine(testClear)
	defer m.Close()
	rec := &recorder{}
	m.OnTransition(rec.record)

	m.Trigger(true)

	if !m.State() {
		t.Error("state after trigger = false, want true")
	}
	if !m.Active() {
		t.Error("machine should be active after trigger")
	}

	time.Sleep(3 * testClear)

	if m.State() {
		t.Error("state after auto-clear = true, want false")
	}
	if m.Active() {
		t.Error("machine should be idle after auto-clear")
	}
	if got := rec.all(); len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("emissions = %v, want [true false]", got)
	}
}

func TestMachine_SupersededByEdit(t *testing.T) {
	m := NewMachine(testClear)
	defer m.Close()
	rec := &recorder{}
	m.OnTransition(rec.record)

	m.Trigger(true)
	m.NoteEdit()

	// The edit clears the state well before the auto-clear deadline.
	if m.State() {
		t.Error("state after edit = true, want false")
	}

	// The original timer must never fire an extra emission.
	time.Sleep(3 * testClear)
	if got := rec.all(); len(got) != 2 {
		t.Errorf("emissions = %v, want exactly [true false]", got)
	}
}

func TestMachine_OnlyFirstEditMatters(t *testing.T) {
	m := NewMachine(testClear)
	defer m.Close()
	rec := &recorder{}
	m.OnTransition(rec.record)

	m.NoteEdit() // edit before any trigger is irrelevant
	m.Trigger(true)
	m.NoteEdit()
	m.NoteEdit() // already idle, no-op

	if got := rec.all(); len(got) != 2 {
		t.Errorf("emissions = %v, want [true false]", got)
	}
}

func TestMachine_SupersededByNewTrigger(t *testing.T) {
	m := NewMachine(testClear)
	defer m.Close()
	rec := &recorder{}
	m.OnTransition(rec.record)

	m.Trigger(true)
	m.Trigger(false)

	// Only the newest pulse's lifecycle is observable: the first pulse's
	// timer is discarded, the second's auto-clear still fires.
	time.Sleep(3 * testClear)

	got := rec.all()
	if len(got) != 3 || got[0] != true || got[1] != false || got[2] != false {
		t.Errorf("emissions = %v, want [true false false]", got)
	}
	if m.State() {
		t.Error("final state = true, want false")
	}
}

func TestMachine_ValidPulseEmitsFalseImmediately(t *testing.T) {
	m := NewMachine(testClear)
	defer m.Close()

	m.Trigger(false)
	if m.State() {
		t.Error("state = true, want false for a valid trigger")
	}
	if !m.Active() {
		t.Error("a valid pulse is still a live pulse")
	}
}

func TestGate_EmptyDraftIsInvalid(t *testing.T) {
	a := draft.NewAggregator(10 * time.Millisecond)
	defer a.Close()
	m := NewMachine(testClear)
	defer m.Close()
	g := NewGate(m, a)

	if g.Save() {
		t.Error("Save on an empty draft should be rejected")
	}
	if !m.State() {
		t.Error("pulse state = false, want true (invalid)")
	}
}

func TestGate_ValidDraftSaves(t *testing.T) {
	a := draft.NewAggregator(10 * time.Millisecond)
	defer a.Close()
	m := NewMachine(testClear)
	defer m.Close()
	g := NewGate(m, a)

	a.Submit("2.5 lei\n4 lei")
	time.Sleep(80 * time.Millisecond)

	if !g.Save() {
		t.Error("Save on a valid draft should be allowed")
	}
	if m.State() {
		t.Error("pulse state = true, want false (valid)")
	}
}

func TestGate_SubTotalDraftIsInvalid(t *testing.T) {
	a := draft.NewAggregator(10 * time.Millisecond)
	defer a.Close()
	m := NewMachine(testClear)
	defer m.Close()
	g := NewGate(m, a)

	a.Submit("only ,20 lei here")
	time.Sleep(80 * time.Millisecond)

	// One line, total 0.2 — below the minimum of 1.
	if g.Save() {
		t.Error("Save below the minimum total should be rejected")
	}
}

func TestGate_EditSupersedesPulse(t *testing.T) {
	a := draft.NewAggregator(10 * time.Millisecond)
	defer a.Close()
	m := NewMachine(testClear)
	defer m.Close()
	g := NewGate(m, a)
	rec := &recorder{}
	m.OnTransition(rec.record)

	g.Save() // empty draft, pulse goes invalid
	a.Submit("5 lei")

	if m.State() {
		t.Error("draft edit should supersede the pulse before auto-clear")
	}
	time.Sleep(3 * testClear)
	if got := rec.all(); len(got) != 2 {
		t.Errorf("emissions = %v, want exactly [true false]", got)
	}
}
