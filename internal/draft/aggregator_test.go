package draft

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// Short quiet window for temporal tests; waits are several multiples of it.
const testQuiet = 20 * time.Millisecond

func settle() { time.Sleep(8 * testQuiet) }

func TestCompute(t *testing.T) {
	snap := Compute("2.5 lei\ncoffee\n1,20 lei")

	if len(snap.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(snap.Lines))
	}
	if len(snap.Tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(snap.Tokens))
	}
	if want := decimal.RequireFromString("3.7"); !snap.Total.Equal(want) {
		t.Errorf("total = %s, want %s", snap.Total, want)
	}
}

func TestCompute_Empty(t *testing.T) {
	snap := Compute("")
	if len(snap.Lines) != 0 || len(snap.Tokens) != 0 {
		t.Errorf("empty draft should have no lines and no tokens, got %d/%d",
			len(snap.Lines), len(snap.Tokens))
	}
	if !snap.Total.Equal(decimal.Zero) {
		t.Errorf("empty draft total = %s, want 0", snap.Total)
	}
}

func TestAggregator_RecomputeAfterQuietWindow(t *testing.T) {
	a := NewAggregator(testQuiet)
	defer a.Close()

	a.Submit("4 lei\n6 lei")

	// Before the quiet window elapses the last completed result still wins.
	if !a.CurrentTotal().Equal(decimal.Zero) {
		t.Errorf("total before debounce = %s, want 0", a.CurrentTotal())
	}

	settle()

	if want := decimal.NewFromInt(10); !a.CurrentTotal().Equal(want) {
		t.Errorf("total = %s, want %s", a.CurrentTotal(), want)
	}
	if got := len(a.CurrentItems()); got != 2 {
		t.Errorf("got %d items, want 2", got)
	}
}

func TestAggregator_DebounceIdempotence(t *testing.T) {
	a := NewAggregator(testQuiet)
	defer a.Close()

	var recomputes atomic.Int64
	a.OnResult(func(Snapshot) { recomputes.Add(1) })

	// Same text N times inside one quiet window: exactly one recompute.
	for i := 0; i < 5; i++ {
		a.Submit("3 lei")
	}
	settle()

	if got := recomputes.Load(); got != 1 {
		t.Errorf("got %d recomputes, want 1", got)
	}
	if want := decimal.NewFromInt(3); !a.CurrentTotal().Equal(want) {
		t.Errorf("total = %s, want %s", a.CurrentTotal(), want)
	}
}

func TestAggregator_PendingRecomputeDiscarded(t *testing.T) {
	a := NewAggregator(testQuiet)
	defer a.Close()

	var results atomic.Int64
	a.OnResult(func(Snapshot) { results.Add(1) })

	a.Submit("1 lei")
	time.Sleep(testQuiet / 2)
	a.Submit("2 lei")
	settle()

	// The first submit's recompute never ran; only the newest text did.
	if got := results.Load(); got != 1 {
		t.Errorf("got %d recomputes, want 1", got)
	}
	if want := decimal.NewFromInt(2); !a.CurrentTotal().Equal(want) {
		t.Errorf("total = %s, want %s", a.CurrentTotal(), want)
	}
}

func TestAggregator_ResultsObservedInSubmissionOrder(t *testing.T) {
	a := NewAggregator(testQuiet)
	defer a.Close()

	a.Submit("1 lei")
	settle()
	a.Submit("2 lei")
	settle()

	if want := decimal.NewFromInt(2); !a.CurrentTotal().Equal(want) {
		t.Errorf("final total = %s, want %s (later submit must win)", a.CurrentTotal(), want)
	}
}

func TestAggregator_EditListeners(t *testing.T) {
	a := NewAggregator(testQuiet)
	defer a.Close()

	var edits atomic.Int64
	a.OnEdit(func() { edits.Add(1) })

	a.Submit("x")
	a.Submit("y")

	// Edit listeners fire synchronously per Submit, not per recompute.
	if got := edits.Load(); got != 2 {
		t.Errorf("got %d edit notifications, want 2", got)
	}
}

func TestAggregator_CloseDiscardsPending(t *testing.T) {
	a := NewAggregator(testQuiet)

	var results atomic.Int64
	a.OnResult(func(Snapshot) { results.Add(1) })

	a.Submit("5 lei")
	a.Close()
	settle()

	if got := results.Load(); got != 0 {
		t.Errorf("got %d recomputes after Close, want 0", got)
	}
	a.Submit("7 lei")
	settle()
	if !a.CurrentTotal().Equal(decimal.Zero) {
		t.Errorf("Submit after Close should be a no-op, total = %s", a.CurrentTotal())
	}
}

func TestAggregator_DefaultQuiet(t *testing.T) {
	a := NewAggregator(0)
	defer a.Close()
	if a.quiet != DefaultQuiet {
		t.Errorf("quiet = %s, want %s", a.quiet, DefaultQuiet)
	}
}
