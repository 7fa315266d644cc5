package replx

import "testing"

func TestCompletionCycleWraps(t *testing.T) {
	var c completionState
	c.set("he", []string{"help", "header"})
	if !c.active() {
		t.Fatalf("expected active completion")
	}
	if c.selected != 0 {
		t.Fatalf("expected first candidate selected, got %d", c.selected)
	}
	c.next()
	if c.selected != 1 {
		t.Fatalf("expected selection 1, got %d", c.selected)
	}
	c.next()
	if c.selected != 0 {
		t.Fatalf("expected selection to wrap to 0, got %d", c.selected)
	}
	c.prev()
	if c.selected != 1 {
		t.Fatalf("expected prev to wrap to last, got %d", c.selected)
	}
}

func TestCompletionAppliedCollapsesSharedPrefix(t *testing.T) {
	var c completionState
	c.set("he", []string{"help", "ader"})
	if got := c.applied(0); got != "help" {
		t.Fatalf("expected full-token candidate to pass through, got %q", got)
	}
	if got := c.applied(1); got != "header" {
		t.Fatalf("expected suffix candidate to extend prefix, got %q", got)
	}
	if got := c.applied(5); got != "" {
		t.Fatalf("expected out-of-range apply to be empty, got %q", got)
	}
}

func TestCompletionNarrowKeepsSingleSurvivor(t *testing.T) {
	var c completionState
	c.set("he", []string{"help", "header"})
	if n := c.narrow("hel"); n != 1 {
		t.Fatalf("expected 1 survivor, got %d", n)
	}
	if !c.active() || c.candidates[0] != "help" {
		t.Fatalf("expected help to survive, got %v", c.candidates)
	}
	if n := c.narrow("helx"); n != 0 {
		t.Fatalf("expected no survivors, got %d", n)
	}
}

func TestCompletionNarrowClampsSelection(t *testing.T) {
	var c completionState
	c.set("", []string{"alpha", "beta", "bravo"})
	c.selected = 2
	if n := c.narrow("a"); n != 1 {
		t.Fatalf("expected 1 survivor, got %d", n)
	}
	if c.selected != 0 {
		t.Fatalf("expected selection clamped to 0, got %d", c.selected)
	}
}

func TestCompletionWindowCentersSelection(t *testing.T) {
	var c completionState
	c.set("", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"})

	lo, hi := c.window(4)
	if lo != 0 || hi != 4 {
		t.Fatalf("expected window [0,4) at start, got [%d,%d)", lo, hi)
	}

	c.selected = 5
	lo, hi = c.window(4)
	if lo != 3 || hi != 7 {
		t.Fatalf("expected window [3,7) around selection, got [%d,%d)", lo, hi)
	}

	c.selected = 9
	lo, hi = c.window(4)
	if lo != 6 || hi != 10 {
		t.Fatalf("expected window [6,10) at end, got [%d,%d)", lo, hi)
	}

	lo, hi = c.window(0)
	if lo != 0 || hi != 10 {
		t.Fatalf("expected unbounded window, got [%d,%d)", lo, hi)
	}
}

func TestCompletionClear(t *testing.T) {
	var c completionState
	c.set("he", []string{"help"})
	c.clear()
	if c.active() || c.prefix != "" || c.selected != 0 {
		t.Fatalf("expected cleared state, got %+v", c)
	}
}
