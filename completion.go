package replx

import "strings"

const maxVisibleCandidates = 8

// completionState holds the candidate set between the completion
// trigger and an explicit selection. An empty candidate slice means no
// completion is in progress.
type completionState struct {
	prefix     string
	candidates []string
	selected   int
}

func (c *completionState) active() bool {
	return len(c.candidates) > 0
}

func (c *completionState) clear() {
	c.prefix = ""
	c.candidates = nil
	c.selected = 0
}

func (c *completionState) set(prefix string, candidates []string) {
	c.prefix = prefix
	c.candidates = append([]string(nil), candidates...)
	c.selected = 0
}

func (c *completionState) next() {
	if len(c.candidates) == 0 {
		return
	}
	c.selected = (c.selected + 1) % len(c.candidates)
}

func (c *completionState) prev() {
	if len(c.candidates) == 0 {
		return
	}
	c.selected = (c.selected - 1 + len(c.candidates)) % len(c.candidates)
}

// applied returns the line produced by accepting candidate i.
func (c *completionState) applied(i int) string {
	if i < 0 || i >= len(c.candidates) {
		return ""
	}
	return applyCandidate(c.prefix, c.candidates[i])
}

func (c *completionState) appliedSelected() string {
	return c.applied(c.selected)
}

// narrow drops candidates whose applied form no longer extends line and
// returns how many remain. The selection is clamped into the survivors.
func (c *completionState) narrow(line string) int {
	if len(c.candidates) == 0 {
		return 0
	}
	kept := c.candidates[:0]
	for _, cand := range c.candidates {
		if strings.HasPrefix(applyCandidate(c.prefix, cand), line) {
			kept = append(kept, cand)
		}
	}
	c.candidates = kept
	if c.selected >= len(c.candidates) {
		c.selected = 0
	}
	return len(c.candidates)
}

// window bounds the visible slice of candidates, keeping the selection
// near the middle when the set exceeds max.
func (c *completionState) window(max int) (int, int) {
	n := len(c.candidates)
	if max <= 0 || n <= max {
		return 0, n
	}
	lo := c.selected - max/2
	if lo < 0 {
		lo = 0
	}
	if lo > n-max {
		lo = n - max
	}
	return lo, lo + max
}

// applyCandidate joins prefix and candidate, collapsing the shared
// prefix so full-token and suffix-style candidates behave identically.
func applyCandidate(prefix, candidate string) string {
	if strings.HasPrefix(candidate, prefix) {
		return candidate
	}
	return prefix + candidate
}
