package replx

import "strings"

const defaultHistoryMax = 200

// historyBuffer is the ordered log of submitted commands plus the
// navigation cursor. index == -1 means not browsing; draft holds the
// in-progress line captured when browsing starts.
type historyBuffer struct {
	entries []string
	max     int
	index   int
	draft   string
}

func newHistory(max int) *historyBuffer {
	if max <= 0 {
		max = defaultHistoryMax
	}
	return &historyBuffer{max: max, index: -1}
}

func newHistoryFromPersisted(entries []string, max int) *historyBuffer {
	h := newHistory(max)
	if len(entries) == 0 {
		return h
	}
	if len(entries) > h.max {
		entries = entries[len(entries)-h.max:]
	}
	h.entries = append([]string(nil), entries...)
	return h
}

// Append records a submitted command. Blank entries and consecutive
// duplicates are ignored; the log is trimmed from the front beyond max.
func (h *historyBuffer) Append(entry string) bool {
	if h == nil {
		return false
	}
	if strings.TrimSpace(entry) == "" {
		return false
	}
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == entry {
		return false
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	return true
}

// Previous steps toward older entries, saving current as the draft when
// browsing starts. At the oldest entry it keeps returning that entry.
// ok is false only when there is nothing to browse.
func (h *historyBuffer) Previous(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.index == -1 {
		h.draft = current
		h.index = len(h.entries) - 1
	} else if h.index > 0 {
		h.index--
	}
	return h.entries[h.index], true
}

// Next steps toward newer entries. Stepping past the newest restores
// the draft and leaves browsing; when not browsing it reports false and
// further calls keep doing so.
func (h *historyBuffer) Next() (string, bool) {
	if h.index == -1 {
		return "", false
	}
	if h.index < len(h.entries)-1 {
		h.index++
		return h.entries[h.index], true
	}
	h.index = -1
	draft := h.draft
	h.draft = ""
	return draft, true
}

// ResetCursor leaves browsing without touching the editor. Called on
// any non-history edit and on submission.
func (h *historyBuffer) ResetCursor() {
	h.index = -1
	h.draft = ""
}

func (h *historyBuffer) Entries() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.entries...)
}
