package replx

import (
	"strings"
	"testing"
)

func TestSanitizeOutputLineStripsEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "hello", want: "hello"},
		{name: "csi", input: "\x1b[31mred\x1b[0m", want: "red"},
		{name: "osc-bel", input: "\x1b]0;title\x07after", want: "after"},
		{name: "osc-st", input: "\x1b]0;title\x1b\\after", want: "after"},
		{name: "tab", input: "a\tb", want: "a    b"},
		{name: "carriage-return", input: "a\rb", want: "ab"},
		{name: "control", input: "a\x00\x02b", want: "ab"},
		{name: "empty", input: "", want: ""},
	}
	for _, tc := range tests {
		if got := sanitizeOutputLine(tc.input); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestWrapPlainLinesWrapsOnWords(t *testing.T) {
	lines := wrapPlainLines("alpha beta gamma", 11)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "alpha beta " && lines[0] != "alpha beta" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "gamma") {
		t.Fatalf("expected gamma on second line, got %q", lines[1])
	}
}

func TestWrapPlainLinesSplitsLongWord(t *testing.T) {
	lines := wrapPlainLines("abcdefghij", 4)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "abcd" || lines[1] != "efgh" || lines[2] != "ij" {
		t.Fatalf("unexpected split: %v", lines)
	}
}

func TestWrapPlainLinesEmpty(t *testing.T) {
	lines := wrapPlainLines("", 10)
	if len(lines) != 1 || lines[0] != "" {
		t.Fatalf("expected single empty line, got %v", lines)
	}
}

func TestVisibleWidthSkipsEscapes(t *testing.T) {
	styled := "\x1b[1m\x1b[38;2;1;2;3mab\x1b[0m"
	if got := visibleWidth(styled); got != 2 {
		t.Fatalf("expected width 2, got %d", got)
	}
	if got := visibleWidth("日本"); got != 4 {
		t.Fatalf("expected double-width runes to count twice, got %d", got)
	}
}

func TestTrimANSIToWidthKeepsEscapes(t *testing.T) {
	styled := "\x1b[1mabcdef\x1b[0m"
	got := trimANSIToWidth(styled, 3)
	if !strings.HasPrefix(got, "\x1b[1m") {
		t.Fatalf("expected style prefix kept, got %q", got)
	}
	if visibleWidth(got) != 3 {
		t.Fatalf("expected visible width 3, got %d (%q)", visibleWidth(got), got)
	}
	if got := trimANSIToWidth("abc", 0); got != "" {
		t.Fatalf("expected empty for zero width, got %q", got)
	}
}

func TestRenderViewportPadsAndWindows(t *testing.T) {
	theme := themeForName(DefaultTheme)
	scrollback := []scrollLine{
		{kind: linePlain, text: "one"},
		{kind: linePlain, text: "two"},
	}
	lines, offset := renderViewport(scrollback, 20, 4, theme, 0)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if offset != 0 {
		t.Fatalf("expected offset 0, got %d", offset)
	}
	if lines[0] != "one" || lines[1] != "two" || lines[2] != "" || lines[3] != "" {
		t.Fatalf("unexpected viewport: %q", lines)
	}
}

func TestRenderViewportClampsOffset(t *testing.T) {
	theme := themeForName(DefaultTheme)
	var scrollback []scrollLine
	for _, text := range []string{"one", "two", "three", "four"} {
		scrollback = append(scrollback, scrollLine{kind: linePlain, text: text})
	}
	lines, offset := renderViewport(scrollback, 20, 2, theme, 99)
	if offset != 2 {
		t.Fatalf("expected offset clamped to 2, got %d", offset)
	}
	if lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("expected oldest window, got %q", lines)
	}
	lines, offset = renderViewport(scrollback, 20, 2, theme, 0)
	if offset != 0 || lines[0] != "three" || lines[1] != "four" {
		t.Fatalf("expected newest window, got %q offset %d", lines, offset)
	}
}

func TestRenderInputLinesCursorOnFirstLine(t *testing.T) {
	lines, row, col := renderInputLines("> ", "hello", 2, 40)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0] != "> hello" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if row != 1 || col != 5 {
		t.Fatalf("expected cursor 1,5, got %d,%d", row, col)
	}
}

func TestRenderInputLinesWrapsWithIndent(t *testing.T) {
	lines, row, col := renderInputLines("> ", "abcdefghij", 10, 8)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "> abcdef" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "  ghij" {
		t.Fatalf("expected indented continuation, got %q", lines[1])
	}
	if row != 2 || col != 7 {
		t.Fatalf("expected cursor 2,7, got %d,%d", row, col)
	}
}

func TestRenderInputLinesWideRuneCursor(t *testing.T) {
	_, row, col := renderInputLines("", "日本", 2, 40)
	if row != 1 || col != 5 {
		t.Fatalf("expected cursor after two double-width cells, got %d,%d", row, col)
	}
}

func TestRenderCandidatesMarksSelection(t *testing.T) {
	theme := themeForName(DefaultTheme)
	var c completionState
	c.set("", []string{"alpha", "beta"})
	c.selected = 1
	lines := renderCandidates(&c, 40, theme)
	if len(lines) != 2 {
		t.Fatalf("expected 2 candidate lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "beta") || !strings.Contains(lines[1], "\x1b[48;2;") {
		t.Fatalf("expected highlighted selection, got %q", lines[1])
	}
	if strings.Contains(lines[0], "\x1b[48;2;") {
		t.Fatalf("expected unselected candidate without background, got %q", lines[0])
	}
}

func TestRenderCandidatesInactive(t *testing.T) {
	var c completionState
	if lines := renderCandidates(&c, 40, themeForName(DefaultTheme)); lines != nil {
		t.Fatalf("expected no candidate lines, got %v", lines)
	}
}

func TestThemeForNameFallsBack(t *testing.T) {
	if got := themeForName("no-such-theme"); got.Name != DefaultTheme {
		t.Fatalf("expected fallback to %s, got %s", DefaultTheme, got.Name)
	}
	if got := themeForName(""); got.Name != DefaultTheme {
		t.Fatalf("expected empty name fallback, got %s", got.Name)
	}
	if got := themeForName("gruvbox"); got.Name != "gruvbox" {
		t.Fatalf("expected gruvbox, got %s", got.Name)
	}
}
