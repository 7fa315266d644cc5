package replx

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

type lineKind int

const (
	linePlain lineKind = iota
	lineEcho
	lineStdin
	lineStderr
	lineError
	lineMeta
)

// scrollLine is one raw scrollback entry. Styling and wrapping happen
// at render time against the current width, so resizes reflow cleanly.
type scrollLine struct {
	kind   lineKind
	prompt string
	text   string
}

func styleLines(l scrollLine, width int, theme uiTheme) []string {
	switch l.kind {
	case lineEcho:
		prefix := ansiFgRGB(theme.PromptFG) + l.prompt + ansiReset
		text := sanitizeOutputLine(l.text)
		line := prefix + ansiBold + text + ansiReset
		return []string{trimANSIToWidth(line, width) + ansiReset}
	case lineStdin:
		return wrapStyledLines(l.text, width, ansiDim+ansiFgRGB(theme.StdinFG))
	case lineStderr:
		return wrapStyledLines(l.text, width, ansiBold+ansiFgRGB(theme.StderrFG))
	case lineError:
		return wrapStyledLines(l.text, width, ansiBold+ansiFgRGB(theme.ErrorFG))
	case lineMeta:
		return wrapStyledLines(l.text, width, ansiDim+ansiItalic+ansiFgRGB(theme.MetaFG))
	default:
		return wrapPlainLines(l.text, width)
	}
}

// renderViewport flattens the scrollback into styled display lines,
// windows them to height lines ending offset lines above the bottom,
// and pads to exactly height. It returns the clamped offset so the
// caller can keep its scroll position consistent.
func renderViewport(scrollback []scrollLine, width, height int, theme uiTheme, offset int) ([]string, int) {
	if height <= 0 {
		return nil, 0
	}
	var flattened []string
	for _, l := range scrollback {
		flattened = append(flattened, styleLines(l, width, theme)...)
	}
	maxOffset := len(flattened) - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset < 0 {
		offset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	end := len(flattened) - offset
	start := end - height
	if start < 0 {
		start = 0
	}
	rendered := make([]string, 0, height)
	rendered = append(rendered, flattened[start:end]...)
	for len(rendered) < height {
		rendered = append(rendered, "")
	}
	return rendered, offset
}

// renderCandidates formats the completion list, one candidate per row,
// windowed around the selection.
func renderCandidates(c *completionState, width int, theme uiTheme) []string {
	if !c.active() {
		return nil
	}
	lo, hi := c.window(maxVisibleCandidates)
	lines := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		label := " " + sanitizeOutputLine(c.candidates[i]) + " "
		if i == c.selected {
			styled := ansiBgRGB(theme.SelectedBG) + ansiFgRGB(theme.SelectedFG) + ansiBold + label + ansiReset
			lines = append(lines, trimANSIToWidth(styled, width)+ansiReset)
			continue
		}
		styled := ansiFgRGB(theme.CandidateFG) + label + ansiReset
		lines = append(lines, trimANSIToWidth(styled, width)+ansiReset)
	}
	return lines
}

// renderInputLines wraps prefix+input to width, continuation lines
// indented under the prefix, and reports the cursor cell. Widths are
// display cells, not runes, so wide characters position correctly.
func renderInputLines(prefix, input string, cursor, width int) ([]string, int, int) {
	inputRunes := []rune(input)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(inputRunes) {
		cursor = len(inputRunes)
	}
	prefixWidth := visibleWidth(prefix)
	if width <= 0 {
		width = prefixWidth + len(inputRunes) + 1
	}
	prefixVisible := prefix
	if prefixWidth > width {
		prefixVisible = trimANSIToWidth(prefix, width)
		prefixWidth = visibleWidth(prefixVisible)
	}
	indentWidth := prefixWidth
	indent := strings.Repeat(" ", indentWidth)
	availableFirst := width - prefixWidth
	if availableFirst < 1 {
		availableFirst = 1
	}
	availableOther := width - indentWidth
	if availableOther < 1 {
		availableOther = 1
	}

	lines := []string{}
	lineRunes := make([]rune, 0, availableFirst)
	row := 0
	col := 0
	cursorRow := 1
	cursorCol := prefixWidth + 1
	cursorSet := false
	currentAvailable := availableFirst

	flushLine := func() {
		prefixStr := prefixVisible
		if row > 0 {
			prefixStr = indent
		}
		lines = append(lines, prefixStr+string(lineRunes))
		row++
		lineRunes = lineRunes[:0]
		col = 0
		currentAvailable = availableOther
	}

	for i, r := range inputRunes {
		if !cursorSet && i == cursor {
			pfx := prefixWidth
			if row > 0 {
				pfx = indentWidth
			}
			cursorRow = row + 1
			cursorCol = pfx + col + 1
			cursorSet = true
		}
		rw := runewidth.RuneWidth(r)
		if col+rw > currentAvailable && col > 0 {
			flushLine()
		}
		lineRunes = append(lineRunes, r)
		col += rw
	}
	if !cursorSet && cursor == len(inputRunes) {
		pfx := prefixWidth
		if row > 0 {
			pfx = indentWidth
		}
		cursorRow = row + 1
		cursorCol = pfx + col + 1
	}
	flushLine()
	if cursorCol < 1 {
		cursorCol = 1
	}
	if cursorCol > width {
		cursorCol = width
	}
	return lines, cursorRow, cursorCol
}

type textToken struct {
	text  string
	space bool
}

func tokenizeText(text string) []textToken {
	if text == "" {
		return nil
	}
	var tokens []textToken
	var buf strings.Builder
	inSpace := false
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		tokens = append(tokens, textToken{text: buf.String(), space: inSpace})
		buf.Reset()
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				flush()
				inSpace = true
			}
			buf.WriteRune(' ')
			continue
		}
		if inSpace {
			flush()
			inSpace = false
		}
		buf.WriteRune(r)
	}
	flush()
	return tokens
}

func wrapPlainLines(text string, width int) []string {
	if width <= 0 {
		return []string{""}
	}
	sanitized := sanitizeOutputLine(text)
	if sanitized == "" {
		return []string{""}
	}
	tokens := tokenizeText(sanitized)
	lines := make([]string, 0, 4)
	var b strings.Builder
	visible := 0
	suppressLeadingSpace := false
	flush := func(wrapped bool) {
		if b.Len() == 0 {
			return
		}
		lines = append(lines, trimToWidth(b.String(), width))
		b.Reset()
		visible = 0
		suppressLeadingSpace = wrapped
	}
	for _, token := range tokens {
		if token.text == "" {
			continue
		}
		if token.space {
			if visible == 0 && suppressLeadingSpace {
				continue
			}
			spaceLen := runewidth.StringWidth(token.text)
			if spaceLen <= 0 {
				continue
			}
			if visible+spaceLen > width {
				flush(true)
				continue
			}
			b.WriteString(token.text)
			visible += spaceLen
			continue
		}
		wordWidth := runewidth.StringWidth(token.text)
		if wordWidth > width {
			if visible > 0 {
				flush(true)
			}
			rest := token.text
			for rest != "" {
				chunk := runewidth.Truncate(rest, width, "")
				if chunk == "" {
					break
				}
				b.WriteString(chunk)
				visible += runewidth.StringWidth(chunk)
				rest = rest[len(chunk):]
				if visible >= width {
					flush(true)
				}
			}
			continue
		}
		if visible+wordWidth > width && visible > 0 {
			flush(true)
		}
		b.WriteString(token.text)
		visible += wordWidth
		suppressLeadingSpace = false
	}
	flush(false)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func wrapStyledLines(text string, width int, style string) []string {
	lines := wrapPlainLines(text, width)
	if len(lines) == 1 && lines[0] == "" {
		return lines
	}
	styled := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			styled = append(styled, line)
			continue
		}
		styled = append(styled, style+line+ansiReset)
	}
	return styled
}

// sanitizeOutputLine strips escape sequences and control characters
// from executor output so it cannot corrupt the frame. Tabs become
// four spaces.
func sanitizeOutputLine(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(text); {
		ch := text[i]
		if ch == 0x1b {
			i = skipEscape(text, i+1)
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if r == '\r' {
			i += size
			continue
		}
		if r == '\t' {
			b.WriteString("    ")
			i += size
			continue
		}
		if r < 0x20 || r == 0x7f {
			i += size
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func skipEscape(text string, i int) int {
	if i >= len(text) {
		return i
	}
	switch text[i] {
	case '[':
		return skipCSI(text, i+1)
	case ']':
		return skipOSC(text, i+1)
	default:
		return i + 1
	}
}

func skipCSI(text string, i int) int {
	for i < len(text) {
		b := text[i]
		if b >= 0x40 && b <= 0x7e {
			return i + 1
		}
		i++
	}
	return i
}

func skipOSC(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case 0x07:
			return i + 1
		case 0x1b:
			if i+1 < len(text) && text[i+1] == '\\' {
				return i + 2
			}
		}
		i++
	}
	return i
}

// visibleWidth measures display cells, skipping escape sequences.
func visibleWidth(text string) int {
	width := 0
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			i = skipEscape(text, i+1)
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		i += size
		width += runewidth.RuneWidth(r)
	}
	return width
}

// trimANSIToWidth cuts text to at most width display cells while
// keeping every escape sequence, so styling survives the trim.
func trimANSIToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	visible := 0
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			start := i
			i = skipEscape(text, i+1)
			b.WriteString(text[start:i])
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		if visible+runewidth.RuneWidth(r) > width {
			break
		}
		b.WriteRune(r)
		i += size
		visible += runewidth.RuneWidth(r)
	}
	return b.String()
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	return runewidth.Truncate(value, width, "")
}
