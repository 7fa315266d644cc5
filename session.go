package replx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"pkt.systems/pslog"
)

// WindowSize is a terminal geometry report.
type WindowSize struct {
	Width  int
	Height int
}

// Terminal is the I/O handle a frontend hands to a session. Input
// delivers raw key bytes, Output receives full frames. Resize may be
// nil when the frontend cannot report geometry changes; Width and
// Height seed the initial geometry and default to 80x24 when zero.
//
// Raw mode is the frontend's concern. The session assumes Input
// delivers bytes unbuffered and uncooked.
type Terminal struct {
	Input  io.Reader
	Output io.Writer
	Width  int
	Height int
	Resize <-chan WindowSize
}

// HistoryStore persists submitted commands across sessions. Load runs
// once at construction; Append runs after every recorded submission.
// Store failures degrade the session to in-memory history.
type HistoryStore interface {
	Load() ([]string, error)
	Append(entry string) error
}

type sessionMode int

const (
	modeEditing sessionMode = iota
	modeCollecting
	modeExecuting
	modeTerminated
)

const (
	defaultCancelGrace  = 2 * time.Second
	defaultSpinnerDelay = 500 * time.Millisecond
	tickInterval        = 250 * time.Millisecond
	maxScrollback       = 2000
	maxCollectedShown   = 4
	stdinPrompt         = "> "
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

type options struct {
	keyMap       KeyMap
	theme        string
	logger       pslog.Logger
	historyMax   int
	store        HistoryStore
	cancelGrace  time.Duration
	spinnerDelay time.Duration
	welcome      []string
}

func defaultOptions() options {
	return options{
		keyMap:       DefaultKeyMap(),
		theme:        DefaultTheme,
		historyMax:   defaultHistoryMax,
		cancelGrace:  defaultCancelGrace,
		spinnerDelay: defaultSpinnerDelay,
	}
}

// Option adjusts session construction.
type Option func(*options)

// WithKeyMap replaces the default key bindings.
func WithKeyMap(m KeyMap) Option {
	return func(o *options) { o.keyMap = m }
}

// WithTheme selects a color theme by name. Unknown names fall back to
// the default theme.
func WithTheme(name string) Option {
	return func(o *options) { o.theme = name }
}

// WithLogger sets the session logger. Without it the session logs via
// the pslog logger carried by the Run context.
func WithLogger(log pslog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithHistoryLimit caps the in-memory history log.
func WithHistoryLimit(max int) Option {
	return func(o *options) { o.historyMax = max }
}

// WithHistoryStore attaches persistent history.
func WithHistoryStore(store HistoryStore) Option {
	return func(o *options) { o.store = store }
}

// WithCancelGrace sets how long a cancelled command may keep running
// before the session detaches from it and returns to editing.
func WithCancelGrace(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cancelGrace = d
		}
	}
}

// WithSpinnerDelay sets how long a command must run before the spinner
// appears.
func WithSpinnerDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.spinnerDelay = d
		}
	}
}

// WithWelcome seeds the scrollback with banner lines shown before the
// first prompt.
func WithWelcome(lines ...string) Option {
	return func(o *options) { o.welcome = append(o.welcome, lines...) }
}

type execResult struct {
	id     int
	action OutputAction
	err    error
}

// Session drives one interactive shell over one terminal. All mutable
// state below the option fields belongs to the Run loop; handler
// methods must only be called from that goroutine (or from a test
// driving them synchronously).
type Session[C any] struct {
	exec         Executor[C]
	state        C
	term         Terminal
	actions      map[Key]Action
	theme        uiTheme
	log          pslog.Logger
	loggerOpt    bool
	history      *historyBuffer
	store        HistoryStore
	cancelGrace  time.Duration
	spinnerDelay time.Duration

	running atomic.Bool
	runCtx  context.Context

	mode          sessionMode
	editor        lineEditor
	completion    completionState
	prompt        string
	scrollback    []scrollLine
	scrollOffset  int
	width, height int

	pendingPrompt string
	pendingRaw    string
	pendingCmd    string
	stdinLines    []string

	execID          int
	orphanID        int
	execCancel      context.CancelFunc
	execDone        chan execResult
	cancelRequested bool
	graceCh         <-chan time.Time

	spinnerActive bool
	spinnerFrame  int
	spinnerSince  time.Time

	screen  *screen
	dirty   bool
	exitErr error
}

// New binds an executor and its initial state to a terminal. The
// session takes ownership of state; the executor receives exclusive
// access to it during each call and must not retain the pointer.
func New[C any](exec Executor[C], state C, term Terminal, opts ...Option) (*Session[C], error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}
	if term.Input == nil || term.Output == nil {
		return nil, ErrNoTerminal
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	actions, err := cfg.keyMap.actions()
	if err != nil {
		return nil, err
	}
	log := cfg.logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	width, height := term.Width, term.Height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	var persisted []string
	if cfg.store != nil {
		persisted, err = cfg.store.Load()
		if err != nil {
			log.Warn("history store unavailable, starting empty", "error", err)
			persisted = nil
		}
	}
	s := &Session[C]{
		exec:         exec,
		state:        state,
		term:         term,
		actions:      actions,
		theme:        themeForName(cfg.theme),
		log:          log,
		loggerOpt:    cfg.logger != nil,
		history:      newHistoryFromPersisted(persisted, cfg.historyMax),
		store:        cfg.store,
		cancelGrace:  cfg.cancelGrace,
		spinnerDelay: cfg.spinnerDelay,
		runCtx:       context.Background(),
		mode:         modeEditing,
		width:        width,
		height:       height,
		execDone:     make(chan execResult, 1),
		screen:       newScreen(term.Output),
	}
	for _, line := range cfg.welcome {
		s.appendScroll(scrollLine{kind: linePlain, text: line})
	}
	s.prompt = s.exec.Prompt(&s.state)
	return s, nil
}

// Run takes over the terminal until the session terminates: the user
// ends input, the executor returns Exit, ctx is cancelled, or the
// terminal fails. It restores the screen on every path. Run may be
// called once per session.
func (s *Session[C]) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)
	if s.mode == modeTerminated {
		return ErrTerminated
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.runCtx = runCtx
	if !s.loggerOpt {
		s.log = pslog.Ctx(ctx)
	}

	keyCh := make(chan KeyEvent, 32)
	go readKeys(s.term.Input, keyCh)

	s.screen.EnterAltScreen()
	defer s.screen.ExitAltScreen()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	resize := s.term.Resize
	s.dirty = true
	for s.mode != modeTerminated {
		if s.dirty {
			if err := s.renderFrame(); err != nil {
				s.log.Error("terminal write failed", "error", err)
				return fmt.Errorf("render frame: %w", err)
			}
			s.dirty = false
		}
		select {
		case <-runCtx.Done():
			if s.execCancel != nil {
				s.execCancel()
				s.execCancel = nil
			}
			s.log.Debug("session context done")
			s.mode = modeTerminated
		case ev, ok := <-keyCh:
			if !ok {
				s.log.Debug("terminal input closed")
				s.mode = modeTerminated
				continue
			}
			s.handleKey(ev)
		case res := <-s.execDone:
			s.handleExecDone(res)
		case ws, ok := <-resize:
			if !ok {
				resize = nil
				continue
			}
			s.handleResize(ws)
		case <-s.graceCh:
			s.handleGraceExpired()
		case <-ticker.C:
			s.handleTick()
		}
	}
	return s.exitErr
}

// History returns a copy of the current history log, oldest first.
func (s *Session[C]) History() []string {
	return s.history.Entries()
}

func (s *Session[C]) handleKey(ev KeyEvent) {
	switch s.mode {
	case modeEditing:
		s.handleEditingKey(ev)
	case modeCollecting:
		s.handleCollectingKey(ev)
	case modeExecuting:
		s.handleExecutingKey(ev)
	}
}

func (s *Session[C]) handleEditingKey(ev KeyEvent) {
	action := s.actions[ev.Key]
	if s.completion.active() && s.handleCompletionKey(ev, action) {
		return
	}
	switch action {
	case ActionSubmit:
		s.submit()
		return
	case ActionCancel:
		s.completion.clear()
		s.editor.Clear()
		s.history.ResetCursor()
		s.appendScroll(scrollLine{kind: lineMeta, text: "^C"})
		s.dirty = true
		return
	case ActionEndOfInput:
		if s.editor.Len() == 0 {
			s.log.Info("end of input, closing session")
			s.mode = modeTerminated
			return
		}
		s.editor.Delete()
		s.history.ResetCursor()
		s.dirty = true
		return
	case ActionComplete:
		s.triggerCompletion()
		return
	case ActionHistoryPrev:
		if entry, ok := s.history.Previous(s.editor.String()); ok {
			s.editor.SetString(entry)
			s.dirty = true
		}
		return
	case ActionHistoryNext:
		if entry, ok := s.history.Next(); ok {
			s.editor.SetString(entry)
			s.dirty = true
		}
		return
	case ActionClearScreen:
		s.scrollback = nil
		s.scrollOffset = 0
		s.dirty = true
		return
	}
	if handled, mutated := s.handleEditorKey(ev); handled {
		if mutated {
			s.history.ResetCursor()
		}
	}
}

// handleCompletionKey runs the candidate list while it is open.
// Reports whether the keystroke was consumed.
func (s *Session[C]) handleCompletionKey(ev KeyEvent, action Action) bool {
	switch action {
	case ActionComplete, ActionHistoryNext:
		s.completion.next()
		s.dirty = true
		return true
	case ActionHistoryPrev:
		s.completion.prev()
		s.dirty = true
		return true
	case ActionSubmit:
		s.editor.SetString(s.completion.appliedSelected())
		s.completion.clear()
		s.history.ResetCursor()
		s.dirty = true
		return true
	case ActionCancel:
		s.completion.clear()
		s.dirty = true
		return true
	}
	switch ev.Key {
	case KeyShiftTab:
		s.completion.prev()
		s.dirty = true
		return true
	case KeyRune:
		s.editor.InsertRune(ev.Rune)
		s.history.ResetCursor()
		if s.completion.narrow(s.editor.String()) == 0 {
			s.completion.clear()
		}
		s.dirty = true
		return true
	case KeyBackspace:
		s.editor.Backspace()
		s.history.ResetCursor()
		s.completion.clear()
		s.dirty = true
		return true
	}
	// Movement and kill keys dismiss the list and then act normally.
	s.completion.clear()
	s.dirty = true
	return false
}

func (s *Session[C]) handleCollectingKey(ev KeyEvent) {
	switch s.actions[ev.Key] {
	case ActionSubmit:
		line := s.editor.String()
		s.stdinLines = append(s.stdinLines, line)
		s.editor.Clear()
		s.dirty = true
		return
	case ActionCancel:
		s.appendScroll(scrollLine{kind: lineEcho, prompt: s.pendingPrompt, text: s.pendingRaw})
		s.appendScroll(scrollLine{kind: lineMeta, text: "^C"})
		s.log.Debug("input collection aborted", "command", s.pendingCmd)
		s.resetPending()
		s.editor.Clear()
		s.mode = modeEditing
		s.dirty = true
		return
	case ActionEndOfInput:
		if s.editor.Len() > 0 {
			return
		}
		in := CommandInput{Prompt: s.pendingPrompt, Command: s.pendingCmd, Stdin: s.stdinLines}
		s.startExecution(in)
		return
	case ActionClearScreen:
		s.scrollback = nil
		s.scrollOffset = 0
		s.dirty = true
		return
	}
	s.handleEditorKey(ev)
}

func (s *Session[C]) handleExecutingKey(ev KeyEvent) {
	if s.actions[ev.Key] == ActionCancel {
		if s.cancelRequested {
			return
		}
		s.cancelRequested = true
		if s.execCancel != nil {
			s.execCancel()
		}
		s.graceCh = time.After(s.cancelGrace)
		s.log.Info("cancelling command", "command", s.pendingCmd)
		return
	}
	switch ev.Key {
	case KeyPageUp:
		s.scrollOffset += s.pageStep()
		s.dirty = true
	case KeyPageDown:
		s.scrollBack(s.pageStep())
	}
}

// handleEditorKey covers the mode-independent editing keys. Returns
// whether the key was handled and whether it mutated the buffer.
func (s *Session[C]) handleEditorKey(ev KeyEvent) (bool, bool) {
	switch ev.Key {
	case KeyRune:
		s.editor.InsertRune(ev.Rune)
		s.dirty = true
		return true, true
	case KeyBackspace:
		s.editor.Backspace()
		s.dirty = true
		return true, true
	case KeyDelete:
		s.editor.Delete()
		s.dirty = true
		return true, true
	case KeyLeft:
		s.editor.MoveLeft()
		s.dirty = true
		return true, false
	case KeyRight:
		s.editor.MoveRight()
		s.dirty = true
		return true, false
	case KeyHome, KeyCtrlA:
		s.editor.MoveStart()
		s.dirty = true
		return true, false
	case KeyEnd, KeyCtrlE:
		s.editor.MoveEnd()
		s.dirty = true
		return true, false
	case KeyAltB:
		s.editor.MoveWordLeft()
		s.dirty = true
		return true, false
	case KeyAltF:
		s.editor.MoveWordRight()
		s.dirty = true
		return true, false
	case KeyCtrlW:
		s.editor.DeleteWordBackward()
		s.dirty = true
		return true, true
	case KeyCtrlU:
		s.editor.KillToStart()
		s.dirty = true
		return true, true
	case KeyCtrlK:
		s.editor.KillToEnd()
		s.dirty = true
		return true, true
	case KeyPageUp:
		s.scrollOffset += s.pageStep()
		s.dirty = true
		return true, false
	case KeyPageDown:
		s.scrollBack(s.pageStep())
		return true, false
	}
	return false, false
}

func (s *Session[C]) pageStep() int {
	step := s.height / 2
	if step < 1 {
		step = 1
	}
	return step
}

func (s *Session[C]) scrollBack(step int) {
	s.scrollOffset -= step
	if s.scrollOffset < 0 {
		s.scrollOffset = 0
	}
	s.dirty = true
}

// submit runs the prepare step for the current line and either starts
// execution, switches to stdin collection, or drops the attempt for
// blank input.
func (s *Session[C]) submit() {
	raw := s.editor.String()
	if strings.TrimSpace(raw) == "" {
		s.appendScroll(scrollLine{kind: lineEcho, prompt: s.prompt})
		s.editor.Clear()
		s.history.ResetCursor()
		s.dirty = true
		return
	}
	if s.orphanID != 0 {
		s.appendScroll(scrollLine{kind: lineMeta, text: "previous command is still stopping"})
		s.dirty = true
		return
	}
	prep := prepareCommand(s.exec, raw)
	if strings.TrimSpace(prep.Command) == "" {
		s.appendScroll(scrollLine{kind: lineEcho, prompt: s.prompt})
		s.editor.Clear()
		s.history.ResetCursor()
		s.dirty = true
		return
	}
	s.pendingPrompt = s.prompt
	s.pendingRaw = raw
	s.pendingCmd = prep.Command
	s.editor.Clear()
	s.completion.clear()
	s.history.ResetCursor()
	s.scrollOffset = 0
	if prep.StdinRequired {
		s.stdinLines = nil
		s.mode = modeCollecting
		s.dirty = true
		return
	}
	s.startExecution(CommandInput{Prompt: s.pendingPrompt, Command: s.pendingCmd})
}

func (s *Session[C]) triggerCompletion() {
	if s.orphanID != 0 {
		s.log.Debug("completion unavailable while a detached command runs")
		return
	}
	line := s.editor.String()
	comp, err := completeCommand(s.exec, &s.state, line)
	if err != nil {
		s.log.Debug("completion failed", "error", err)
		return
	}
	switch len(comp.Candidates) {
	case 0:
		return
	case 1:
		s.editor.SetString(applyCandidate(comp.Prefix, comp.Candidates[0]))
		s.history.ResetCursor()
		s.dirty = true
	default:
		s.completion.set(comp.Prefix, comp.Candidates)
		s.dirty = true
	}
}

// startExecution hands the command to the executor on its own
// goroutine. The loop keeps running for cancellation, resize and
// scrollback keys; state access belongs to the executor until the
// result comes back.
func (s *Session[C]) startExecution(in CommandInput) {
	s.mode = modeExecuting
	s.cancelRequested = false
	s.execID++
	id := s.execID
	ctx, cancel := context.WithCancel(s.runCtx)
	s.execCancel = cancel
	s.spinnerSince = time.Now()
	s.spinnerActive = false
	s.spinnerFrame = 0
	s.dirty = true

	exec := s.exec
	state := &s.state
	done := s.execDone
	runCtx := s.runCtx
	go func() {
		res := execResult{id: id}
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("command panic: %v", r)
			}
			select {
			case done <- res:
			case <-runCtx.Done():
			}
		}()
		res.action, res.err = exec.Execute(ctx, state, in)
	}()
}

func (s *Session[C]) handleExecDone(res execResult) {
	if res.id != s.execID || s.mode != modeExecuting {
		if res.id == s.orphanID {
			s.orphanID = 0
			s.log.Info("detached command finally returned")
			s.prompt = s.exec.Prompt(&s.state)
			s.dirty = true
		}
		return
	}
	if s.execCancel != nil {
		s.execCancel()
		s.execCancel = nil
	}
	s.graceCh = nil
	s.spinnerActive = false
	cancelled := s.cancelRequested || errors.Is(res.err, context.Canceled)
	s.cancelRequested = false

	switch {
	case cancelled:
		s.appendScroll(scrollLine{kind: lineEcho, prompt: s.pendingPrompt, text: s.pendingRaw})
		s.appendScroll(scrollLine{kind: lineMeta, text: "^C"})
		s.log.Info("command cancelled", "command", s.pendingCmd)
	case res.err != nil:
		if out, ok := res.action.(CommandOutput); ok {
			s.renderOutput(out)
		} else {
			s.appendScroll(scrollLine{kind: lineEcho, prompt: s.pendingPrompt, text: s.pendingRaw})
			for _, line := range s.stdinLines {
				s.appendScroll(scrollLine{kind: lineStdin, text: line})
			}
		}
		s.appendScroll(scrollLine{kind: lineError, text: "error: " + res.err.Error()})
		s.appendHistory(s.pendingRaw)
		s.log.Warn("command failed", "command", s.pendingCmd, "error", res.err)
	default:
		switch out := res.action.(type) {
		case CommandOutput:
			s.renderOutput(out)
		case Clear:
			s.scrollback = nil
			s.scrollOffset = 0
		case Exit:
			s.appendHistory(s.pendingRaw)
			s.log.Info("executor requested exit", "command", s.pendingCmd)
			s.resetPending()
			s.mode = modeTerminated
			return
		case nil:
			s.appendScroll(scrollLine{kind: lineEcho, prompt: s.pendingPrompt, text: s.pendingRaw})
		}
		s.appendHistory(s.pendingRaw)
	}
	s.resetPending()
	s.mode = modeEditing
	s.prompt = s.exec.Prompt(&s.state)
	s.dirty = true
}

func (s *Session[C]) handleGraceExpired() {
	s.graceCh = nil
	if s.mode != modeExecuting || !s.cancelRequested {
		return
	}
	s.log.Warn("command did not stop after cancel, detaching", "command", s.pendingCmd, "grace", s.cancelGrace)
	s.orphanID = s.execID
	s.execCancel = nil
	s.cancelRequested = false
	s.spinnerActive = false
	s.appendScroll(scrollLine{kind: lineEcho, prompt: s.pendingPrompt, text: s.pendingRaw})
	s.appendScroll(scrollLine{kind: lineMeta, text: "^C still running, detached"})
	s.resetPending()
	s.mode = modeEditing
	s.dirty = true
}

func (s *Session[C]) handleResize(ws WindowSize) {
	if ws.Width <= 0 || ws.Height <= 0 {
		return
	}
	s.width = ws.Width
	s.height = ws.Height
	s.dirty = true
}

func (s *Session[C]) handleTick() {
	if s.mode != modeExecuting {
		return
	}
	if !s.spinnerActive {
		if time.Since(s.spinnerSince) < s.spinnerDelay {
			return
		}
		s.spinnerActive = true
	} else {
		s.spinnerFrame++
	}
	s.dirty = true
}

func (s *Session[C]) renderOutput(out CommandOutput) {
	s.appendScroll(scrollLine{kind: lineEcho, prompt: out.Prompt, text: out.Command})
	for _, line := range out.Stdin {
		s.appendScroll(scrollLine{kind: lineStdin, text: line})
	}
	for _, line := range out.Stdout {
		s.appendScroll(scrollLine{kind: linePlain, text: line})
	}
	for _, line := range out.Stderr {
		s.appendScroll(scrollLine{kind: lineStderr, text: line})
	}
}

func (s *Session[C]) appendScroll(l scrollLine) {
	s.scrollback = append(s.scrollback, l)
	if len(s.scrollback) > maxScrollback {
		s.scrollback = s.scrollback[len(s.scrollback)-maxScrollback:]
	}
}

func (s *Session[C]) appendHistory(raw string) {
	if !s.history.Append(raw) {
		return
	}
	if s.store == nil {
		return
	}
	if err := s.store.Append(raw); err != nil {
		s.log.Warn("history persist failed", "error", err)
	}
}

func (s *Session[C]) resetPending() {
	s.pendingPrompt = ""
	s.pendingRaw = ""
	s.pendingCmd = ""
	s.stdinLines = nil
}

func (s *Session[C]) stylePrompt(prompt string) string {
	return ansiFgRGB(s.theme.PromptFG) + prompt + ansiReset
}

func (s *Session[C]) spinnerPrefix() string {
	if !s.spinnerActive {
		return ""
	}
	frame := spinnerFrames[s.spinnerFrame%len(spinnerFrames)]
	return ansiFgRGB(s.theme.SpinnerFG) + frame + ansiReset + " "
}

// buildFrame lays out the full screen: scrollback viewport on top, the
// mode-specific input region at the bottom.
func (s *Session[C]) buildFrame() ([]string, int, int, bool) {
	width, height := s.width, s.height
	var input []string
	cursorRow, cursorCol := 1, 1
	showCursor := false

	switch s.mode {
	case modeCollecting:
		header := trimANSIToWidth(s.stylePrompt(s.pendingPrompt)+ansiBold+sanitizeOutputLine(s.pendingRaw)+ansiReset, width) + ansiReset
		input = append(input, header)
		stdinStyle := ansiDim + ansiFgRGB(s.theme.StdinFG)
		tail := s.stdinLines
		if len(tail) > maxCollectedShown {
			hidden := len(tail) - maxCollectedShown
			note := fmt.Sprintf("(%d earlier input lines)", hidden)
			input = append(input, trimANSIToWidth(ansiDim+note+ansiReset, width)+ansiReset)
			tail = tail[len(tail)-maxCollectedShown:]
		}
		for _, line := range tail {
			input = append(input, trimANSIToWidth(stdinStyle+sanitizeOutputLine(line)+ansiReset, width)+ansiReset)
		}
		prefix := stdinStyle + stdinPrompt + ansiReset
		lines, row, col := renderInputLines(prefix, s.editor.String(), s.editor.cursor, width)
		cursorRow = len(input) + row
		cursorCol = col
		input = append(input, lines...)
		showCursor = true
	case modeExecuting:
		line := s.spinnerPrefix() + s.stylePrompt(s.pendingPrompt) + ansiBold + sanitizeOutputLine(s.pendingRaw) + ansiReset
		input = append(input, trimANSIToWidth(line, width)+ansiReset)
	default:
		prefix := s.stylePrompt(s.prompt)
		lines, row, col := renderInputLines(prefix, s.editor.String(), s.editor.cursor, width)
		cursorRow = row
		cursorCol = col
		input = append(input, lines...)
		input = append(input, renderCandidates(&s.completion, width, s.theme)...)
		showCursor = true
	}

	maxInput := height - 1
	if maxInput < 1 {
		maxInput = 1
	}
	if len(input) > maxInput {
		drop := len(input) - maxInput
		input = input[drop:]
		cursorRow -= drop
		if cursorRow < 1 {
			cursorRow = 1
		}
	}
	viewportHeight := height - len(input)
	viewport, offset := renderViewport(s.scrollback, width, viewportHeight, s.theme, s.scrollOffset)
	s.scrollOffset = offset

	frame := make([]string, 0, height)
	frame = append(frame, viewport...)
	frame = append(frame, input...)
	return frame, viewportHeight + cursorRow, cursorCol, showCursor
}

func (s *Session[C]) renderFrame() error {
	lines, row, col, showCursor := s.buildFrame()
	return s.screen.Render(lines, row, col, showCursor)
}
