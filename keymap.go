package replx

import "errors"

// Action names a rebindable session behavior.
type Action int

const (
	ActionNone Action = iota
	ActionSubmit
	ActionCancel
	ActionEndOfInput
	ActionComplete
	ActionHistoryPrev
	ActionHistoryNext
	ActionClearScreen
)

// KeyMap binds the semantic session actions to keys. Cursor-movement
// keys are editor-intrinsic and not rebindable. A key may carry at most
// one action; Session construction rejects conflicting maps.
type KeyMap struct {
	Submit      Key
	Cancel      Key
	EndOfInput  Key
	Complete    Key
	HistoryPrev Key
	HistoryNext Key
	ClearScreen Key
}

// DefaultKeyMap follows the usual shell conventions: Enter submits,
// Ctrl+C cancels, Ctrl+D ends input, Tab completes, Up/Down browse
// history, Ctrl+L clears the screen.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit:      KeyEnter,
		Cancel:      KeyCtrlC,
		EndOfInput:  KeyCtrlD,
		Complete:    KeyTab,
		HistoryPrev: KeyUp,
		HistoryNext: KeyDown,
		ClearScreen: KeyCtrlL,
	}
}

// actions flattens the map into a key lookup table, rejecting duplicate
// bindings and bindings that would swallow printable input.
func (m KeyMap) actions() (map[Key]Action, error) {
	pairs := []struct {
		key    Key
		action Action
	}{
		{m.Submit, ActionSubmit},
		{m.Cancel, ActionCancel},
		{m.EndOfInput, ActionEndOfInput},
		{m.Complete, ActionComplete},
		{m.HistoryPrev, ActionHistoryPrev},
		{m.HistoryNext, ActionHistoryNext},
		{m.ClearScreen, ActionClearScreen},
	}
	bound := make(map[Key]Action, len(pairs))
	for _, p := range pairs {
		if p.key == KeyRune {
			return nil, errors.New("key map cannot bind printable runes")
		}
		if _, dup := bound[p.key]; dup {
			return nil, ErrKeyConflict
		}
		bound[p.key] = p.action
	}
	return bound, nil
}
