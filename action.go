package replx

// OutputAction is the executor's declared outcome for one submission.
// The set is closed: only CommandOutput, Clear, and Exit satisfy it, so
// the render path can switch exhaustively.
type OutputAction interface {
	outputAction()
}

// CommandOutput is the normal outcome: the echoed submission plus the
// lines it produced, ready for rendering and scrollback.
type CommandOutput struct {
	Prompt  string
	Command string
	Stdin   []string
	Stdout  []string
	Stderr  []string
}

func (CommandOutput) outputAction() {}

// Clear wipes the scrollback instead of producing output.
type Clear struct{}

func (Clear) outputAction() {}

// Exit requests a clean end of the session.
type Exit struct{}

func (Exit) outputAction() {}
