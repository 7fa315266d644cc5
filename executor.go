package replx

import "context"

// Executor is the application side of a shell session. C is the
// application's own state, opaque to the engine: the session owns one C
// value and hands out exclusive access per call, never concurrently and
// never between calls.
type Executor[C any] interface {
	// Prompt returns the prompt for the next input cycle. It is called
	// between commands, never while one executes, must be fast, must
	// not mutate state, and must return a single line.
	Prompt(state *C) string

	// Execute runs one submitted command. It is invoked off the session
	// loop; ctx is cancelled when the user interrupts the command, and
	// implementations should return promptly once it is. A returned
	// error is rendered inline with the command, not treated as fatal.
	Execute(ctx context.Context, state *C, in CommandInput) (OutputAction, error)
}

// Preparer lets an executor claim stdin collection for a command before
// it executes. Executors that do not implement it never collect stdin.
type Preparer interface {
	Prepare(raw string) Prepare
}

// Completer lets an executor offer completion candidates for the
// current line. Executors that do not implement it offer none. An error
// is treated as "no candidates".
type Completer[C any] interface {
	Complete(state *C, partial string) (Completion, error)
}

// Factory constructs an executor and its initial state for one session.
// Frontends invoke it once per session; an error aborts startup.
type Factory[C any] func() (Executor[C], C, error)

// CommandInput is one submission attempt. Stdin is nil unless the
// command collected input lines; collected lines appear verbatim in
// entry order.
type CommandInput struct {
	Prompt  string
	Command string
	Stdin   []string
}

// Prepare is the pre-execution decision for a submission.
type Prepare struct {
	// Command is the normalized command passed on to Execute.
	Command string
	// StdinRequired switches the session into stdin collection before
	// the command executes.
	StdinRequired bool
}

// Completion is the executor's answer to a completion request. Applying
// a candidate c yields Prefix + c; when c already starts with Prefix
// the shared prefix collapses, so candidates may be given either as
// full tokens or as suffixes beyond Prefix.
type Completion struct {
	Prefix     string
	Candidates []string
}

// prepareCommand applies the Preparer capability when the executor has
// one and the default policy (pass through, no stdin) when it does not.
func prepareCommand[C any](exec Executor[C], raw string) Prepare {
	if p, ok := any(exec).(Preparer); ok {
		return p.Prepare(raw)
	}
	return Prepare{Command: raw}
}

// completeCommand applies the Completer capability; executors without
// one, and failed calls, yield an empty candidate set.
func completeCommand[C any](exec Executor[C], state *C, partial string) (Completion, error) {
	if c, ok := any(exec).(Completer[C]); ok {
		return c.Complete(state, partial)
	}
	return Completion{}, nil
}
