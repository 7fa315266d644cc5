package replx

import "errors"

var (
	// ErrNilExecutor indicates a session was constructed without an executor.
	ErrNilExecutor = errors.New("executor is required")
	// ErrNilFactory indicates a frontend was given no executor factory.
	ErrNilFactory = errors.New("executor factory is required")
	// ErrNoTerminal indicates the terminal handle is missing input or output.
	ErrNoTerminal = errors.New("terminal input and output are required")
	// ErrKeyConflict indicates two key-map actions share the same key.
	ErrKeyConflict = errors.New("key map binds one key to multiple actions")
	// ErrAlreadyRunning indicates Run was called on a live session.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrTerminated indicates the session has already finished.
	ErrTerminated = errors.New("session terminated")
)
