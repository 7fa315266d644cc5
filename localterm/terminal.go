package localterm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/replx"
)

// Run runs one shell session on the calling process's terminal. Stdin
// is placed in raw mode for the duration and restored on return, so
// callers should not touch the terminal while the session runs.
func Run[C any](ctx context.Context, factory replx.Factory[C], opts ...replx.Option) error {
	if factory == nil {
		return replx.ErrNilFactory
	}
	exec, state, err := factory()
	if err != nil {
		return fmt.Errorf("build executor: %w", err)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	width, height, err := term.GetSize(fd)
	if err != nil {
		width, height = 0, 0
	}
	pslog.Ctx(ctx).Debug("terminal session starting", "width", width, "height", height)

	t := replx.Terminal{
		Input:  os.Stdin,
		Output: os.Stdout,
		Width:  width,
		Height: height,
		Resize: watchResize(ctx, fd),
	}
	session, err := replx.New(exec, state, t, opts...)
	if err != nil {
		return err
	}
	return session.Run(ctx)
}
