//go:build unix

package localterm

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"pkt.systems/replx"
)

// watchResize reports terminal size changes via SIGWINCH. The channel
// closes when ctx is cancelled; a pending stale size is replaced when
// a newer one arrives.
func watchResize(ctx context.Context, fd int) <-chan replx.WindowSize {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGWINCH)
	resize := make(chan replx.WindowSize, 1)
	go func() {
		defer close(resize)
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				width, height, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				select {
				case <-resize:
				default:
				}
				resize <- replx.WindowSize{Width: width, Height: height}
			}
		}
	}()
	return resize
}
