//go:build !unix

package localterm

import (
	"context"

	"pkt.systems/replx"
)

// watchResize has no signal source on this platform; the session keeps
// its initial geometry.
func watchResize(ctx context.Context, fd int) <-chan replx.WindowSize {
	return nil
}
