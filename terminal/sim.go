package terminal

import (
	"context"
	"net/url"

	"github.com/bwhmather/bbsterm/conn"
	"github.com/bwhmather/bbsterm/simulator"
)

func init() {
	Register("bbs+sim", openBBSSim)
}

// openBBSSim ignores uri entirely and wires the terminal up to an
// in-process Simulator instead of a real device, for demos and tests
// that want a working terminal without any hardware.
func openBBSSim(ctx context.Context, uri *url.URL) (Terminal, error) {
	rw := simulator.Pipe(simulator.DefaultScript(), nil)
	c := conn.Open(rw, nil)
	return newBBSTerminal(c, nil), nil
}
