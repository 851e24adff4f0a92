package terminal

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/bwhmather/bbsterm/conn"
)

func init() {
	Register("bbs+tcp", openBBSTCP)
}

// openBBSTCP dials uri's host:port over TCP and wraps the connection
// in a bbsTerminal, mirroring open_tcp in
// original_source/payment_terminal/drivers/bbs/__init__.py.
func openBBSTCP(ctx context.Context, uri *url.URL) (Terminal, error) {
	host := uri.Host
	if host == "" {
		return nil, fmt.Errorf("terminal: bbs+tcp uri %q is missing a host", uri)
	}
	var d net.Dialer
	rw, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, fmt.Errorf("terminal: dialing %s: %w", host, err)
	}
	c := conn.Open(rw, nil)
	return newBBSTerminal(c, nil), nil
}
