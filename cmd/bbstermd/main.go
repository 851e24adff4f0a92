// Command bbstermd is the bbsterm daemon: it opens one terminal
// connection, starts payments against it, and mirrors every
// payment.Event out to a web SSE dashboard and, optionally, the
// monitor TUI in the foreground.
//
// Grounded on cmd/sql-tapd/main.go's wiring shape: a flag.FlagSet,
// signal.NotifyContext for graceful shutdown, an event-pipeline
// goroutine forwarding into a broker, and an optional HTTP server —
// with the SQL-proxy-specific pieces (driver dispatch, EXPLAIN
// client, N+1 detector) replaced by the terminal/payment equivalents.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bwhmather/bbsterm/broker"
	"github.com/bwhmather/bbsterm/monitor"
	"github.com/bwhmather/bbsterm/payment"
	"github.com/bwhmather/bbsterm/stuck"
	"github.com/bwhmather/bbsterm/terminal"
	"github.com/bwhmather/bbsterm/web"
	"github.com/bwhmather/bbsterm/wire"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "bbstermd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("bbstermd", flag.ExitOnError)
	uri := fs.String("terminal", "bbs+sim://", "terminal URI to connect to (bbs+tcp://host:port or bbs+sim://)")
	httpAddr := fs.String("http", "127.0.0.1:8088", "address to serve the web dashboard on")
	runTUI := fs.Bool("tui", false, "run the monitor TUI in the foreground instead of just serving HTTP")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	term, err := terminal.Open(ctx, *uri)
	if err != nil {
		return fmt.Errorf("opening terminal %q: %w", *uri, err)
	}
	defer term.Shutdown()

	b := broker.New[payment.Event]()
	detector := stuck.New(3, 10*time.Second, 30*time.Second)

	callbacks := payment.Callbacks{
		OnEvent: func(ev payment.Event) {
			if ev.Kind == payment.KindDisplayText {
				if res := detector.Record(ev.SessionID, ev.Text, time.Now()); res.Alert != nil {
					logger.Warn("terminal appears stuck repeating a prompt",
						"session", res.Alert.SessionID, "text", res.Alert.Text, "count", res.Alert.Count)
				}
			}
			b.Publish(ev)
		},
	}

	lis, err := net.Listen("tcp", *httpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", *httpAddr, err)
	}
	defer lis.Close()

	srv := web.New(b, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	logger.Info("bbstermd serving dashboard", "addr", lis.Addr())

	go readAmountsFromStdin(ctx, term, callbacks, logger)

	if *runTUI {
		program := tea.NewProgram(monitor.New(b))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("running monitor tui: %w", err)
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// readAmountsFromStdin lets an operator drive payments from the
// console by typing a decimal amount per line, standing in for
// whatever till/register integration would trigger StartPayment in a
// real deployment.
func readAmountsFromStdin(ctx context.Context, term terminal.Terminal, callbacks payment.Callbacks, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		major, err := strconv.ParseFloat(line, 64)
		if err != nil {
			logger.Error("could not parse amount, expected a decimal like 12.50", "input", line)
			continue
		}
		amount := wire.Price(major * 10000)

		sess, err := term.StartPayment(ctx, amount, callbacks)
		if err != nil {
			logger.Error("failed to start payment", "error", err)
			continue
		}
		go func() {
			p, err := sess.Result()
			if err != nil {
				logger.Warn("payment did not complete", "error", err)
				return
			}
			logger.Info("payment completed", "stan_auth", p.StanAuth, "issuer_id", p.IssuerID)
		}()
	}
}
