// Command possim runs a standalone simulated ITU that listens on TCP
// and plays back the simulator package's scripted prompts and
// LocalMode result against any bbs+tcp client that connects to it —
// useful for exercising bbstermd, or any other ECR implementation,
// without a physical terminal.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/bwhmather/bbsterm/simulator"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "possim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("possim", flag.ExitOnError)
	addr := fs.String("listen", "127.0.0.1:4000", "address to listen on")
	decline := fs.Bool("decline", false, "decline every transfer instead of approving it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", *addr, err)
	}
	defer lis.Close()
	logger.Info("possim listening", "addr", lis.Addr())

	script := simulator.DefaultScript()
	if *decline {
		script.Outcome = simulator.OutcomeDecline
	}

	for {
		c, err := lis.Accept()
		if err != nil {
			return err
		}
		logger.Info("ecr connected", "remote", c.RemoteAddr())
		simulator.New(c, script, logger).Run()
	}
}
