// Package simulator implements a minimal in-process fake ITU: enough
// of the BBS MsgRouter protocol to drive a payment through
// DisplayText prompts to a LocalMode result without any physical
// terminal. It backs both the bbs+sim registry scheme used in tests
// and the possim command line demo.
//
// Grounded on the "dummy" driver mentioned in spec.md's scope as an
// existing non-BBS backend (out of scope to reimplement in full) and
// on the scripted request/response exchanges in
// original_source/payment_terminal/drivers/bbs/tests/test_connection.py,
// which drive a fake ITU by hand through exactly this kind of
// message sequence.
package simulator

import (
	"log/slog"
	"net"
	"time"

	"github.com/bwhmather/bbsterm/wire"
)

// Outcome decides how the simulator resolves a simulated transfer.
type Outcome int

const (
	// OutcomeApprove reports a successful LocalMode after the prompts.
	OutcomeApprove Outcome = iota
	// OutcomeDecline reports a failed LocalMode.
	OutcomeDecline
)

// Script configures how a Simulator behaves for each transfer it is
// asked to process.
type Script struct {
	Outcome   Outcome
	PromptGap time.Duration
}

// DefaultScript approves every transfer after a short simulated
// customer-interaction delay.
func DefaultScript() Script {
	return Script{Outcome: OutcomeApprove, PromptGap: 50 * time.Millisecond}
}

// Simulator plays the ITU side of the protocol against one
// connection.
type Simulator struct {
	conn   net.Conn
	script Script
	logger *slog.Logger
}

// New wraps conn (the simulator's end of the stream; the ECR dials or
// is handed the other end) with the given script.
func New(conn net.Conn, script Script, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{conn: conn, script: script, logger: logger}
}

// Pipe creates a connected in-memory pair, wires one end to a freshly
// started Simulator, and returns the other end for the caller to use
// as the ECR side of a conn.Connection.
func Pipe(script Script, logger *slog.Logger) net.Conn {
	itu, ecr := net.Pipe()
	New(itu, script, logger).Run()
	return ecr
}

// Run starts the simulator's reply loop in a background goroutine and
// returns immediately.
func (s *Simulator) Run() {
	go s.loop()
}

func (s *Simulator) loop() {
	defer s.conn.Close()
	for {
		payload, err := wire.ReadFrame(s.conn)
		if err != nil {
			return
		}
		msg, err := wire.UnpackECRMessage(payload)
		if err != nil {
			s.logger.Warn("simulator received unparsable frame", "error", err)
			continue
		}
		switch msg.Type {
		case wire.TypeTransferAmount:
			if err := s.playTransfer(); err != nil {
				s.logger.Error("simulator transfer script failed", "error", err)
				return
			}
		case wire.TypeAdministration:
			if err := s.replyAdministration(); err != nil {
				return
			}
		}
	}
}

func (s *Simulator) playTransfer() error {
	if err := s.sendDisplayText("INSERT CARD", false); err != nil {
		return err
	}
	time.Sleep(s.script.PromptGap)
	if err := s.sendDisplayText("ENTER PIN", true); err != nil {
		return err
	}
	time.Sleep(s.script.PromptGap)

	result := "success"
	if s.script.Outcome == OutcomeDecline {
		result = "failure"
	}
	msg, err := wire.NewMessage(wire.TypeLocalMode, wire.Record{
		"result":      result,
		"acc":         "standard",
		"issuer_id":   int64(1),
		"timestamp":   time.Now(),
		"ver_method":  "pin_based",
		"session_num": int64(1),
		"stan_auth":   "SIM000",
		"seq_no":      int64(1),
	})
	if err != nil {
		return err
	}
	return s.send(msg)
}

func (s *Simulator) replyAdministration() error {
	msg, err := wire.NewMessage(wire.TypeLocalMode, wire.Record{
		"result":      "success",
		"acc":         "standard",
		"issuer_id":   int64(1),
		"timestamp":   time.Now(),
		"ver_method":  "pin_based",
		"session_num": int64(1),
		"stan_auth":   "SIM000",
		"seq_no":      int64(2),
	})
	if err != nil {
		return err
	}
	return s.send(msg)
}

func (s *Simulator) sendDisplayText(text string, expectsInput bool) error {
	msg, err := wire.NewMessage(wire.TypeDisplayText, wire.Record{
		"text":          text,
		"expects_input": expectsInput,
	})
	if err != nil {
		return err
	}
	return s.send(msg)
}

func (s *Simulator) send(msg wire.Message) error {
	data, err := msg.Pack()
	if err != nil {
		return err
	}
	return wire.WriteFrame(s.conn, data)
}
