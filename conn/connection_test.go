package conn

import (
	"net"
	"testing"
	"time"

	"github.com/bwhmather/bbsterm/wire"
)

func TestShutdownCancelsStrandedSend(t *testing.T) {
	t.Parallel()
	local, remote := net.Pipe()
	defer remote.Close()

	c := Open(local, nil)

	// net.Pipe is unbuffered and synchronous: a Send with nobody
	// reading from `remote` sits on the send queue, exactly like a
	// request stranded behind a blocked port in the reference test.
	msg, err := wire.NewMessage(wire.TypeResetTimer, wire.Record{"seconds": int64(30)})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	c.Send(msg)

	// Park one extra Pending directly on the queue, behind the one
	// that will actually be claimed and block on the write, so
	// Shutdown has something to drain.
	parked := NewPending()
	c.sendQueue.Push(sendItem{msg: msg, pending: parked, expectsResponse: false})

	done := make(chan struct{})
	go func() {
		c.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	if _, err := parked.Wait(); err != ErrResponseInterrupted && err == nil {
		t.Fatalf("parked pending resolved with %v, want cancellation or interruption", err)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()
	local, remote := net.Pipe()
	defer remote.Close()

	c := Open(local, nil)
	c.Shutdown()
	c.Shutdown()
}

func TestSendAfterShutdownFailsImmediately(t *testing.T) {
	t.Parallel()
	local, remote := net.Pipe()
	defer remote.Close()

	c := Open(local, nil)
	c.Shutdown()

	msg, err := wire.NewMessage(wire.TypeResetTimer, wire.Record{"seconds": int64(5)})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	p := c.Send(msg)
	if _, err := p.Wait(); err != ErrClosed {
		t.Fatalf("Wait() error = %v, want ErrClosed", err)
	}
}

type recordingSession struct {
	received chan wire.Message
	unbound  chan struct{}
}

func newRecordingSession() *recordingSession {
	return &recordingSession{
		received: make(chan wire.Message, 8),
		unbound:  make(chan struct{}, 1),
	}
}

func (s *recordingSession) HandleRequest(msg wire.Message) (*wire.Message, error) {
	s.received <- msg
	return nil, nil
}
func (s *recordingSession) Unbind() {
	select {
	case s.unbound <- struct{}{}:
	default:
	}
}

func TestReceiveLoopDeliversRequestToBoundSession(t *testing.T) {
	t.Parallel()
	local, remote := net.Pipe()
	defer remote.Close()

	c := Open(local, nil)
	defer c.Shutdown()

	sess := newRecordingSession()
	c.SetCurrentSession(sess)

	msg, err := wire.NewMessage(wire.TypeResetTimer, wire.Record{"seconds": int64(15)})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	go func() {
		_ = wire.WriteFrame(remote, packed)
	}()

	select {
	case got := <-sess.received:
		if got.Fields["seconds"] != int64(15) {
			t.Fatalf("seconds = %v, want 15", got.Fields["seconds"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session never received the request")
	}
}

func TestSetCurrentSessionUnbindsPrevious(t *testing.T) {
	t.Parallel()
	local, remote := net.Pipe()
	defer remote.Close()

	c := Open(local, nil)
	defer c.Shutdown()

	first := newRecordingSession()
	second := newRecordingSession()
	c.SetCurrentSession(first)
	c.SetCurrentSession(second)

	select {
	case <-first.unbound:
	case <-time.After(2 * time.Second):
		t.Fatal("previous session was never unbound")
	}
}
