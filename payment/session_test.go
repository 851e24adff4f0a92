package payment

import (
	"testing"
	"time"

	"github.com/bwhmather/bbsterm/conn"
	"github.com/bwhmather/bbsterm/wire"
)

type fakeRequester struct {
	cancelled  chan struct{}
	reversed   chan struct{}
}

func newFakeRequester() *fakeRequester {
	return &fakeRequester{
		cancelled: make(chan struct{}, 1),
		reversed:  make(chan struct{}, 1),
	}
}

func (f *fakeRequester) RequestCancel() *conn.Pending {
	select {
	case f.cancelled <- struct{}{}:
	default:
	}
	p := conn.NewPending()
	p.Complete(nil)
	return p
}

func (f *fakeRequester) RequestReversal() *conn.Pending {
	select {
	case f.reversed <- struct{}{}:
	default:
	}
	p := conn.NewPending()
	p.Complete(nil)
	return p
}

func localModeMessage(t *testing.T, success bool) wire.Message {
	t.Helper()
	result := "failure"
	if success {
		result = "success"
	}
	msg, err := wire.NewMessage(wire.TypeLocalMode, wire.Record{
		"result":      result,
		"acc":         "standard",
		"issuer_id":   int64(1),
		"timestamp":   time.Now(),
		"ver_method":  "pin_based",
		"session_num": int64(1),
		"stan_auth":   "ABC123",
		"seq_no":      int64(1),
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	return msg
}

func TestSessionHappyPath(t *testing.T) {
	t.Parallel()
	req := newFakeRequester()
	sess := NewSession("s1", req, Callbacks{})

	sess.HandleRequest(localModeMessage(t, true))

	p, err := sess.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if p.StanAuth != "ABC123" {
		t.Fatalf("StanAuth = %q, want %q", p.StanAuth, "ABC123")
	}
}

func TestSessionRefusedCommitTriggersReversal(t *testing.T) {
	t.Parallel()
	req := newFakeRequester()
	sess := NewSession("s1", req, Callbacks{
		BeforeCommit: func(Payment) bool { return false },
	})

	sess.HandleRequest(localModeMessage(t, true))

	select {
	case <-req.reversed:
	default:
		t.Fatal("expected a reversal to have been requested")
	}

	// The reversal itself succeeds (terminal reports success for the
	// reversal's own LocalMode reply).
	sess.HandleRequest(localModeMessage(t, true))

	_, err := sess.Result()
	if err != ErrSessionCancelled {
		t.Fatalf("Result error = %v, want ErrSessionCancelled", err)
	}
}

func TestSessionTerminalFailureCancelsImmediately(t *testing.T) {
	t.Parallel()
	req := newFakeRequester()
	sess := NewSession("s1", req, Callbacks{})

	sess.HandleRequest(localModeMessage(t, false))

	_, err := sess.Result()
	if err != ErrSessionCancelled {
		t.Fatalf("Result error = %v, want ErrSessionCancelled", err)
	}
}

func TestSessionLateCancelRace(t *testing.T) {
	t.Parallel()
	req := newFakeRequester()
	sess := NewSession("s1", req, Callbacks{})

	done := make(chan error, 1)
	go func() {
		done <- sess.Cancel()
	}()

	// Give Cancel a chance to flip the state to CANCELLING before the
	// terminal's success report races in behind it.
	select {
	case <-req.cancelled:
	case <-time.After(time.Second):
		t.Fatal("cancel request was never sent")
	}

	// The terminal had already committed: LocalMode reports success
	// despite the cancel, forcing a reversal.
	sess.HandleRequest(localModeMessage(t, true))
	select {
	case <-req.reversed:
	case <-time.After(time.Second):
		t.Fatal("expected the lost race to trigger a reversal")
	}
	sess.HandleRequest(localModeMessage(t, true))

	if err := <-done; err != nil {
		t.Fatalf("Cancel() = %v, want nil", err)
	}
}

func TestSessionResultResolvesAtMostOnce(t *testing.T) {
	t.Parallel()
	req := newFakeRequester()
	sess := NewSession("s1", req, Callbacks{})

	sess.HandleRequest(localModeMessage(t, true))
	_, err1 := sess.Result()
	_, err2 := sess.Result()
	if err1 != err2 {
		t.Fatalf("Result() returned different errors on repeated calls: %v vs %v", err1, err2)
	}

	// A stray second LocalMode for an already-finished session must
	// not change the outcome.
	sess.HandleRequest(localModeMessage(t, false))
	p, err := sess.Result()
	if err != nil {
		t.Fatalf("Result changed after session was already finished: %v", err)
	}
	if p.StanAuth != "ABC123" {
		t.Fatalf("Result value changed after session was already finished: %+v", p)
	}
}
