package payment

import (
	"sync"

	"github.com/bwhmather/bbsterm/conn"
	"github.com/bwhmather/bbsterm/wire"
)

type sessionState int

const (
	stateRunning sessionState = iota
	stateCancelling
	stateReversing
	stateFinished
	stateBroken
)

// Requester is the subset of conn.Connection a Session needs to issue
// the out-of-band requests a cancellation can trigger.
type Requester interface {
	RequestCancel() *conn.Pending
	RequestReversal() *conn.Pending
}

// Callbacks lets the caller observe and veto a payment session.
// BeforeCommit is called once the terminal reports success, with the
// decoded Payment; returning false tells the Session to reverse the
// transaction instead of letting it stand. OnDisplayText and
// OnPrintText mirror the before_commit/on_print/on_display hooks
// documented on Terminal.start_payment in
// original_source/payment_terminal/base.py.
type Callbacks struct {
	BeforeCommit func(Payment) bool
	OnDisplayText func(prompt string, expectsInput bool)
	OnPrintText   func([]wire.Receipt)
	OnEvent       func(Event)
}

// Session is one BBS payment attempt's session binding and FSM. It
// implements conn.Session so a Connection can bind it as the current
// session and deliver request frames to it.
//
// Grounded on BBSPaymentSession in
// original_source/payment_terminal/drivers/bbs/payment_session.py:
// the same four-state machine (RUNNING -> CANCELLING -> REVERSING ->
// FINISHED, with a BROKEN trap state for a failed reversal), carried
// over field for field from the Python implementation's locking and
// dispatch-by-state shape.
type Session struct {
	id        string
	requester Requester
	callbacks Callbacks

	mu     sync.Mutex
	state  sessionState
	result *conn.Pending
}

// NewSession starts a new payment session bound to requester, which
// it uses to issue cancel/reversal requests. The caller is expected
// to bind the returned Session onto a Connection with
// Connection.SetCurrentSession before the first request frame can
// arrive.
func NewSession(id string, requester Requester, callbacks Callbacks) *Session {
	s := &Session{
		id:        id,
		requester: requester,
		callbacks: callbacks,
		state:     stateRunning,
		result:    conn.NewPending(),
	}
	s.emit(Event{SessionID: id, Kind: KindStarted})
	return s
}

// Result blocks until the session reaches a terminal state and
// returns the confirmed Payment, or an error: ErrSessionCancelled if
// the attempt did not go through, or *ErrCancelFailed if a
// cancellation's outcome could not be confirmed.
func (s *Session) Result() (Payment, error) {
	value, err := s.result.Wait()
	if err != nil {
		return Payment{}, err
	}
	if value == nil {
		return Payment{}, ErrSessionCancelled
	}
	return value.(Payment), nil
}

// Cancel requests early termination of the session. If the terminal
// has already moved past RUNNING by the time this is called, it
// either rides out whatever is already in flight or reports
// ErrSessionCompleted if the session has already finished.
//
// Grounded on BBSPaymentSession.cancel: set CANCELLING and send a
// non-blocking cancel request while holding the lock, then release it
// and block on the session's own result.
func (s *Session) Cancel() error {
	s.mu.Lock()
	switch s.state {
	case stateRunning:
		s.state = stateCancelling
		s.emit(Event{SessionID: s.id, Kind: KindCancelRequested})
		s.requester.RequestCancel()
	case stateFinished, stateBroken:
		s.mu.Unlock()
		return ErrSessionCompleted
	}
	s.mu.Unlock()

	_, err := s.Result()
	if err == ErrSessionCancelled {
		return nil
	}
	if err == nil {
		// The attempt completed successfully despite the cancel: the
		// caller asked to stop a payment that nonetheless went
		// through and could not be unwound.
		return &ErrCancelFailed{}
	}
	return err
}

// Unbind cancels the session if it is still running, mirroring
// BBSPaymentSession.unbind, which is called whenever a new session
// replaces this one as current or the connection shuts down. Cancel
// runs on its own goroutine, so Unbind returns at once as
// conn.Session requires. Any error Cancel reports is of no use to a
// caller that is just dropping the session, so it is discarded here;
// callers that need to observe cancellation failures should call
// Cancel directly instead.
func (s *Session) Unbind() {
	go func() { _ = s.Cancel() }()
}

// HandleRequest dispatches one request message received while this
// Session is current, matching on_req_local_mode/on_req_display_text
// in the reference driver. Every request handled here is acknowledged
// with a generic success response; none of the session's handlers
// raise a semantic failure back to the terminal.
func (s *Session) HandleRequest(msg wire.Message) (*wire.Message, error) {
	switch msg.Type {
	case wire.TypeDisplayText:
		s.handleDisplayText(msg.Fields)
	case wire.TypePrintText:
		s.handlePrintText(msg.Fields)
	case wire.TypeLocalMode:
		s.handleLocalMode(msg.Fields)
	}
	return nil, nil
}

func (s *Session) handleDisplayText(fields wire.Record) {
	text, _ := fields["text"].(string)
	expectsInput, _ := fields["expects_input"].(bool)
	s.emit(Event{SessionID: s.id, Kind: KindDisplayText, Text: text})
	if s.callbacks.OnDisplayText != nil {
		s.callbacks.OnDisplayText(text, expectsInput)
	}
}

func (s *Session) handlePrintText(fields wire.Record) {
	receipts, _ := fields["commands"].([]wire.Receipt)
	s.emit(Event{SessionID: s.id, Kind: KindPrintText})
	if s.callbacks.OnPrintText != nil {
		s.callbacks.OnPrintText(receipts)
	}
}

func (s *Session) handleLocalMode(fields wire.Record) {
	success := fields["result"] == "success"

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case stateRunning:
		s.onLocalModeRunning(success, fields)
	case stateCancelling:
		s.onLocalModeCancelling(success)
	case stateReversing:
		s.onLocalModeReversing(success)
	}
}

func (s *Session) onLocalModeRunning(success bool, fields wire.Record) {
	if !success {
		s.finish(nil, ErrSessionCancelled)
		return
	}
	p := FromLocalMode(fields)
	commit := true
	if s.callbacks.BeforeCommit != nil {
		commit = s.callbacks.BeforeCommit(p)
	}
	if commit {
		s.finish(p, nil)
		return
	}
	s.startReversal()
}

func (s *Session) onLocalModeCancelling(success bool) {
	if success {
		// Lost the race: the terminal had already committed the
		// transaction by the time our cancel request arrived. The
		// only way back is a reversal.
		s.startReversal()
		return
	}
	// Won the race: the terminal cancelled before committing.
	s.finish(nil, ErrSessionCancelled)
}

func (s *Session) onLocalModeReversing(success bool) {
	if success {
		s.finish(nil, ErrSessionCancelled)
		return
	}
	// The reversal itself failed: the money may have moved and there
	// is no confirmation that it was put back. The session is left
	// BROKEN and its result fails with *ErrCancelFailed, so the
	// operator knows to check with the terminal directly.
	s.mu.Lock()
	s.state = stateBroken
	s.mu.Unlock()
	s.result.Fail(&ErrCancelFailed{})
	s.emit(Event{SessionID: s.id, Kind: KindBroken})
}

func (s *Session) startReversal() {
	s.mu.Lock()
	s.state = stateReversing
	s.mu.Unlock()
	s.emit(Event{SessionID: s.id, Kind: KindReversing})
	s.requester.RequestReversal()
}

func (s *Session) finish(p any, err error) {
	s.mu.Lock()
	s.state = stateFinished
	s.mu.Unlock()

	if err != nil {
		s.result.Fail(err)
		s.emit(Event{SessionID: s.id, Kind: KindCancelled, Err: err})
		return
	}
	payment := p.(Payment)
	s.result.Complete(payment)
	s.emit(Event{SessionID: s.id, Kind: KindSucceeded, Payment: &payment})
}

func (s *Session) emit(ev Event) {
	if s.callbacks.OnEvent != nil {
		s.callbacks.OnEvent(ev)
	}
}
