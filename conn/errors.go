// Package conn implements the BBS MsgRouter connection: the pair of
// send and receive worker goroutines that turn a raw byte stream into
// a correlated request/response protocol, and the shutdown sequence
// that drains every pending request to a terminal state when the
// stream dies.
package conn

import "errors"

// ErrClosed is returned by any operation attempted on a Connection
// after Shutdown has been called.
var ErrClosed = errors.New("conn: connection is closed")

// ErrResponseInterrupted is the error a Pending is resolved with when
// the connection shuts down while the request is still waiting for
// its response frame.
var ErrResponseInterrupted = errors.New("conn: connection closed before a response arrived")

// ErrNoCurrentSession is returned when an operation that requires a
// bound session (such as a reversal) is attempted with none bound.
var ErrNoCurrentSession = errors.New("conn: no session is currently bound to this connection")

// NotSupportedError reports that the driver does not implement a
// requested operation. Unlike TODO stubs in the reference driver this
// is a typed, checkable error rather than a bare NotImplementedError.
type NotSupportedError struct {
	Op string
}

func (e *NotSupportedError) Error() string {
	return "conn: operation not supported: " + e.Op
}

// TerminalError is returned by Session.HandleRequest to report a
// semantic failure processing a request frame — the handler
// understood the message but could not satisfy it. The connection
// replies with a failure ResponseMessage instead of tearing itself
// down, matching TerminalError in the reference driver's
// _handle_request: "logged, not fatal".
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string {
	return "conn: terminal error: " + e.Err.Error()
}

func (e *TerminalError) Unwrap() error { return e.Err }
