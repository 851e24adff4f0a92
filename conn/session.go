package conn

import "github.com/bwhmather/bbsterm/wire"

// Session is bound to a Connection to receive request messages sent
// by the terminal (DisplayText, PrintText, ResetTimer, LocalMode,
// KeyboardInputRequest, SendData) while it is current. Only one
// Session may be bound at a time; binding a new one unbinds whatever
// was previously current.
type Session interface {
	// HandleRequest is called on the connection's receive worker
	// goroutine for every non-response message the terminal sends
	// while this Session is current. Implementations must not block
	// for long: a slow handler stalls delivery of every other frame
	// on the wire.
	//
	// The return value tells the Connection how to acknowledge the
	// request: a nil message and nil error mean "acknowledge success",
	// and the Connection sends a generic ResponseMessage(code=success)
	// itself. A non-nil message is sent back verbatim instead. A
	// *TerminalError reports a semantic failure to the terminal via a
	// failure Response without tearing down the connection. Any other
	// error is fatal and triggers Shutdown.
	HandleRequest(msg wire.Message) (*wire.Message, error)

	// Unbind is called when the Session stops being current, either
	// because another Session replaced it or the Connection is
	// shutting down. It must not block.
	Unbind()
}
