package payment

import "time"

// Kind enumerates the observable milestones of one payment attempt,
// published to the broker for the web SSE endpoint and the monitor
// TUI to consume. Grounded on proxy.Op/proxy.Event in the reference
// proxy package, whose single flat Event type this mirrors in shape
// (an ID, a kind, a timestamp, and kind-specific detail) even though
// the underlying domain is entirely different.
type Kind int

const (
	KindStarted Kind = iota
	KindDisplayText
	KindPrintText
	KindCancelRequested
	KindReversing
	KindSucceeded
	KindCancelled
	KindBroken
)

func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindDisplayText:
		return "display_text"
	case KindPrintText:
		return "print_text"
	case KindCancelRequested:
		return "cancel_requested"
	case KindReversing:
		return "reversing"
	case KindSucceeded:
		return "succeeded"
	case KindCancelled:
		return "cancelled"
	case KindBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Event is one observable milestone of a payment attempt, published
// through a broker.Broker[Event] for display and logging.
type Event struct {
	SessionID string
	Kind      Kind
	Time      time.Time
	Text      string // DisplayText prompt, for KindDisplayText
	Payment   *Payment
	Err       error
}
