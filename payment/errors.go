package payment

import "errors"

// ErrSessionCancelled is the error a Session resolves with when the
// payment did not go through — either the terminal itself reported
// the attempt failed, or a cancel request won its race against the
// terminal finishing the transaction.
var ErrSessionCancelled = errors.New("payment: session cancelled")

// ErrSessionCompleted is returned by Cancel when called against a
// Session that has already reached a terminal state.
var ErrSessionCompleted = errors.New("payment: session already completed")

// ErrCancelFailed reports that a cancel or the reversal it triggered
// could not be confirmed — the money may or may not have moved, and
// the ECR operator should be told to check with the terminal
// directly. Grounded on CancelFailedError in
// original_source/payment_terminal/exceptions.py, whose own comment
// calls the reversal-failed case "really really bad".
type ErrCancelFailed struct {
	Cause error
}

func (e *ErrCancelFailed) Error() string {
	if e.Cause != nil {
		return "payment: cancel could not be confirmed: " + e.Cause.Error()
	}
	return "payment: cancel could not be confirmed"
}

func (e *ErrCancelFailed) Unwrap() error { return e.Cause }
