package wire

import "fmt"

// ValueError reports that a value handed to Pack, or bytes handed to
// Unpack, do not fit the shape a field requires (too long, wrong
// charset, not a valid enum token, and so on).
type ValueError struct {
	msg string
}

func (e *ValueError) Error() string { return e.msg }

func newValueError(format string, args ...any) error {
	return &ValueError{msg: fmt.Sprintf(format, args...)}
}

// FramingError reports that a byte stream could not be split into
// frames: a truncated length prefix, a truncated body, or a length
// prefix of zero.
type FramingError struct {
	msg string
}

func (e *FramingError) Error() string { return e.msg }

func newFramingError(format string, args ...any) error {
	return &FramingError{msg: fmt.Sprintf(format, args...)}
}
