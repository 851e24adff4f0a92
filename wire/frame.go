package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameSize bounds the two-byte big-endian length prefix.
const maxFrameSize = 0xFFFF

// Flusher is satisfied by writers, such as *bufio.Writer, that buffer
// output and need an explicit push to guarantee a frame reaches the
// wire. WriteFrame flushes after every frame so that partial writes
// never sit buffered across a send-queue pop.
type Flusher interface {
	Flush() error
}

// WriteFrame writes payload as a single length-prefixed frame: a
// two-byte big-endian length of payload itself, with no allowance for
// the two length bytes, followed by payload. It is an error to call it
// with an empty payload, since the minimum frame carries at least a
// one-byte message type discriminator.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("wire: cannot write an empty frame")
	}
	if len(payload) > maxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds the %d byte limit", len(payload), maxFrameSize)
	}
	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if f, ok := w.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and returns its
// payload: the two-byte header is the payload's own length, with
// nothing subtracted or added back off. It returns io.EOF only when
// the stream ends cleanly before any bytes of the next frame are read;
// an end-of-stream that arrives mid-frame is reported as a
// FramingError, since the peer has gone away with a partially
// delivered message.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, newFramingError("connection closed after a truncated frame length")
		}
		return nil, err
	}
	size := binary.BigEndian.Uint16(header)
	if size == 0 {
		return nil, newFramingError("frame length is zero, too small to hold a payload")
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, newFramingError("connection closed after a truncated frame body")
		}
		return nil, err
	}
	return payload, nil
}
