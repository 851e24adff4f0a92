package wire

import (
	"bufio"
	"bytes"
	"testing"
)

func TestWriteFrame(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("12345")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	want := []byte{0x00, 0x05, '1', '2', '3', '4', '5'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("WriteFrame wrote %x, want %x", buf.Bytes(), want)
	}
}

func TestWriteFrameFlushesBufferedWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := WriteFrame(w, []byte("hi")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("WriteFrame did not flush through to the underlying writer")
	}
}

func TestReadFrameRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("hello")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(payload) != "hello" {
		t.Fatalf("ReadFrame = %q, want %q", payload, "hello")
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	t.Parallel()
	buf := bytes.NewBuffer([]byte{0x00, 0x05, '1', '2'})
	_, err := ReadFrame(buf)
	if err == nil {
		t.Fatal("expected an error for a truncated frame body")
	}
	var fe *FramingError
	if _, ok := err.(*FramingError); !ok {
		t.Fatalf("expected a *FramingError, got %T: %v", err, err)
		_ = fe
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	_, err := ReadFrame(buf)
	if err == nil {
		t.Fatal("expected an error reading from an empty stream")
	}
}

func TestWriteFrameRejectsEmptyPayload(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); err == nil {
		t.Fatal("expected an error writing an empty frame")
	}
}
