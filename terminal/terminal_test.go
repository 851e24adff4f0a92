package terminal

import (
	"context"
	"testing"
)

func TestOpenRejectsMissingScheme(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), "localhost:4000"); err == nil {
		t.Fatal("expected an error opening a uri with no scheme")
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "nope+tcp://localhost:4000")
	if err == nil {
		t.Fatal("expected an error opening a uri with an unregistered scheme")
	}
	if _, ok := err.(*ErrNotSupported); !ok {
		t.Fatalf("error = %T, want *ErrNotSupported", err)
	}
}

func TestOpenBBSTCPSchemeIsRegistered(t *testing.T) {
	t.Parallel()
	registryMu.Lock()
	_, ok := registry["bbs+tcp"]
	registryMu.Unlock()
	if !ok {
		t.Fatal("expected bbs+tcp to be registered by the bbs driver's init")
	}
}
