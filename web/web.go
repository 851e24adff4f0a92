// Package web serves a small embedded dashboard and a server-sent
// events feed of payment.Event traffic, grounded on the reference
// proxy's web.Server: the same *http.Server wrapper, the same
// embedded static handler plus one streaming API endpoint shape,
// with the EXPLAIN endpoint dropped (there is no equivalent concept
// here) and the events payload swapped for payment.Event JSON.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bwhmather/bbsterm/broker"
	"github.com/bwhmather/bbsterm/payment"
)

//go:embed static
var staticFS embed.FS

// Server serves the dashboard and its SSE event feed.
type Server struct {
	http   *http.Server
	broker *broker.Broker[payment.Event]
	logger *slog.Logger
}

// New builds a Server backed by b, the broker every payment.Session's
// events are published to.
func New(b *broker.Broker[payment.Event], logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{broker: b, logger: logger}

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embedded directory is part of the binary; a missing
		// "static" subdirectory is a build-time mistake, not a
		// runtime condition to recover from.
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServer(http.FS(sub)))
	mux.HandleFunc("GET /api/events", s.handleEvents)

	s.http = &http.Server{Handler: mux}
	return s
}

// Serve accepts connections on lis until the server is shut down.
func (s *Server) Serve(lis net.Listener) error {
	return s.http.Serve(lis)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsub := s.broker.Subscribe(64)
	defer unsub()

	ctx := r.Context()
	ping := time.NewTicker(15 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(apiEvent{
				SessionID: ev.SessionID,
				Kind:      ev.Kind.String(),
				Time:      ev.Time,
				Text:      ev.Text,
				Payment:   ev.Payment,
				Error:     errString(ev.Err),
			})
			if err != nil {
				s.logger.Error("failed to marshal event for sse", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

type apiEvent struct {
	SessionID string          `json:"session_id"`
	Kind      string          `json:"kind"`
	Time      time.Time       `json:"time"`
	Text      string          `json:"text,omitempty"`
	Payment   *payment.Payment `json:"payment,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
