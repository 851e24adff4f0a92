package conn

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/bwhmather/bbsterm/wire"
)

// sendItem is one entry on the send queue: a message to write, the
// Pending that resolves when it is done, and whether a response frame
// is expected before that Pending can be resolved.
type sendItem struct {
	msg             wire.Message
	pending         *Pending
	expectsResponse bool
}

// Connection owns one BBS MsgRouter byte stream and the pair of
// worker goroutines — one sending, one receiving — that turn it into
// a correlated request/response protocol. Grounded on the same
// dual-goroutine relay shape the reference proxy uses for its
// database connections: each worker runs independently, and either
// one hitting a fatal error tears the whole connection down.
type Connection struct {
	rw     io.ReadWriteCloser
	w      *bufio.Writer
	logger *slog.Logger

	sendQueue     *fifo
	responseQueue *fifo

	mu             sync.Mutex
	currentSession Session

	shutdownMu sync.Mutex
	shutdownAt bool

	wg sync.WaitGroup
}

// Open wraps rw and starts the send and receive worker goroutines. rw
// is typically a *net.TCPConn dialled against a bbs+tcp terminal URI.
func Open(rw io.ReadWriteCloser, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		rw:            rw,
		w:             bufio.NewWriter(rw),
		logger:        logger,
		sendQueue:     newFIFO(),
		responseQueue: newFIFO(),
	}
	c.wg.Add(2)
	go c.sendLoop()
	go c.receiveLoop()
	return c
}

// SetCurrentSession binds sess as the session that receives request
// messages. Whatever session was previously bound is unbound first,
// matching the driver's "only one live session" invariant.
func (c *Connection) SetCurrentSession(sess Session) {
	c.mu.Lock()
	prev := c.currentSession
	c.currentSession = sess
	c.mu.Unlock()
	if prev != nil {
		prev.Unbind()
	}
}

// CurrentSession returns whatever session is presently bound, or nil.
func (c *Connection) CurrentSession() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSession
}

// Send enqueues msg for transmission and resolves its Pending with a
// nil value as soon as the frame is written, without waiting for any
// response.
func (c *Connection) Send(msg wire.Message) *Pending {
	p := NewPending()
	c.enqueue(sendItem{msg: msg, pending: p, expectsResponse: false})
	return p
}

// SendRequest enqueues msg for transmission and resolves its Pending
// with the decoded response message once a matching is_response frame
// arrives from the terminal, in the order requests were sent.
func (c *Connection) SendRequest(msg wire.Message) *Pending {
	p := NewPending()
	c.enqueue(sendItem{msg: msg, pending: p, expectsResponse: true})
	return p
}

func (c *Connection) enqueue(item sendItem) {
	c.shutdownMu.Lock()
	closed := c.shutdownAt
	c.shutdownMu.Unlock()
	if closed {
		item.pending.Fail(ErrClosed)
		return
	}
	c.sendQueue.Push(item)
}

func (c *Connection) sendLoop() {
	defer c.wg.Done()
	for {
		raw, ok := c.sendQueue.Pop()
		if !ok {
			return
		}
		item := raw.(sendItem)
		if !item.pending.claim() {
			// Cancelled before we got to it; never written.
			continue
		}
		data, err := item.msg.Pack()
		if err != nil {
			item.pending.Fail(err)
			continue
		}
		if item.expectsResponse {
			c.responseQueue.Push(item.pending)
		}
		if err := wire.WriteFrame(c.w, data); err != nil {
			c.logger.Error("bbs send failed, shutting down connection", "error", err)
			if !item.expectsResponse {
				item.pending.Fail(err)
			}
			go c.Shutdown()
			return
		}
		if !item.expectsResponse {
			item.pending.Complete(nil)
		}
	}
}

func (c *Connection) receiveLoop() {
	defer c.wg.Done()
	for {
		payload, err := wire.ReadFrame(c.rw)
		if err != nil {
			if err != io.EOF {
				c.logger.Error("bbs receive failed, shutting down connection", "error", err)
			}
			go c.Shutdown()
			return
		}
		msg, err := wire.UnpackITUMessage(payload)
		if err != nil {
			c.logger.Error("discarding unparsable frame from terminal", "error", err)
			continue
		}
		if msg.IsResponse() {
			c.handleResponse(msg)
			continue
		}
		c.handleRequest(msg)
	}
}

func (c *Connection) handleResponse(msg wire.Message) {
	raw, ok := c.responseQueue.TryPop()
	if !ok {
		c.logger.Error("response has no corresponding request", "type", msg.Type)
		return
	}
	raw.(*Pending).Complete(msg)
}

func (c *Connection) handleRequest(msg wire.Message) {
	sess := c.CurrentSession()
	if sess == nil {
		c.logger.Warn("request message received with no session bound", "type", msg.Type)
		return
	}
	resp, err := sess.HandleRequest(msg)
	c.respond(msg, resp, err)
}

// respond sends the acknowledgement for a just-handled request frame,
// matching _handle_request's dispatch in the reference driver: a nil
// response and nil error become a generic success Response, a
// *TerminalError becomes a failure Response logged but not fatal, and
// any other error is fatal and shuts the connection down.
func (c *Connection) respond(req wire.Message, resp *wire.Message, err error) {
	var termErr *TerminalError
	switch {
	case err != nil && errors.As(err, &termErr):
		c.logger.Warn("terminal error handling request", "type", req.Type, "error", err)
		c.sendGenericResponse("failure", req.Type)
	case err != nil:
		c.logger.Error("fatal error handling request, shutting down connection", "type", req.Type, "error", err)
		go c.Shutdown()
	case resp != nil:
		c.Send(*resp)
	default:
		c.sendGenericResponse("success", req.Type)
	}
}

func (c *Connection) sendGenericResponse(code string, reqType wire.MessageType) {
	out, err := wire.NewMessage(wire.TypeResponse, wire.Record{"code": code})
	if err != nil {
		c.logger.Error("failed to build response message", "type", reqType, "error", err)
		return
	}
	c.Send(out)
}

// Shutdown idempotently tears the connection down: it stops accepting
// new sends, closes the underlying stream (unblocking a receive
// worker parked in a read), waits for both workers to exit, and then
// resolves every item still sitting in the send and response queues
// to a terminal failed/cancelled state so that nobody is left waiting
// forever on a Pending that will never be claimed or answered.
func (c *Connection) Shutdown() {
	c.shutdownMu.Lock()
	if c.shutdownAt {
		c.shutdownMu.Unlock()
		return
	}
	c.shutdownAt = true
	c.shutdownMu.Unlock()

	c.rw.Close()
	strandedSends := c.sendQueue.Close()
	c.wg.Wait()

	for _, raw := range strandedSends {
		raw.(sendItem).pending.Cancel()
	}
	for _, raw := range c.responseQueue.Close() {
		raw.(*Pending).Fail(ErrResponseInterrupted)
	}

	if sess := c.CurrentSession(); sess != nil {
		sess.Unbind()
	}
}
