package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/planmon/planmon/internal/logging"
)

const (
	defaultPollInterval = 1 * time.Second
	defaultDialTimeout  = 10 * time.Second
	closeWriteTimeout   = 2 * time.Second
)

// subscribeFrame is sent once, immediately after connecting, to scope the
// stream to a single workflow.
type subscribeFrame struct {
	Type       string `json:"type"`
	WorkflowID string `json:"workflowId"`
}

type frame struct {
	data []byte
	err  error
}

// EventClient maintains the long-lived event-stream connection for one
// workflow. It is a pure transport-to-record adapter: frames come out as raw
// Envelopes and are never interpreted here. The sequence is single-use;
// there is no reconnect.
type EventClient struct {
	url          string
	workflowID   string
	pollInterval time.Duration
	dialTimeout  time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	frames chan frame
	done   chan struct{}
	closed bool
}

// NewEventClient creates a client for the given WebSocket URL
// (e.g. "ws://127.0.0.1:8001/ws") scoped to workflowID.
func NewEventClient(url, workflowID string, pollInterval time.Duration) *EventClient {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &EventClient{
		url:          url,
		workflowID:   workflowID,
		pollInterval: pollInterval,
		dialTimeout:  defaultDialTimeout,
	}
}

// Connect dials the stream and sends the subscribe frame. It must be called
// exactly once before Next.
func (c *EventClient) Connect(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = c.dialTimeout

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return &ChannelError{Op: "dial", Err: err}
	}

	sub := subscribeFrame{Type: "subscribe", WorkflowID: c.workflowID}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return &ChannelError{Op: "subscribe", Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.frames = make(chan frame, 1)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.readPump(conn)

	logging.Infof(logging.CatChannel, "connected and subscribed workflow=%s", c.workflowID)
	return nil
}

// Next returns the next well-formed event. It waits in bounded ticks so the
// caller can observe cancellation between frames. Malformed frames are
// dropped with a warning and the sequence continues. A clean remote close
// ends the sequence with ErrStreamClosed; any other transport fault ends it
// with a *ChannelError.
func (c *EventClient) Next(ctx context.Context) (Envelope, error) {
	c.mu.Lock()
	frames := c.frames
	c.mu.Unlock()
	if frames == nil {
		return Envelope{}, &ChannelError{Op: "read", Err: errors.New("not connected")}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return Envelope{}, ctx.Err()

		case <-ticker.C:
			// Scheduling tick: nothing arrived in this window; loop so a
			// pending cancellation is picked up.

		case fr, ok := <-frames:
			if !ok {
				return Envelope{}, ErrStreamClosed
			}
			if fr.err != nil {
				return Envelope{}, fr.err
			}
			var env Envelope
			if err := json.Unmarshal(fr.data, &env); err != nil {
				logging.Warnf(logging.CatChannel, "dropping malformed frame: %v", err)
				continue
			}
			env.Raw = fr.data
			return env, nil
		}
	}
}

// Close tears the connection down. Safe to call more than once and
// concurrently with Next.
func (c *EventClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		return nil
	}
	c.closed = true
	close(c.done)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, msg)
	return c.conn.Close()
}

// readPump moves frames from the connection into the channel until the
// stream ends. A clean close (or a close we initiated) closes the channel;
// any other error is forwarded as a *ChannelError.
func (c *EventClient) readPump(conn *websocket.Conn) {
	c.mu.Lock()
	frames, done := c.frames, c.done
	c.mu.Unlock()
	defer close(frames)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClean(err) {
				logging.Infof(logging.CatChannel, "event stream closed: %v", err)
				return
			}
			select {
			case frames <- frame{err: &ChannelError{Op: "read", Err: err}}:
			case <-done:
			}
			return
		}
		select {
		case frames <- frame{data: data}:
		case <-done:
			return
		}
	}
}

func (c *EventClient) isClean(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	c.mu.Lock()
	closedByUs := c.closed
	c.mu.Unlock()
	return closedByUs
}
