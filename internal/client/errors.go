package client

import (
	"errors"
	"fmt"
)

// DispatchKind distinguishes how a workflow dispatch failed.
type DispatchKind int

const (
	DispatchTransport DispatchKind = iota // connection-level failure
	DispatchProtocol                      // non-2xx response
)

// DispatchError is a failed workflow dispatch. A dispatch is attempted exactly
// once; there is no retry path.
type DispatchError struct {
	Kind   DispatchKind
	Status int    // HTTP status for protocol failures
	Body   string // response body when the engine returned one
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Kind == DispatchProtocol {
		if e.Body != "" {
			return fmt.Sprintf("dispatch rejected (%d): %s", e.Status, e.Body)
		}
		return fmt.Sprintf("dispatch rejected (%d)", e.Status)
	}
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ChannelError is a hard transport failure on the event channel. It ends the
// event sequence; finalization still runs with whatever state accumulated.
type ChannelError struct {
	Op  string // "dial", "subscribe", "read"
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("event channel %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// ErrStreamClosed marks a clean close of the event stream by the remote end.
// It is an ordinary end of the sequence, not a failure.
var ErrStreamClosed = errors.New("event stream closed by remote")
