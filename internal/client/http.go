package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const runWorkflowPath = "/api/workflows/run"

// Dispatcher sends the one-shot "start workflow" command to the engine.
type Dispatcher struct {
	baseURL string
	client  *http.Client
}

// NewDispatcher creates a dispatcher targeting the given base URL
// (e.g. "http://127.0.0.1:8001").
func NewDispatcher(baseURL string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Dispatch issues exactly one workflow request. Any 2xx response returns the
// engine's acknowledgement body; everything else is a *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, wr WorkflowRequest) (*Acknowledgement, error) {
	data, err := json.Marshal(wr)
	if err != nil {
		return nil, &DispatchError{Kind: DispatchTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+runWorkflowPath, bytes.NewReader(data))
	if err != nil {
		return nil, &DispatchError{Kind: DispatchTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Workflow-Id", wr.WorkflowID)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &DispatchError{Kind: DispatchTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &DispatchError{
			Kind:   DispatchProtocol,
			Status: resp.StatusCode,
			Body:   string(bytes.TrimSpace(body)),
		}
	}

	var ack Acknowledgement
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil && err != io.EOF {
		// A 2xx with an unreadable body still counts as accepted.
		return &Acknowledgement{}, nil
	}
	return &ack, nil
}
