// Package monitor supervises one monitoring run: it dispatches the workflow
// command and drains the event stream concurrently, folds events into the
// session, and finalizes the summary artifact exactly once.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/logging"
	"github.com/planmon/planmon/internal/render"
	"github.com/planmon/planmon/internal/report"
	"github.com/planmon/planmon/internal/session"
)

// State is the supervisor's lifecycle stage.
type State int32

const (
	StateInitializing State = iota
	StateDispatched
	StateListening
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateDispatched:
		return "dispatched"
	case StateListening:
		return "listening"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// EventSource is the event channel as the supervisor sees it. *client.EventClient
// implements it; tests substitute scripted sources.
type EventSource interface {
	Connect(ctx context.Context) error
	Next(ctx context.Context) (client.Envelope, error)
	Close() error
}

// CommandSender issues the one-shot workflow command. *client.Dispatcher
// implements it.
type CommandSender interface {
	Dispatch(ctx context.Context, req client.WorkflowRequest) (*client.Acknowledgement, error)
}

// Monitor runs one session end to end.
type Monitor struct {
	sender   CommandSender
	events   EventSource
	renderer render.Renderer
	writer   *report.Writer
	sess     *session.Session
	req      client.WorkflowRequest

	state     atomic.Int32
	listening atomic.Bool
	finalize  sync.Once
	summary   report.Summary
}

// New wires a supervisor for the given session. req.WorkflowID must match
// the session's correlation id.
func New(sender CommandSender, events EventSource, r render.Renderer, w *report.Writer, sess *session.Session, req client.WorkflowRequest) *Monitor {
	return &Monitor{
		sender:   sender,
		events:   events,
		renderer: r,
		writer:   w,
		sess:     sess,
		req:      req,
	}
}

// State returns the current lifecycle stage.
func (m *Monitor) State() State { return State(m.state.Load()) }

func (m *Monitor) setState(s State) {
	m.state.Store(int32(s))
	logging.Infof(logging.CatMonitor, "state -> %s", s)
}

// Run drives the session to completion and returns the finalized summary.
// It starts the dispatch and the listener together, waits for both, and
// finalizes exactly once on every path, including operator cancellation.
// The returned error is non-nil only when the dispatch failed and listening
// never began; that is the one condition that should fail the process.
func (m *Monitor) Run(ctx context.Context) (report.Summary, error) {
	type taskResult struct {
		name string
		err  error
	}

	// A terminal event stops a dispatch that is still in flight. Nothing
	// else crosses between the two tasks: a dispatch failure never cancels
	// the listener, and a listener failure never cancels the dispatch.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	results := make(chan taskResult, 2)
	go func() { results <- taskResult{"dispatch", m.runDispatch(runCtx)} }()
	go func() {
		err := m.runListen(runCtx)
		if m.sess.Terminated() {
			stop()
		}
		results <- taskResult{"listen", err}
	}()

	var dispatchErr error
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			logging.Warnf(logging.CatMonitor, "%s task ended: %v", r.name, r.err)
		}
		if r.name == "dispatch" {
			dispatchErr = r.err
		}
	}

	sum := m.Finalize()

	if dispatchErr != nil && !m.listening.Load() {
		return sum, dispatchErr
	}
	return sum, nil
}

// runDispatch issues the workflow command once. StartedAt is recorded on
// send, before the outcome is known.
func (m *Monitor) runDispatch(ctx context.Context) error {
	m.renderer.Render(render.DispatchAction{
		Target:      m.req.Target,
		Scope:       m.req.Scope,
		Description: m.req.Description,
	})

	m.sess.MarkDispatched(time.Now())
	ack, err := m.sender.Dispatch(ctx, m.req)

	// Both outcomes leave the initializing state; a failed dispatch is
	// recorded but does not block event listening.
	m.setState(StateDispatched)

	if err != nil {
		if ctx.Err() == nil {
			m.renderer.Render(render.ErrorAction{Context: "dispatch", Err: err})
		}
		return err
	}
	if ack.Status != "" {
		logging.Infof(logging.CatDispatch, "workflow accepted: %s", ack.Status)
	}
	return nil
}

// runListen drains the event stream sequentially: one event is fully
// classified and rendered before the next is read, so session mutations
// happen in arrival order.
func (m *Monitor) runListen(ctx context.Context) error {
	if err := m.events.Connect(ctx); err != nil {
		if ctx.Err() == nil {
			m.renderer.Render(render.ErrorAction{Context: "event channel", Err: err})
		}
		return err
	}
	defer m.events.Close()
	m.listening.Store(true)
	m.setState(StateListening)

	for {
		ev, err := m.events.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				m.renderer.Render(render.NoticeAction{Text: "Monitoring stopped by operator"})
				logging.Infof(logging.CatMonitor, "listener cancelled by operator")
				return nil
			case errors.Is(err, client.ErrStreamClosed):
				// A clean close without a terminal event is a normal end
				// with partial state, logged apart from cancellation.
				if !m.sess.Terminated() {
					m.renderer.Render(render.NoticeAction{Text: "Event stream closed before workflow completion"})
					logging.Infof(logging.CatMonitor, "stream closed without terminal event")
				}
				return nil
			default:
				m.renderer.Render(render.ErrorAction{Context: "event channel", Err: err})
				return err
			}
		}

		if act := session.Classify(ev, m.sess); act != nil {
			m.renderer.Render(act)
		}
		if m.sess.Terminated() {
			logging.Infof(logging.CatMonitor, "terminal event received")
			return nil
		}
	}
}

// Finalize computes and persists the summary. It runs exactly once no matter
// how many termination paths race into it; later calls return the same
// summary.
func (m *Monitor) Finalize() report.Summary {
	m.finalize.Do(func() {
		m.sess.Terminate()
		m.setState(StateTerminated)

		sum := report.Build(m.sess, time.Now())
		path, err := m.writer.Write(sum)
		if err != nil {
			logging.Errorf(logging.CatReport, "writing summary: %v", err)
			m.renderer.Render(render.ErrorAction{Context: "summary", Err: err})
		}

		m.renderer.Render(render.SummaryAction{
			WorkflowID:    sum.WorkflowID,
			Duration:      sum.Duration,
			ThoughtCount:  len(sum.AIThoughts),
			FindingCount:  len(sum.Findings),
			PlanGenerated: sum.TestPlan != nil,
			OutputPath:    path,
		})
		m.summary = sum
	})
	return m.summary
}
