package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/render"
	"github.com/planmon/planmon/internal/report"
	"github.com/planmon/planmon/internal/session"
)

type fakeSender struct {
	err   error
	mu    sync.Mutex
	calls int
}

func (f *fakeSender) Dispatch(ctx context.Context, req client.WorkflowRequest) (*client.Acknowledgement, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &client.Acknowledgement{WorkflowID: req.WorkflowID, Status: "accepted"}, nil
}

// scriptedSource plays back a fixed event sequence. After the script is
// exhausted it either returns final or blocks until cancellation.
type scriptedSource struct {
	connectErr error
	events     []client.Envelope
	final      error
	blockAtEnd bool

	idx    int
	closed bool
}

func (s *scriptedSource) Connect(ctx context.Context) error { return s.connectErr }

func (s *scriptedSource) Next(ctx context.Context) (client.Envelope, error) {
	if s.idx < len(s.events) {
		ev := s.events[s.idx]
		s.idx++
		return ev, nil
	}
	if s.blockAtEnd {
		<-ctx.Done()
		return client.Envelope{}, ctx.Err()
	}
	if s.final != nil {
		return client.Envelope{}, s.final
	}
	return client.Envelope{}, client.ErrStreamClosed
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

type recordingRenderer struct {
	mu      sync.Mutex
	actions []render.Action
}

func (r *recordingRenderer) Render(a render.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
}

func (r *recordingRenderer) count(match func(render.Action) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		if match(a) {
			n++
		}
	}
	return n
}

func mkEvent(t *testing.T, payload map[string]interface{}) client.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	var env client.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	env.Raw = data
	return env
}

func newTestMonitor(t *testing.T, sender *fakeSender, source *scriptedSource) (*Monitor, *recordingRenderer, *session.Session, string) {
	t.Helper()
	dir := t.TempDir()
	sess := session.New()
	rec := &recordingRenderer{}
	req := client.WorkflowRequest{
		WorkflowID: sess.ID,
		Target:     "https://example.test",
		Scope:      "/*",
	}
	m := New(sender, source, rec, report.NewWriter(dir), sess, req)
	return m, rec, sess, dir
}

func TestRunFullScenario(t *testing.T) {
	source := &scriptedSource{events: []client.Envelope{
		mkEvent(t, map[string]interface{}{"type": "ai:thinking", "phase": "recon", "content": "recon"}),
		mkEvent(t, map[string]interface{}{"type": "test:plan", "plan": map[string]interface{}{
			"steps": []map[string]interface{}{{"tool": "nmap", "purpose": "port scan"}},
		}}),
		mkEvent(t, map[string]interface{}{"type": "finding", "finding": map[string]interface{}{
			"type": "open-port", "severity": "high",
		}}),
		mkEvent(t, map[string]interface{}{"type": "workflow:complete"}),
	}}
	m, rec, sess, dir := newTestMonitor(t, &fakeSender{}, source)

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, sess.Terminated())
	assert.Equal(t, StateTerminated, m.State())
	assert.Len(t, sum.AIThoughts, 1)
	require.NotNil(t, sum.TestPlan)
	assert.Len(t, sum.TestPlan.EffectiveSteps(), 1)
	assert.Len(t, sum.Findings, 1)
	assert.GreaterOrEqual(t, sum.Duration, 0.0)
	assert.True(t, source.closed)

	// Exactly one summary render and one artifact on disk.
	summaries := rec.count(func(a render.Action) bool { _, ok := a.(render.SummaryAction); return ok })
	assert.Equal(t, 1, summaries)
	assertSingleArtifact(t, dir, sess.ID)
}

func TestDispatchFailureDoesNotStopListening(t *testing.T) {
	source := &scriptedSource{events: []client.Envelope{
		mkEvent(t, map[string]interface{}{"type": "finding", "severity": "medium", "description": "x"}),
		mkEvent(t, map[string]interface{}{"type": "workflow:complete"}),
	}}
	sender := &fakeSender{err: &client.DispatchError{Kind: client.DispatchTransport, Err: errors.New("refused")}}
	m, rec, sess, dir := newTestMonitor(t, sender, source)

	sum, err := m.Run(context.Background())

	// Listening occurred, so the dispatch failure is not fatal.
	require.NoError(t, err)
	assert.Len(t, sum.Findings, 1)
	assert.True(t, sess.Terminated())
	errs := rec.count(func(a render.Action) bool { _, ok := a.(render.ErrorAction); return ok })
	assert.GreaterOrEqual(t, errs, 1)
	assertSingleArtifact(t, dir, sess.ID)
}

func TestDispatchFailureWithoutListeningIsFatal(t *testing.T) {
	source := &scriptedSource{connectErr: &client.ChannelError{Op: "dial", Err: errors.New("refused")}}
	sender := &fakeSender{err: &client.DispatchError{Kind: client.DispatchTransport, Err: errors.New("refused")}}
	m, _, sess, dir := newTestMonitor(t, sender, source)

	sum, err := m.Run(context.Background())

	var derr *client.DispatchError
	require.ErrorAs(t, err, &derr)
	// Finalization still ran with empty state.
	assert.Empty(t, sum.AIThoughts)
	assert.Empty(t, sum.Findings)
	assert.GreaterOrEqual(t, sum.Duration, 0.0)
	assertSingleArtifact(t, dir, sess.ID)
}

func TestCancellationBeforeAnyEvent(t *testing.T) {
	source := &scriptedSource{blockAtEnd: true}
	m, _, sess, dir := newTestMonitor(t, &fakeSender{}, source)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	sum, err := m.Run(ctx)
	require.NoError(t, err, "operator cancellation is a normal termination path")

	assert.Empty(t, sum.AIThoughts)
	assert.Empty(t, sum.Findings)
	assert.Nil(t, sum.TestPlan)
	assert.GreaterOrEqual(t, sum.Duration, 0.0)
	assertSingleArtifact(t, dir, sess.ID)
}

func TestCancellationKeepsAccumulatedState(t *testing.T) {
	source := &scriptedSource{
		events: []client.Envelope{
			mkEvent(t, map[string]interface{}{"type": "ai:thinking", "content": "partial"}),
		},
		blockAtEnd: true,
	}
	m, _, _, _ := newTestMonitor(t, &fakeSender{}, source)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	sum, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, sum.AIThoughts, 1, "state accumulated before cancellation is preserved")
}

func TestChannelHardFailureFinalizesPartialState(t *testing.T) {
	source := &scriptedSource{
		events: []client.Envelope{
			mkEvent(t, map[string]interface{}{"type": "finding", "severity": "low"}),
		},
		final: &client.ChannelError{Op: "read", Err: errors.New("connection reset")},
	}
	m, rec, sess, dir := newTestMonitor(t, &fakeSender{}, source)

	sum, err := m.Run(context.Background())

	require.NoError(t, err, "channel failure after listening began does not fail the process")
	assert.Len(t, sum.Findings, 1)
	errs := rec.count(func(a render.Action) bool { _, ok := a.(render.ErrorAction); return ok })
	assert.Equal(t, 1, errs)
	assertSingleArtifact(t, dir, sess.ID)
}

func TestCleanCloseWithoutTerminalEventIsNormal(t *testing.T) {
	source := &scriptedSource{events: []client.Envelope{
		mkEvent(t, map[string]interface{}{"type": "ai:thinking", "content": "mid-flight"}),
	}}
	m, rec, sess, dir := newTestMonitor(t, &fakeSender{}, source)

	sum, err := m.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, sum.AIThoughts, 1)
	notices := rec.count(func(a render.Action) bool { _, ok := a.(render.NoticeAction); return ok })
	assert.Equal(t, 1, notices, "clean close without terminal event is noticed distinctly")
	assertSingleArtifact(t, dir, sess.ID)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	source := &scriptedSource{events: []client.Envelope{
		mkEvent(t, map[string]interface{}{"type": "workflow:complete"}),
	}}
	m, rec, sess, dir := newTestMonitor(t, &fakeSender{}, source)

	sum1, err := m.Run(context.Background())
	require.NoError(t, err)
	sum2 := m.Finalize()

	assert.Equal(t, sum1.WorkflowID, sum2.WorkflowID)
	assert.Equal(t, sum1.Duration, sum2.Duration)
	summaries := rec.count(func(a render.Action) bool { _, ok := a.(render.SummaryAction); return ok })
	assert.Equal(t, 1, summaries)
	assertSingleArtifact(t, dir, sess.ID)
}

// assertSingleArtifact checks that exactly one summary artifact exists for
// the workflow and that it parses.
func assertSingleArtifact(t *testing.T, dir, workflowID string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ai-analysis-"+workflowID+".json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	var sum report.Summary
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, workflowID, sum.WorkflowID)
}
