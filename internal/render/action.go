// Package render defines the display actions the classifier emits and the
// renderers that consume them. Keeping actions as plain values keeps the
// monitor's state machine renderer-agnostic and testable without a terminal.
package render

import "github.com/planmon/planmon/internal/client"

// Action is a single display instruction. The set is closed; renderers
// switch over the concrete types.
type Action interface{ isAction() }

// DispatchAction announces the outgoing workflow request.
type DispatchAction struct {
	Target      string
	Scope       string
	Description string
}

// ThoughtAction renders one reasoning step.
type ThoughtAction struct {
	Phase   string
	Content string
}

// StrategyAction renders the recommendation table plus reasoning text.
type StrategyAction struct {
	Strategy  client.Strategy
	Reasoning string
}

// ClassificationAction renders intent plus confidence.
type ClassificationAction struct {
	Intent     string
	Confidence float64
}

// PlanAction renders the ordered step table and, when at least one step
// exists, a highlighted first-step panel.
type PlanAction struct {
	Plan client.TestPlan
}

// PhaseAction renders the phase banner for a starting test.
type PhaseAction struct {
	Phase string
}

// FindingAction renders a finding panel colored by severity.
type FindingAction struct {
	Finding client.Finding
}

// CompleteAction marks the terminal event; the supervisor finalizes on it.
type CompleteAction struct{}

// ErrorAction renders a distinguishable error panel. Errors never suppress
// the summary.
type ErrorAction struct {
	Context string
	Err     error
}

// NoticeAction renders a one-line informational message.
type NoticeAction struct {
	Text string
}

// SummaryAction renders the finalized run summary.
type SummaryAction struct {
	WorkflowID    string
	Duration      float64 // seconds
	ThoughtCount  int
	FindingCount  int
	PlanGenerated bool
	OutputPath    string
}

func (DispatchAction) isAction()       {}
func (ThoughtAction) isAction()        {}
func (StrategyAction) isAction()       {}
func (ClassificationAction) isAction() {}
func (PlanAction) isAction()           {}
func (PhaseAction) isAction()          {}
func (FindingAction) isAction()        {}
func (CompleteAction) isAction()       {}
func (ErrorAction) isAction()          {}
func (NoticeAction) isAction()         {}
func (SummaryAction) isAction()        {}

// Renderer consumes display actions. Implementations must tolerate any
// action in any order.
type Renderer interface {
	Render(Action)
}
