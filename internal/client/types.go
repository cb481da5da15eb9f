package client

import "encoding/json"

// EventType discriminates frames pushed on the event channel.
type EventType string

const (
	EventThinking       EventType = "ai:thinking"
	EventStrategy       EventType = "ai:strategy"
	EventClassification EventType = "ai:classification"
	EventPlan           EventType = "test:plan"
	EventTestStart      EventType = "test:start"
	EventFinding        EventType = "finding"
	EventComplete       EventType = "workflow:complete"
)

// Envelope is a raw event as received from the channel: a type discriminator
// plus the undecoded frame. Payload decoding is deferred to the consumer so
// unknown event types pass through harmlessly.
type Envelope struct {
	Type EventType `json:"type"`
	Raw  json.RawMessage
}

// Decode unmarshals the full frame into the given payload struct.
func (e Envelope) Decode(out interface{}) error {
	return json.Unmarshal(e.Raw, out)
}

// WorkflowOptions are forwarded verbatim to the engine; the client does not
// interpret them.
type WorkflowOptions struct {
	IncludeRecon       bool `json:"includeRecon"`
	IncludeSubdomains  bool `json:"includeSubdomains"`
	TestAuthentication bool `json:"testAuthentication"`
	TestAPIs           bool `json:"testAPIs"`
	VerboseLogging     bool `json:"verboseLogging"`
	CaptureAIReasoning bool `json:"captureAIReasoning"`
	ShowThoughtProcess bool `json:"showThoughtProcess"`
	MaxInitialTests    int  `json:"maxInitialTests"`
}

// WorkflowRequest is the one-shot "start workflow" command body.
type WorkflowRequest struct {
	WorkflowID  string          `json:"workflowId"`
	Target      string          `json:"target"`
	Scope       string          `json:"scope"`
	Description string          `json:"description"`
	TestType    string          `json:"testType"`
	Options     WorkflowOptions `json:"options"`
}

// Acknowledgement is the engine's response to a workflow request.
type Acknowledgement struct {
	WorkflowID string `json:"workflowId,omitempty"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ThinkingPayload carries one reasoning step.
type ThinkingPayload struct {
	Phase   string `json:"phase"`
	Content string `json:"content"`
}

// Recommendation is a proposed action inside a strategy or plan.
type Recommendation struct {
	Tool     string `json:"tool"`
	Purpose  string `json:"purpose"`
	Priority string `json:"priority"`
}

// Strategy groups recommendations for a phase.
type Strategy struct {
	Phase           string           `json:"phase"`
	Recommendations []Recommendation `json:"recommendations"`
}

// StrategyPayload carries the engine's proposed strategy plus free-text
// reasoning.
type StrategyPayload struct {
	Strategy  Strategy `json:"strategy"`
	Reasoning string   `json:"reasoning"`
}

// ClassificationPayload carries the engine's intent classification.
type ClassificationPayload struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// PlanStep is one step of an execution plan. Older engines emit name and
// description instead of tool and purpose; accessors paper over the split.
type PlanStep struct {
	Tool        string `json:"tool,omitempty"`
	Name        string `json:"name,omitempty"`
	Target      string `json:"target,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// ToolName returns the step's tool, falling back to its name.
func (s PlanStep) ToolName() string {
	if s.Tool != "" {
		return s.Tool
	}
	if s.Name != "" {
		return s.Name
	}
	return "Unknown"
}

// PurposeText returns the step's purpose, falling back to its description.
func (s PlanStep) PurposeText() string {
	if s.Purpose != "" {
		return s.Purpose
	}
	if s.Description != "" {
		return s.Description
	}
	return "N/A"
}

// TestPlan is the engine's full execution plan. Steps is preferred;
// Recommendations is the legacy field some engines use instead.
type TestPlan struct {
	Target          string     `json:"target,omitempty"`
	Steps           []PlanStep `json:"steps,omitempty"`
	Recommendations []PlanStep `json:"recommendations,omitempty"`
}

// EffectiveSteps returns Steps when present, otherwise Recommendations.
// May be empty; an empty plan is valid.
func (p *TestPlan) EffectiveSteps() []PlanStep {
	if p == nil {
		return nil
	}
	if len(p.Steps) > 0 {
		return p.Steps
	}
	return p.Recommendations
}

// PlanPayload wraps a plan event frame.
type PlanPayload struct {
	Plan TestPlan `json:"plan"`
}

// TestStartPayload announces the start of a named test.
type TestStartPayload struct {
	Test string `json:"test"`
}

// Finding is a single security finding reported by the engine.
type Finding struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Severity    string `json:"severity"`
}
