package session

import (
	"time"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/logging"
	"github.com/planmon/planmon/internal/render"
)

// now is swapped out in tests.
var now = time.Now

// Classify maps one raw event to a display action, mutating the session as a
// side effect. Events are classified strictly one at a time, in arrival
// order. Unrecognized event types return nil and leave the session
// untouched, so unknown kinds never crash a run.
func Classify(ev client.Envelope, s *Session) render.Action {
	switch ev.Type {
	case client.EventThinking:
		var p client.ThinkingPayload
		if err := ev.Decode(&p); err != nil {
			logging.Warnf(logging.CatMonitor, "bad thinking payload: %v", err)
			return nil
		}
		phase := p.Phase
		if phase == "" {
			phase = "general"
		}
		s.Thoughts = append(s.Thoughts, Thought{
			Timestamp: now(),
			Phase:     phase,
			Thought:   p.Content,
		})
		return render.ThoughtAction{Phase: phase, Content: p.Content}

	case client.EventStrategy:
		var p client.StrategyPayload
		if err := ev.Decode(&p); err != nil {
			logging.Warnf(logging.CatMonitor, "bad strategy payload: %v", err)
			return nil
		}
		return render.StrategyAction{Strategy: p.Strategy, Reasoning: p.Reasoning}

	case client.EventClassification:
		var p client.ClassificationPayload
		if err := ev.Decode(&p); err != nil {
			logging.Warnf(logging.CatMonitor, "bad classification payload: %v", err)
			return nil
		}
		return render.ClassificationAction{Intent: p.Intent, Confidence: p.Confidence}

	case client.EventPlan:
		var p client.PlanPayload
		if err := ev.Decode(&p); err != nil {
			logging.Warnf(logging.CatMonitor, "bad plan payload: %v", err)
			return nil
		}
		// Last write wins; earlier plans are discarded wholesale.
		plan := p.Plan
		s.Plan = &plan
		return render.PlanAction{Plan: plan}

	case client.EventTestStart:
		var p client.TestStartPayload
		if err := ev.Decode(&p); err != nil {
			logging.Warnf(logging.CatMonitor, "bad test:start payload: %v", err)
			return nil
		}
		name := p.Test
		if name == "" {
			name = "Unknown"
		}
		s.Phase = "Running: " + name
		return render.PhaseAction{Phase: s.Phase}

	case client.EventFinding:
		// Engines either nest the finding under a "finding" key or put its
		// fields at the frame's top level next to the discriminator.
		var wrap struct {
			Finding *client.Finding `json:"finding"`
		}
		var f client.Finding
		if err := ev.Decode(&wrap); err == nil && wrap.Finding != nil {
			f = *wrap.Finding
		} else if err := ev.Decode(&f); err != nil {
			logging.Warnf(logging.CatMonitor, "bad finding payload: %v", err)
			return nil
		}
		s.Findings = append(s.Findings, f)
		return render.FindingAction{Finding: f}

	case client.EventComplete:
		s.Terminate()
		return render.CompleteAction{}

	default:
		logging.Debugf(logging.CatMonitor, "ignoring event type %q", ev.Type)
		return nil
	}
}
