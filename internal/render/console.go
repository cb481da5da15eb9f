package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/theme"
)

const (
	defaultPanelWidth = 76
	targetColWidth    = 30
)

// Console renders actions as bordered panels and aligned tables on a writer.
// Render is safe for concurrent use; the dispatcher and the listener may
// both emit actions.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	width int
}

// NewConsole creates a console renderer. width <= 0 uses the default.
func NewConsole(w io.Writer, width int) *Console {
	if width <= 0 {
		width = defaultPanelWidth
	}
	return &Console{w: w, width: width}
}

// Render draws one action. Unknown severities, empty plans, and missing
// fields all render with placeholders instead of failing.
func (c *Console) Render(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch a := a.(type) {
	case DispatchAction:
		desc := a.Description
		if runewidth.StringWidth(desc) > 100 {
			desc = runewidth.Truncate(desc, 100, "...")
		}
		body := fmt.Sprintf("Target: %s\nScope: %s\nObjective: %s", a.Target, a.Scope, desc)
		c.panel("Request", body, theme.ColorReasoning)

	case ThoughtAction:
		c.panel("AI Thinking - "+a.Phase, a.Content, theme.ColorThought)

	case StrategyAction:
		c.renderStrategy(a)

	case ClassificationAction:
		body := fmt.Sprintf("Intent: %s\nConfidence: %.2f%%", orUnknown(a.Intent), a.Confidence*100)
		c.panel("Intent Classification", body, theme.ColorClassification)

	case PlanAction:
		c.renderPlan(a.Plan)

	case PhaseAction:
		banner := lipgloss.NewStyle().Foreground(theme.ColorPhase).Bold(true).Render(a.Phase)
		fmt.Fprintln(c.w, banner)

	case FindingAction:
		c.renderFinding(a.Finding)

	case CompleteAction:
		// The summary panel follows from the emitter; nothing to draw here.

	case ErrorAction:
		body := a.Err.Error()
		if a.Context != "" {
			body = a.Context + ": " + body
		}
		c.panel("Error", body, theme.ColorError)

	case NoticeAction:
		fmt.Fprintln(c.w, theme.Dimmed.Render(a.Text))

	case SummaryAction:
		plan := "No"
		if a.PlanGenerated {
			plan = "Yes"
		}
		body := fmt.Sprintf(
			"Workflow ID: %s\nDuration: %.2f seconds\nAI Thoughts Captured: %d\nFindings: %d\nTest Plan Generated: %s",
			a.WorkflowID, a.Duration, a.ThoughtCount, a.FindingCount, plan)
		c.panel("Summary", body, theme.ColorSummary)
		if a.OutputPath != "" {
			fmt.Fprintln(c.w, theme.Dimmed.Render("Results saved to "+a.OutputPath))
		}
	}
}

func (c *Console) renderStrategy(a StrategyAction) {
	var b strings.Builder
	b.WriteString(theme.TableHead.Render(row("Phase", "Action", "Priority")))
	b.WriteString("\n")
	for _, rec := range a.Strategy.Recommendations {
		action := fmt.Sprintf("%s: %s", orUnknown(rec.Tool), rec.Purpose)
		b.WriteString(row(orNA(a.Strategy.Phase), action, orDefault(rec.Priority, "medium")))
		b.WriteString("\n")
	}
	c.panel("AI Strategy", strings.TrimRight(b.String(), "\n"), theme.ColorStrategy)

	reasoning := a.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	c.panel("Reasoning", reasoning, theme.ColorReasoning)
}

func (c *Console) renderPlan(plan client.TestPlan) {
	steps := plan.EffectiveSteps()

	var b strings.Builder
	b.WriteString(theme.TableHead.Render(planRow("Step", "Tool", "Target", "Purpose")))
	b.WriteString("\n")
	for i, step := range steps {
		target := step.Target
		if target == "" {
			target = plan.Target
		}
		if target == "" {
			target = "N/A"
		}
		target = runewidth.Truncate(target, targetColWidth, "")
		b.WriteString(planRow(strconv.Itoa(i+1), step.ToolName(), target, step.PurposeText()))
		b.WriteString("\n")
	}
	c.panel("Test Execution Plan", strings.TrimRight(b.String(), "\n"), theme.ColorPlan)

	if len(steps) > 0 {
		first := steps[0]
		body := fmt.Sprintf("First Action: %s\nPurpose: %s\nPriority: %s",
			first.ToolName(), first.PurposeText(), orDefault(first.Priority, "Not specified"))
		c.panel("Initial Step Details", body, theme.ColorPhase)
	}
}

func (c *Console) renderFinding(f client.Finding) {
	severity := orDefault(f.Severity, "info")
	color := theme.SeverityColor(severity)
	title := "Finding - " + lipgloss.NewStyle().Foreground(color).Bold(true).Render(strings.ToUpper(severity))
	body := fmt.Sprintf("Type: %s\nDescription: %s\nImpact: %s",
		orUnknown(f.Type), orNA(f.Description), orNA(f.Impact))
	c.panel(title, body, color)
}

// panel draws a titled, bordered box.
func (c *Console) panel(title, body string, accent lipgloss.Color) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(c.width)
	content := theme.PanelTitle.Render(title) + "\n" + body
	fmt.Fprintln(c.w, box.Render(content))
}

func row(phase, action, priority string) string {
	return fmt.Sprintf("%-15s %-44s %-10s",
		runewidth.Truncate(phase, 15, ""),
		runewidth.Truncate(action, 44, ""),
		runewidth.Truncate(priority, 10, ""))
}

func planRow(step, tool, target, purpose string) string {
	return fmt.Sprintf("%-5s %-20s %-30s %s",
		step,
		runewidth.Truncate(tool, 20, ""),
		runewidth.Truncate(target, targetColWidth, ""),
		purpose)
}

func orUnknown(s string) string { return orDefault(s, "Unknown") }
func orNA(s string) string      { return orDefault(s, "N/A") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
