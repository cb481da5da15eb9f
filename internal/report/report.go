// Package report builds and persists the per-run summary artifact.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/session"
)

const artifactPrefix = "ai-analysis-"

// Summary is the durable record of one monitoring run.
type Summary struct {
	WorkflowID string            `json:"workflowId"`
	Duration   float64           `json:"duration"` // seconds
	AIThoughts []session.Thought `json:"aiThoughts"`
	TestPlan   *client.TestPlan  `json:"testPlan"`
	Findings   []client.Finding  `json:"findings"`
}

// Build derives the summary from final session state. Duration is zero when
// dispatch never completed, and never negative.
func Build(s *session.Session, at time.Time) Summary {
	var duration float64
	if !s.StartedAt.IsZero() {
		duration = at.Sub(s.StartedAt).Seconds()
		if duration < 0 {
			duration = 0
		}
	}
	thoughts := s.Thoughts
	if thoughts == nil {
		thoughts = []session.Thought{}
	}
	findings := s.Findings
	if findings == nil {
		findings = []client.Finding{}
	}
	return Summary{
		WorkflowID: s.ID,
		Duration:   duration,
		AIThoughts: thoughts,
		TestPlan:   s.Plan,
		Findings:   findings,
	}
}

// Writer persists summaries into a directory, one uniquely named file per
// workflow.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir. An empty dir means the current
// directory.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Path returns the artifact path for a workflow id.
func (w *Writer) Path(workflowID string) string {
	return filepath.Join(w.dir, artifactPrefix+workflowID+".json")
}

// Write persists the summary using a temp-file-then-rename pattern so a
// crash mid-write never leaves a corrupt artifact behind.
func (w *Writer) Write(sum Summary) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(w.dir, ".analysis-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	path := w.Path(sum.WorkflowID)
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("renaming summary file: %w", err)
	}
	committed = true

	return path, nil
}
