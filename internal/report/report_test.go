package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/session"
)

func TestBuildDuration(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startedAt time.Time
		at        time.Time
		want      float64
	}{
		{"dispatch never completed", time.Time{}, start, 0},
		{"normal elapsed", start, start.Add(90 * time.Second), 90},
		{"clock skew clamps to zero", start, start.Add(-time.Second), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.New()
			s.StartedAt = tt.startedAt
			sum := Build(s, tt.at)
			assert.Equal(t, tt.want, sum.Duration)
		})
	}
}

func TestBuildEmptySessionHasEmptyArrays(t *testing.T) {
	sum := Build(session.New(), time.Now())

	data, err := json.Marshal(sum)
	require.NoError(t, err)
	// Arrays must serialize as [], and an absent plan as null.
	assert.Contains(t, string(data), `"aiThoughts":[]`)
	assert.Contains(t, string(data), `"findings":[]`)
	assert.Contains(t, string(data), `"testPlan":null`)
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	s := session.New()
	s.StartedAt = time.Now().Add(-time.Minute)
	s.Thoughts = []session.Thought{{Timestamp: time.Now(), Phase: "recon", Thought: "look around"}}
	s.Findings = []client.Finding{{Type: "open-port", Severity: "high"}}
	s.Plan = &client.TestPlan{Steps: []client.PlanStep{{Tool: "nmap", Purpose: "port scan"}}}

	path, err := w.Write(Build(s, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, w.Path(s.ID), path)
	assert.True(t, strings.HasSuffix(path, "ai-analysis-"+s.ID+".json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.ID, got.WorkflowID)
	assert.InDelta(t, 60, got.Duration, 2)
	require.Len(t, got.AIThoughts, 1)
	require.NotNil(t, got.TestPlan)
	require.Len(t, got.Findings, 1)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteDistinctSessionsDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	a, b := session.New(), session.New()
	_, err := w.Write(Build(a, time.Now()))
	require.NoError(t, err)
	_, err = w.Write(Build(b, time.Now()))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteCreatesOutputDir(t *testing.T) {
	dir := t.TempDir() + "/nested/out"
	w := NewWriter(dir)

	_, err := w.Write(Build(session.New(), time.Now()))
	require.NoError(t, err)
}
