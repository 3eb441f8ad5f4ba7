package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/placement-matcher/internal/filtering"
	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"
	"github.com/spigell/placement-matcher/internal/training"
)

func TestObserveSummary(t *testing.T) {
	m := New()
	m.ObserveSummary(roster.Summary{
		OpenPositions: 4,
		Excluded:      1,
		ByStage: map[training.Stage]int{
			training.StageReadyForPlacement: 2,
			training.StageInTraining:        3,
		},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Candidates.WithLabelValues(string(training.StageReadyForPlacement))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Candidates.WithLabelValues(string(training.StageInTraining))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Candidates.WithLabelValues(string(training.StageOfferPending))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Candidates.WithLabelValues(string(training.StagePositionIdentified))))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.OpenJobs))
	assert.Equal(t, len(training.Stages()), testutil.CollectAndCount(m.Candidates))
}

func TestObserveMatrixAndFilters(t *testing.T) {
	m := New()
	m.ObserveMatrix(&scoring.Matrix{
		Candidates: &roster.Candidates{},
		Jobs:       &roster.Jobs{},
		Results:    []scoring.MatchResult{{Total: 100}, {Total: 42.5}, {Total: -10}},
	})
	m.ObserveMatrix(nil)
	m.ObserveFilters([]filtering.Applied{
		{Name: "position_identified", Step: filtering.Step{Initial: 5, Dropped: 2, Left: 3}},
		{Name: "exclude_file", Step: filtering.Step{Initial: 3, Dropped: 0, Left: 3}},
	})
	m.ObserveDuration(3 * time.Millisecond)
	m.ObserveExplanation(true)
	m.ObserveExplanation(false)
	m.ObserveExplanation(false)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.PairsScored))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilterDrops.WithLabelValues("position_identified")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FilterDrops.WithLabelValues("exclude_file")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Explanations.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))

	expected := `
# HELP placement_matcher_pairs_scored_total Total number of candidate and job pairs scored
# TYPE placement_matcher_pairs_scored_total counter
placement_matcher_pairs_scored_total 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "placement_matcher_pairs_scored_total"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.PairsScored.Add(6)

	path := filepath.Join(t.TempDir(), "placement_matcher.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "placement_matcher_pairs_scored_total 6")
}
