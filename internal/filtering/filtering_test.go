package filtering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/training"
)

var now = time.Date(2025, time.January, 29, 9, 0, 0, 0, time.UTC)

func sampleRoster() *roster.Roster {
	return &roster.Roster{
		Candidates: &roster.Candidates{Items: []*roster.Candidate{
			{Index: 0, Name: "Kathryn Keillor", Readiness: training.StageInTraining},
			{Index: 1, Name: "Evan Tichenor", Readiness: training.StageReadyForPlacement},
			{Index: 2, Name: "Ives Mullen", Readiness: training.StagePositionIdentified},
			{Index: 3, Name: "Micah Scherrei", Readiness: training.StageStartingSoon},
		}},
		Jobs: &roster.Jobs{Items: []*roster.Job{
			{Index: 0, Title: "Software Engineer", Account: "Oracle"},
			{Index: 1, Title: "QA Analyst", Account: "Quidel Ortho"},
			{Index: 2, Title: "Project Manager", Account: "Mars"},
		}},
	}
}

func TestRunDefaultSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	placed := &roster.Candidates{Items: []*roster.Candidate{{Name: "micah scherrei"}}}
	require.NoError(t, AppendToExcludeFile(path, placed, roster.ExcludeActorUser, "placed", now))

	core, observed := observer.New(zapcore.InfoLevel)
	r := sampleRoster()
	cfg := &Config{
		Candidates:  []string{"EVAN TICHENOR"},
		Accounts:    []string{"mars"},
		ExcludeFile: path,
	}

	applied, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core), Now: now}, Default(), r)
	require.NoError(t, err)
	require.Len(t, applied, 4)

	assert.Equal(t, "position_identified", applied[0].Name)
	assert.Equal(t, Step{Initial: 4, Dropped: 1, Left: 3}, applied[0].Step)
	assert.Equal(t, []string{"Ives Mullen"}, applied[0].Removed)

	assert.Equal(t, Step{Initial: 3, Dropped: 1, Left: 2}, applied[1].Step)
	assert.Equal(t, Step{Initial: 3, Dropped: 1, Left: 2}, applied[2].Step)
	assert.Equal(t, []string{"Project Manager @ Mars"}, applied[2].Removed)
	assert.Equal(t, Step{Initial: 2, Dropped: 1, Left: 1}, applied[3].Step)

	assert.Equal(t, []string{"Kathryn Keillor"}, r.Candidates.Names())
	assert.Equal(t, 2, r.Jobs.Len())

	steps := observed.FilterMessage("filter step").All()
	require.Len(t, steps, 4)
	assert.Equal(t, "exclude_file", steps[3].ContextMap()["name"])
	assert.EqualValues(t, 1, steps[3].ContextMap()["left"])
}

func TestRunWithoutConfig(t *testing.T) {
	r := sampleRoster()

	applied, err := Run(context.Background(), nil, Deps{}, Default(), r)
	require.NoError(t, err)
	require.Len(t, applied, 4)
	assert.Equal(t, 3, r.Candidates.Len())
	assert.Equal(t, 3, r.Jobs.Len())
	assert.Equal(t, Step{Initial: 3, Dropped: 0, Left: 3}, applied[3].Step)
}

func TestDisableByName(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	steps := Default()
	DisableByName(steps, "excluded_accounts", "requested")
	DisableByName(steps, "position_identified", "requested")

	r := sampleRoster()
	applied, err := Run(context.Background(), &Config{Accounts: []string{"Oracle"}}, Deps{Logger: zap.New(core)}, steps, r)
	require.NoError(t, err)
	assert.Len(t, applied, 3)
	assert.Equal(t, 3, r.Jobs.Len())
	assert.Equal(t, 3, r.Candidates.Len(), "position identified candidates are always removed")
	assert.Equal(t, 1, observed.FilterMessage("filter disabled").Len())

	statuses := Describe(steps)
	require.Len(t, statuses, 4)
	assert.True(t, statuses[0].Enabled)
	assert.False(t, statuses[2].Enabled)
	assert.Equal(t, "requested", statuses[2].Reason)
	assert.Empty(t, statuses[2].Details, "disabled steps are not validated")
}

type failingFilter struct {
	toggle
	validateErr error
	applyErr    error
}

func (f *failingFilter) Name() string { return "failing" }

func (f *failingFilter) Validate(*Config) error { return f.validateErr }

func (f *failingFilter) Apply(context.Context, Deps, *roster.Roster) (Step, error) {
	return Step{}, f.applyErr
}

func TestRunErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Run(context.Background(), nil, Deps{}, []Filter{&failingFilter{validateErr: boom}}, sampleRoster())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")

	_, err = Run(context.Background(), nil, Deps{}, []Filter{&failingFilter{applyErr: boom}}, sampleRoster())
	assert.ErrorIs(t, err, boom)

	_, err = Run(context.Background(), nil, Deps{}, Default(), &roster.Roster{})
	assert.ErrorIs(t, err, roster.ErrMalformedInput)
}

func TestAppendToExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	first := &roster.Candidates{Items: []*roster.Candidate{{Name: "Evan Tichenor"}}}
	second := &roster.Candidates{Items: []*roster.Candidate{{Name: "Kathryn Keillor"}}}
	require.NoError(t, AppendToExcludeFile(path, first, roster.ExcludeActorUser, "placed", now))
	require.NoError(t, AppendToExcludeFile(path, second, roster.ExcludeActorConfig, "withdrew", now))

	excluded, err := roster.GetExcludedCandidatesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Evan Tichenor", "Kathryn Keillor"}, excluded.Names())
	assert.Equal(t, "withdrew", excluded.Items[1].Reason)

	assert.Error(t, AppendToExcludeFile(" ", first, roster.ExcludeActorUser, "", now))
}
