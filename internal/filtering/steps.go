package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/training"
)

// toggle carries the state shared by steps that can be switched off.
type toggle struct {
	disabled bool
	reason   string
	removed  []string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) Removed() []string { return t.removed }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

type positionIdentifiedFilter struct {
	removed []string
}

// NewPositionIdentified creates a filter that removes candidates whose position is already
// identified. Such candidates never take part in matching, so the step cannot be disabled.
func NewPositionIdentified() Filter {
	return &positionIdentifiedFilter{}
}

func (f *positionIdentifiedFilter) Name() string { return "position_identified" }

func (f *positionIdentifiedFilter) Disable(string) {}

func (f *positionIdentifiedFilter) IsEnabled() bool { return true }

func (f *positionIdentifiedFilter) Validate(*Config) error { return nil }

func (f *positionIdentifiedFilter) Removed() []string { return f.removed }

func (f *positionIdentifiedFilter) Apply(_ context.Context, deps Deps, r *roster.Roster) (Step, error) {
	initial := r.Candidates.Len()
	f.removed = r.Candidates.ExcludeStage(training.StagePositionIdentified)
	if len(f.removed) > 0 {
		deps.Logger.Debug("excluding candidates with identified positions",
			zap.Strings("excluded_candidates", f.removed),
			zap.Int("candidates_left", r.Candidates.Len()),
		)
	}

	return Step{Initial: initial, Dropped: len(f.removed), Left: r.Candidates.Len()}, nil
}

func (f *positionIdentifiedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type excludedCandidatesFilter struct {
	toggle
	names []string
}

// NewExcludedCandidates creates a filter that removes candidates listed in the config.
func NewExcludedCandidates() Filter {
	return &excludedCandidatesFilter{}
}

func (f *excludedCandidatesFilter) Name() string { return "excluded_candidates" }

func (f *excludedCandidatesFilter) Validate(cfg *Config) error {
	f.names = nil
	if cfg != nil {
		f.names = append(f.names, cfg.Candidates...)
	}
	return nil
}

func (f *excludedCandidatesFilter) Apply(_ context.Context, deps Deps, r *roster.Roster) (Step, error) {
	initial := r.Candidates.Len()
	f.removed = r.Candidates.Exclude(roster.CandidateNameField, f.names)
	if len(f.removed) > 0 {
		deps.Logger.Info("excluding candidates by config",
			zap.Strings("excluded_candidates", f.removed),
			zap.Int("candidates_left", r.Candidates.Len()),
		)
	}

	return Step{Initial: initial, Dropped: len(f.removed), Left: r.Candidates.Len()}, nil
}

func (f *excludedCandidatesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["candidates"] = strings.Join(f.names, ",")
	}
	return f.status(f.Name(), details)
}

type excludedAccountsFilter struct {
	toggle
	accounts []string
}

// NewExcludedAccounts creates a filter that removes jobs by accounts configured in the config.
func NewExcludedAccounts() Filter {
	return &excludedAccountsFilter{}
}

func (f *excludedAccountsFilter) Name() string { return "excluded_accounts" }

func (f *excludedAccountsFilter) Validate(cfg *Config) error {
	f.accounts = nil
	if cfg != nil {
		f.accounts = append(f.accounts, cfg.Accounts...)
	}
	return nil
}

func (f *excludedAccountsFilter) Apply(_ context.Context, deps Deps, r *roster.Roster) (Step, error) {
	initial := r.Jobs.Len()
	f.removed = r.Jobs.Exclude(roster.JobAccountField, f.accounts)
	if len(f.removed) > 0 {
		deps.Logger.Info("excluding jobs by accounts",
			zap.Strings("excluded_accounts", f.accounts),
			zap.Strings("excluded_jobs", f.removed),
			zap.Int("jobs_left", r.Jobs.Len()),
		)
	}

	return Step{Initial: initial, Dropped: len(f.removed), Left: r.Jobs.Len()}, nil
}

func (f *excludedAccountsFilter) Status() Status {
	details := map[string]string{}
	if len(f.accounts) > 0 {
		details["accounts"] = strings.Join(f.accounts, ",")
	}
	return f.status(f.Name(), details)
}
