package filtering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/placement-matcher/internal/roster"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes candidates contained in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, r *roster.Roster) (Step, error) {
	initial := r.Candidates.Len()
	f.removed = nil
	if f.path == "" {
		return Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := roster.GetExcludedCandidatesFromFile(f.path)
	if err != nil {
		return Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	f.removed = r.Candidates.Exclude(roster.CandidateNameField, excluded.Names())
	if len(f.removed) > 0 {
		deps.Logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", f.removed),
			zap.Int("candidates_left", r.Candidates.Len()),
		)
	}

	return Step{Initial: initial, Dropped: len(f.removed), Left: r.Candidates.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return f.status(f.Name(), details)
}

// AppendToExcludeFile adds candidates to the exclude file, creating it when missing.
func AppendToExcludeFile(path string, candidates *roster.Candidates, actor, reason string, now time.Time) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("exclude file path is empty")
	}

	excluded, err := roster.GetExcludedCandidatesFromFile(path)
	if err != nil {
		return fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	excluded.Append(candidates.ToExcluded(actor, reason, now))
	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("writing exclude file: %w", err)
	}
	return nil
}
