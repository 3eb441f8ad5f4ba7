package filtering

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/placement-matcher/internal/roster"
)

// Filter represents a single step that removes candidates or jobs before scoring.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, r *roster.Roster) (Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	// Now is the reference moment of the scoring pass.
	Now time.Time
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int `json:"initial"`
	Dropped int `json:"dropped"`
	Left    int `json:"left"`
}

// Applied is the outcome of one enabled step.
type Applied struct {
	Name string `json:"name"`
	Step Step   `json:"step"`
	// Removed holds candidate names or job labels dropped by the step.
	Removed []string `json:"removed,omitempty"`
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	// Candidates are names excluded from scoring.
	Candidates []string
	// Accounts are job accounts excluded from scoring.
	Accounts []string
	// ExcludeFile is the path of the JSON exclude file. Empty disables the step.
	ExcludeFile string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns the standard step list in execution order.
func Default() []Filter {
	return []Filter{
		NewPositionIdentified(),
		NewExcludedCandidates(),
		NewExcludedAccounts(),
		NewExcludeFile(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates every enabled step and then applies them in order to the roster.
// The roster is modified in place.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, r *roster.Roster) ([]Applied, error) {
	if r == nil || r.Candidates == nil || r.Jobs == nil {
		return nil, fmt.Errorf("%w: roster is incomplete", roster.ErrMalformedInput)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	applied := make([]Applied, 0, len(steps))
	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		info, removed, err := apply(ctx, deps, step, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		applied = append(applied, Applied{Name: step.Name(), Step: info, Removed: removed})
	}

	return applied, nil
}

func apply(ctx context.Context, deps Deps, step Filter, r *roster.Roster) (Step, []string, error) {
	info, err := step.Apply(ctx, deps, r)
	if err != nil {
		return Step{}, nil, err
	}

	var removed []string
	if reporter, ok := step.(interface{ Removed() []string }); ok {
		removed = reporter.Removed()
	}
	return info, removed, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
