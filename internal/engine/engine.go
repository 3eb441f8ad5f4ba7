// Package engine runs one scoring pass: normalize, filter, score and rank.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/placement-matcher/internal/filtering"
	"github.com/spigell/placement-matcher/internal/logger"
	"github.com/spigell/placement-matcher/internal/metrics"
	"github.com/spigell/placement-matcher/internal/ranking"
	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"
)

const (
	tracerName = "github.com/spigell/placement-matcher/internal/engine"

	DefaultTop = 10
)

type Config struct {
	Rules          scoring.Rules
	FreeTextFields []string
	Filters        *filtering.Config
	// Top is the size of the global top list.
	Top int
	// PerCandidate is the number of jobs kept per candidate in the grouped view.
	PerCandidate int
}

// DefaultConfig returns the canonical rule set with default view sizes.
func DefaultConfig() Config {
	return Config{
		Rules:        scoring.DefaultRules(),
		Filters:      &filtering.Config{},
		Top:          DefaultTop,
		PerCandidate: ranking.DefaultPerCandidate,
	}
}

// Input is one snapshot of raw candidate and job records.
type Input struct {
	Document map[string]any
	// Now is read once per pass and used for every week calculation.
	Now time.Time
}

// Views are the ranked reductions of the score matrix.
type Views struct {
	BestJobPerCandidate []scoring.MatchResult      `json:"best_job_per_candidate"`
	BestCandidatePerJob []scoring.MatchResult      `json:"best_candidate_per_job"`
	Top                 []scoring.MatchResult      `json:"top"`
	TopPerCandidate     []ranking.CandidateMatches `json:"top_per_candidate"`
}

// Report is everything produced by one pass.
type Report struct {
	RunID    string              `json:"run_id"`
	Now      time.Time           `json:"now"`
	Summary  roster.Summary      `json:"summary"`
	Warnings []string            `json:"warnings,omitempty"`
	Filters  []filtering.Applied `json:"filters"`
	Statuses []filtering.Status  `json:"statuses"`
	// Roster is the full normalized snapshot, before filtering.
	Roster *roster.Roster `json:"-"`
	// Eligible is the snapshot that was scored.
	Eligible *roster.Roster  `json:"-"`
	Matrix   *scoring.Matrix `json:"-"`
	Views    Views           `json:"views"`
	Duration time.Duration   `json:"duration"`
}

type Engine struct {
	cfg     Config
	scorer  *scoring.Scorer
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	steps   func() []filtering.Filter
	newID   func() string
}

// New creates an engine. A nil logger is replaced by a no-op logger and nil
// metrics disable instrumentation.
func New(cfg Config, log *zap.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Filters == nil {
		cfg.Filters = &filtering.Config{}
	}
	if cfg.Top <= 0 {
		cfg.Top = DefaultTop
	}
	if cfg.PerCandidate <= 0 {
		cfg.PerCandidate = ranking.DefaultPerCandidate
	}

	return &Engine{
		cfg:     cfg,
		scorer:  scoring.New(cfg.Rules),
		logger:  log.Named("engine"),
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		steps:   filtering.Default,
		newID:   uuid.NewString,
	}
}

// Run executes one scoring pass over the input snapshot. The input is never modified.
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	if in.Now.IsZero() {
		return nil, roster.ErrNoReferenceTime
	}

	started := time.Now()
	runID := e.newID()
	log := logger.WithFields(e.logger, logger.RunFields(runID, in.Now)...)

	ctx, span := e.tracer.Start(ctx, "scoring.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
	))
	defer span.End()

	report, err := e.run(ctx, in, runID, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report.Duration = time.Since(started)
	span.SetAttributes(
		attribute.Int("candidates.eligible", report.Eligible.Candidates.Len()),
		attribute.Int("jobs.eligible", report.Eligible.Jobs.Len()),
		attribute.Int("pairs", report.Matrix.Len()),
	)

	if e.metrics != nil {
		e.metrics.ObserveSummary(report.Summary)
		e.metrics.ObserveFilters(report.Filters)
		e.metrics.ObserveMatrix(report.Matrix)
		e.metrics.ObserveDuration(report.Duration)
	}

	log.Info("scoring pass completed",
		zap.Int("candidates", report.Eligible.Candidates.Len()),
		zap.Int("jobs", report.Eligible.Jobs.Len()),
		zap.Int("pairs", report.Matrix.Len()),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

func (e *Engine) run(ctx context.Context, in Input, runID string, log *zap.Logger) (*Report, error) {
	full, err := roster.Parse(in.Document, roster.Options{
		Now:            in.Now,
		FreeTextFields: e.cfg.FreeTextFields,
	})
	if err != nil {
		return nil, fmt.Errorf("normalizing roster: %w", err)
	}

	for _, warning := range full.Warnings {
		log.Warn("record degraded", zap.String("warning", warning))
	}

	eligible := full.Clone()
	steps := e.steps()
	applied, err := filtering.Run(ctx, e.cfg.Filters, filtering.Deps{Logger: log, Now: in.Now}, steps, eligible)
	if err != nil {
		return nil, fmt.Errorf("filtering roster: %w", err)
	}

	matrix := e.scorer.Matrix(eligible.Candidates, eligible.Jobs)
	for _, r := range matrix.Results {
		log.Debug("pair scored", logger.MatchFields(r)...)
	}

	return &Report{
		RunID:    runID,
		Now:      in.Now,
		Summary:  roster.Summarize(full.Candidates, full.Jobs),
		Warnings: full.Warnings,
		Filters:  applied,
		Statuses: filtering.Describe(steps),
		Roster:   full,
		Eligible: eligible,
		Matrix:   matrix,
		Views: Views{
			BestJobPerCandidate: ranking.BestJobPerCandidate(matrix),
			BestCandidatePerJob: ranking.BestCandidatePerJob(matrix),
			Top:                 ranking.TopN(matrix, e.cfg.Top),
			TopPerCandidate:     ranking.TopPerCandidate(matrix, e.cfg.PerCandidate),
		},
	}, nil
}

// Candidate returns the scored candidate behind a result.
func (r *Report) Candidate(res scoring.MatchResult) *roster.Candidate {
	for _, c := range r.Eligible.Candidates.Items {
		if c.Index == res.Candidate.Index {
			return c
		}
	}
	return nil
}

// Job returns the scored job behind a result.
func (r *Report) Job(res scoring.MatchResult) *roster.Job {
	for _, j := range r.Eligible.Jobs.Items {
		if j.Index == res.Job.Index {
			return j
		}
	}
	return nil
}
