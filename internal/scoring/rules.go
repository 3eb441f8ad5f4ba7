package scoring

import (
	"github.com/spigell/placement-matcher/internal/normalize"
	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/training"
)

// Point values of the five dimensions.
const (
	VerticalMatchPoints = 30
	VerticalBonusPoints = 10

	SalaryRaisePoints = 25
	SalaryEvenPoints  = 15
	SalaryCutPoints   = -10
	// SalaryBand is the relative difference treated as an even move.
	SalaryBand = 0.05

	GeoCityPoints    = 20
	GeoStatePoints   = 10
	GeoDefaultPoints = 5

	ConfidenceHighPoints     = 15
	ConfidenceModeratePoints = 10
	ConfidenceLowPoints      = 5

	ReadinessFullPoints    = 10
	ReadinessPointsPerWeek = 1.5
)

// Rules holds the tunable parts of the scoring table.
type Rules struct {
	// ConfidenceDefault is awarded when confidence is missing or unrecognized.
	ConfidenceDefault float64
	// ReadinessDefault is awarded when the week is unknown, zero or a future start.
	ReadinessDefault float64
	// BonusKeywords in a candidate's free text earn the vertical bonus.
	BonusKeywords []string
}

// DefaultRules returns the canonical rule set.
func DefaultRules() Rules {
	return Rules{
		ConfidenceDefault: ConfidenceModeratePoints,
		ReadinessDefault:  0,
		BonusKeywords:     []string{"amazon", "aviation"},
	}
}

func (r Rules) vertical(c *roster.Candidate, j *roster.Job) float64 {
	score := 0.0
	if normalize.EqualFold(c.Vertical, j.Vertical) {
		score += VerticalMatchPoints
	}
	if normalize.ContainsAny(c.FreeText, r.BonusKeywords) {
		score += VerticalBonusPoints
	}
	return score
}

// salary compares the job midpoint with the candidate's salary. The checks run in
// order: a raise of at least 5%, then a move within ±5%, then a cut beyond 5%.
func (r Rules) salary(c *roster.Candidate, j *roster.Job) float64 {
	if c.Salary == nil || j.SalaryMid == nil || *c.Salary <= 0 {
		return 0
	}

	diff := (*j.SalaryMid - *c.Salary) / *c.Salary
	switch {
	case diff >= SalaryBand:
		return SalaryRaisePoints
	case diff >= -SalaryBand && diff <= SalaryBand:
		return SalaryEvenPoints
	case diff < -SalaryBand:
		return SalaryCutPoints
	default:
		return 0
	}
}

func (r Rules) geo(c *roster.Candidate, j *roster.Job) float64 {
	if normalize.EqualFold(c.City, j.City) || normalize.EqualFold(c.Location, j.City) {
		return GeoCityPoints
	}
	if normalize.EqualFold(c.State, j.State) ||
		normalize.EndsWithState(c.Location, j.State) {
		return GeoStatePoints
	}
	return GeoDefaultPoints
}

func (r Rules) confidence(c *roster.Candidate) float64 {
	switch c.Confidence {
	case roster.ConfidenceHigh:
		return ConfidenceHighPoints
	case roster.ConfidenceModerate:
		return ConfidenceModeratePoints
	case roster.ConfidenceLow:
		return ConfidenceLowPoints
	default:
		return r.ConfidenceDefault
	}
}

func (r Rules) readiness(c *roster.Candidate) float64 {
	week, ok := c.Week.Number()
	switch {
	case !ok || week <= 0:
		return r.ReadinessDefault
	case week >= training.ReadyWeek:
		return ReadinessFullPoints
	default:
		return ReadinessPointsPerWeek * float64(week)
	}
}
