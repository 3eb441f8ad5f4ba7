// Package scoring computes the weighted compatibility score of candidate and job pairs.
package scoring

import (
	"math"

	"github.com/spigell/placement-matcher/internal/roster"
)

// Dimension names a scoring dimension.
type Dimension string

const (
	DimensionVertical   Dimension = "Vertical"
	DimensionSalary     Dimension = "Salary"
	DimensionGeo        Dimension = "Geo"
	DimensionConfidence Dimension = "Confidence"
	DimensionReadiness  Dimension = "Readiness"
)

// Dimensions lists every dimension in display order.
func Dimensions() []Dimension {
	return []Dimension{DimensionVertical, DimensionSalary, DimensionGeo, DimensionConfidence, DimensionReadiness}
}

// Bounds of a total score.
const (
	MinTotal = -10
	MaxTotal = 100
)

type Subscores struct {
	Vertical   float64 `json:"vertical"`
	Salary     float64 `json:"salary"`
	Geo        float64 `json:"geo"`
	Confidence float64 `json:"confidence"`
	Readiness  float64 `json:"readiness"`
}

// Total returns the unrounded sum of all subscores.
func (s Subscores) Total() float64 {
	return s.Vertical + s.Salary + s.Geo + s.Confidence + s.Readiness
}

// Map returns the subscores keyed by dimension.
func (s Subscores) Map() map[Dimension]float64 {
	return map[Dimension]float64{
		DimensionVertical:   s.Vertical,
		DimensionSalary:     s.Salary,
		DimensionGeo:        s.Geo,
		DimensionConfidence: s.Confidence,
		DimensionReadiness:  s.Readiness,
	}
}

// CandidateRef identifies a candidate inside one scoring pass.
type CandidateRef struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// JobRef identifies a job inside one scoring pass.
type JobRef struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Account string `json:"account"`
	City    string `json:"city,omitempty"`
}

// MatchResult is one scored candidate and job pair.
type MatchResult struct {
	Candidate CandidateRef `json:"candidate"`
	Job       JobRef       `json:"job"`
	Subscores Subscores    `json:"subscores"`
	Total     float64      `json:"total"`
}

type Scorer struct {
	rules Rules
}

func New(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

func (s *Scorer) Rules() Rules {
	return s.rules
}

// Score computes the five subscores of a pair and their total rounded to one decimal.
// The total is clamped to [MinTotal, MaxTotal]; subscores are reported unclamped.
// Missing data lowers individual subscores and never fails the pair.
func (s *Scorer) Score(c *roster.Candidate, j *roster.Job) MatchResult {
	sub := Subscores{
		Vertical:   s.rules.vertical(c, j),
		Salary:     s.rules.salary(c, j),
		Geo:        s.rules.geo(c, j),
		Confidence: s.rules.confidence(c),
		Readiness:  Round(s.rules.readiness(c)),
	}

	return MatchResult{
		Candidate: CandidateRef{Index: c.Index, Name: c.Name},
		Job:       JobRef{Index: j.Index, Title: j.Title, Account: j.Account, City: j.City},
		Subscores: sub,
		Total:     clamp(Round(sub.Total())),
	}
}

func clamp(total float64) float64 {
	return math.Max(MinTotal, math.Min(MaxTotal, total))
}

// Matrix holds the scores of every candidate against every job.
type Matrix struct {
	Candidates *roster.Candidates
	Jobs       *roster.Jobs
	// Results are candidate-major: all jobs of the first candidate come first,
	// each row in input job order.
	Results []MatchResult
}

// Matrix scores the full cross product of candidates and jobs.
func (s *Scorer) Matrix(candidates *roster.Candidates, jobs *roster.Jobs) *Matrix {
	if candidates == nil {
		candidates = &roster.Candidates{}
	}
	if jobs == nil {
		jobs = &roster.Jobs{}
	}

	m := &Matrix{
		Candidates: candidates,
		Jobs:       jobs,
		Results:    make([]MatchResult, 0, candidates.Len()*jobs.Len()),
	}

	for _, c := range candidates.Items {
		for _, j := range jobs.Items {
			m.Results = append(m.Results, s.Score(c, j))
		}
	}

	return m
}

// At returns the result for the ci-th candidate and the ji-th job of the matrix.
func (m *Matrix) At(ci, ji int) MatchResult {
	return m.Results[ci*m.Jobs.Len()+ji]
}

// Row returns all results of the ci-th candidate.
func (m *Matrix) Row(ci int) []MatchResult {
	n := m.Jobs.Len()
	return m.Results[ci*n : (ci+1)*n]
}

func (m *Matrix) Len() int {
	return len(m.Results)
}

// Round rounds to one decimal place.
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}
