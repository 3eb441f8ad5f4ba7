// Package ranking reduces a score matrix into the views used to pick placements.
package ranking

import (
	"sort"

	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"
)

// DefaultPerCandidate is the number of jobs shown for each candidate.
const DefaultPerCandidate = 3

// Group orders candidates in the per-candidate view.
type Group int

const (
	GroupReady Group = iota
	GroupInTraining
	GroupOther
)

func (g Group) String() string {
	switch g {
	case GroupReady:
		return "ready"
	case GroupInTraining:
		return "in training"
	default:
		return "other"
	}
}

// GroupOf places a candidate by program week: week 6 and later is ready, weeks 1 to 5 are in training.
func GroupOf(c *roster.Candidate) Group {
	switch {
	case c.Week.IsReady():
		return GroupReady
	case c.Week.InTraining():
		return GroupInTraining
	default:
		return GroupOther
	}
}

// CandidateMatches is one entry of the per-candidate view.
type CandidateMatches struct {
	Candidate *roster.Candidate     `json:"candidate"`
	Group     string                `json:"group"`
	Matches   []scoring.MatchResult `json:"matches"`

	group Group
}

// Best returns the highest total of the entry.
func (c CandidateMatches) Best() float64 {
	if len(c.Matches) == 0 {
		return 0
	}
	return c.Matches[0].Total
}

// BestJobPerCandidate returns one result per candidate holding the highest scoring job.
// Ties go to the job that comes first in the input.
func BestJobPerCandidate(m *scoring.Matrix) []scoring.MatchResult {
	if m == nil || m.Jobs.Len() == 0 {
		return nil
	}

	best := make([]scoring.MatchResult, 0, m.Candidates.Len())
	for ci := range m.Candidates.Items {
		best = append(best, first(m.Row(ci)))
	}
	return best
}

// BestCandidatePerJob returns one result per job holding the highest scoring candidate.
// Ties go to the candidate that comes first in the input.
func BestCandidatePerJob(m *scoring.Matrix) []scoring.MatchResult {
	if m == nil || m.Candidates.Len() == 0 {
		return nil
	}

	best := make([]scoring.MatchResult, 0, m.Jobs.Len())
	for ji := range m.Jobs.Items {
		column := make([]scoring.MatchResult, 0, m.Candidates.Len())
		for ci := range m.Candidates.Items {
			column = append(column, m.At(ci, ji))
		}
		best = append(best, first(column))
	}
	return best
}

// TopN returns the n highest scoring pairs of the matrix in descending order.
// Equal totals keep matrix order. A non-positive n yields nothing.
func TopN(m *scoring.Matrix, n int) []scoring.MatchResult {
	if m == nil || n <= 0 {
		return nil
	}

	sorted := descending(m.Results)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// TopPerCandidate returns the k best jobs of every candidate. Ready candidates come
// first, then candidates in training, then everyone else. Inside a group candidates
// are ordered by their best total, descending, and keep input order on ties.
func TopPerCandidate(m *scoring.Matrix, k int) []CandidateMatches {
	if m == nil || k <= 0 || m.Jobs.Len() == 0 {
		return nil
	}

	view := make([]CandidateMatches, 0, m.Candidates.Len())
	for ci, c := range m.Candidates.Items {
		matches := descending(m.Row(ci))
		if k < len(matches) {
			matches = matches[:k]
		}

		g := GroupOf(c)
		view = append(view, CandidateMatches{
			Candidate: c,
			Group:     g.String(),
			Matches:   matches,
			group:     g,
		})
	}

	sort.SliceStable(view, func(i, j int) bool {
		if view[i].group != view[j].group {
			return view[i].group < view[j].group
		}
		return view[i].Best() > view[j].Best()
	})

	return view
}

func first(results []scoring.MatchResult) scoring.MatchResult {
	best := results[0]
	for _, r := range results[1:] {
		if r.Total > best.Total {
			best = r
		}
	}
	return best
}

func descending(results []scoring.MatchResult) []scoring.MatchResult {
	sorted := make([]scoring.MatchResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})
	return sorted
}
