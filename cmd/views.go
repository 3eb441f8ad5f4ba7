package cmd

import (
	"encoding/json"

	"github.com/spigell/placement-matcher/internal/ai"
	"github.com/spigell/placement-matcher/internal/engine"
	"github.com/spigell/placement-matcher/internal/filtering"
	"github.com/spigell/placement-matcher/internal/ranking"
	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"

	"go.uber.org/zap"
)

// matchRow is the printed form of one scored pair.
type matchRow struct {
	Candidate string             `json:"candidate"`
	Job       string             `json:"job"`
	Account   string             `json:"account"`
	City      string             `json:"city,omitempty"`
	Total     float64            `json:"total"`
	Subscores map[string]float64 `json:"subscores"`
}

type groupRow struct {
	Candidate string     `json:"candidate"`
	Group     string     `json:"group"`
	Week      string     `json:"week"`
	Matches   []matchRow `json:"matches"`
}

type explainedRow struct {
	matchRow
	Summary   string   `json:"summary,omitempty"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
}

func toRow(r scoring.MatchResult) matchRow {
	sub := make(map[string]float64)
	for dim, v := range r.Subscores.Map() {
		sub[string(dim)] = v
	}

	return matchRow{
		Candidate: r.Candidate.Name,
		Job:       r.Job.Title,
		Account:   r.Job.Account,
		City:      r.Job.City,
		Total:     r.Total,
		Subscores: sub,
	}
}

func matchRows(results []scoring.MatchResult) []matchRow {
	rows := make([]matchRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, toRow(r))
	}
	return rows
}

func groupRows(groups []ranking.CandidateMatches) []groupRow {
	rows := make([]groupRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, groupRow{
			Candidate: g.Candidate.Name,
			Group:     g.Group,
			Week:      g.Candidate.Week.String(),
			Matches:   matchRows(g.Matches),
		})
	}
	return rows
}

func explainedRows(explained []ai.Explained) []explainedRow {
	rows := make([]explainedRow, 0, len(explained))
	for _, e := range explained {
		row := explainedRow{matchRow: toRow(e.Result)}
		if e.Explanation != nil {
			row.Summary = e.Explanation.Summary
			row.Strengths = e.Explanation.Strengths
			row.Concerns = e.Explanation.Concerns
		}
		rows = append(rows, row)
	}
	return rows
}

func showMatches(view string, results []scoring.MatchResult, logger *zap.Logger) {
	pretty, _ := json.MarshalIndent(matchRows(results), "", "  ")
	logger.Info(string(pretty), zap.String("view", view), zap.Int("matches", len(results)))
}

func showSummary(r *engine.Report, logger *zap.Logger) {
	pretty, _ := json.MarshalIndent(struct {
		Summary  roster.Summary      `json:"summary"`
		Filters  []filtering.Applied `json:"filters"`
		Warnings []string            `json:"warnings,omitempty"`
	}{r.Summary, r.Filters, r.Warnings}, "", "  ")
	logger.Info(string(pretty), zap.String("run_id", r.RunID))
}
