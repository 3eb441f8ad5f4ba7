package roster

import (
	"fmt"

	"github.com/spigell/placement-matcher/internal/training"
)

// Summary is the headline count row of the dashboard.
type Summary struct {
	TotalCandidates   int                    `json:"total_candidates"`
	OpenPositions     int                    `json:"open_positions"`
	ReadyForPlacement int                    `json:"ready_for_placement"`
	InTraining        int                    `json:"in_training"`
	OfferPending      int                    `json:"offer_pending"`
	Excluded          int                    `json:"excluded"`
	ByStage           map[training.Stage]int `json:"by_stage"`
}

// Summarize counts candidates per readiness stage. Candidates in an excluded
// stage are reported separately and are not part of any other count.
func Summarize(candidates *Candidates, jobs *Jobs) Summary {
	s := Summary{ByStage: make(map[training.Stage]int)}

	if jobs != nil {
		s.OpenPositions = jobs.Len()
	}
	if candidates == nil {
		return s
	}

	for _, c := range candidates.Items {
		if c.Readiness.Excluded() {
			s.Excluded++
			continue
		}

		s.TotalCandidates++
		s.ByStage[c.Readiness]++

		switch c.Readiness {
		case training.StageReadyForPlacement:
			s.ReadyForPlacement++
		case training.StageInTraining:
			s.InTraining++
		case training.StageOfferPending:
			s.OfferPending++
		}
	}

	return s
}

// ReportByStage groups candidates by readiness stage for display.
func (c *Candidates) ReportByStage() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, candidate := range c.Items {
		key := string(candidate.Readiness)

		salary := ""
		if candidate.Salary != nil {
			salary = fmt.Sprintf("%.0f", *candidate.Salary)
		}

		report[key] = append(report[key], map[string]string{
			"name":       candidate.Name,
			"vertical":   candidate.Vertical,
			"location":   candidate.DisplayLocation(),
			"week":       candidate.Week.String(),
			"salary":     salary,
			"confidence": candidate.Confidence,
		})
	}
	return report
}
