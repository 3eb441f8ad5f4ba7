// Package ai describes optional narrative explanations of scored matches.
// Explanations are informational only and never change a score.
package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"
)

// MatchContext is everything an explainer may look at for one pair.
type MatchContext struct {
	Candidate *roster.Candidate
	Job       *roster.Job
	Result    scoring.MatchResult
}

type Explanation struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
	Raw       string   `json:"-"`
}

type Explainer interface {
	Explain(ctx context.Context, match MatchContext) (*Explanation, error)
}

// Explained pairs a match with its explanation. Explanation is nil when the
// explainer failed for that match.
type Explained struct {
	Result      scoring.MatchResult `json:"result"`
	Explanation *Explanation        `json:"explanation,omitempty"`
}

// ExplainAll asks the explainer about every match in order. A failed match is
// logged and kept without an explanation; only context cancellation stops the loop.
func ExplainAll(ctx context.Context, explainer Explainer, logger *zap.Logger, matches []MatchContext) ([]Explained, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]Explained, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		explanation, err := explainer.Explain(ctx, match)
		if err != nil {
			logger.Warn("failed to explain match",
				zap.String("candidate", match.Result.Candidate.Name),
				zap.String("job", match.Job.Label()),
				zap.Error(err),
			)
		}

		out = append(out, Explained{Result: match.Result, Explanation: explanation})
	}

	return out, nil
}
