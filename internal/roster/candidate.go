package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/placement-matcher/internal/normalize"
	"github.com/spigell/placement-matcher/internal/training"
)

const (
	CandidateNameField     = "Name"
	CandidateVerticalField = "Vertical"
	CandidateStageField    = "Stage"
)

// Confidence levels after folding.
const (
	ConfidenceHigh     = "high"
	ConfidenceModerate = "moderate"
	ConfidenceLow      = "low"
)

type Candidates struct {
	Items []*Candidate
}

// Candidate is a normalized, read-only snapshot of one person in the training pipeline.
type Candidate struct {
	// Index is the position of the record in the input roster.
	Index      int            `json:"index"`
	Name       string         `json:"name"`
	Vertical   string         `json:"vertical,omitempty"`
	Location   string         `json:"location,omitempty"`
	City       string         `json:"city,omitempty"`
	State      string         `json:"state,omitempty"`
	Salary     *float64       `json:"salary,omitempty"`
	Confidence string         `json:"confidence,omitempty"`
	Status     string         `json:"status,omitempty"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	Week       training.Week  `json:"week"`
	Readiness  training.Stage `json:"readiness"`
	// FreeText holds the folded contents of the configured free-text fields.
	FreeText string `json:"-"`
}

func (c *Candidate) GetStringField(name string) string {
	switch name {
	case CandidateNameField:
		return c.Name
	case CandidateVerticalField:
		return c.Vertical
	case CandidateStageField:
		return string(c.Readiness)
	default:
		return ""
	}
}

// DisplayLocation returns the location as "City, ST" when both parts are known.
func (c *Candidate) DisplayLocation() string {
	if c.Location != "" {
		return c.Location
	}
	if c.State == "" {
		return c.City
	}
	if c.City == "" {
		return c.State
	}
	return fmt.Sprintf("%s, %s", c.City, c.State)
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) Names() []string {
	names := make([]string, 0, len(c.Items))
	for _, candidate := range c.Items {
		names = append(names, candidate.Name)
	}
	return names
}

// FindByName returns the first candidate whose name matches, ignoring case.
func (c *Candidates) FindByName(name string) *Candidate {
	for _, candidate := range c.Items {
		if normalize.EqualFold(candidate.Name, name) {
			return candidate
		}
	}
	return nil
}

// Exclude removes candidates whose field matches any target, ignoring case.
// Input order of the remaining candidates is preserved. Names of removed candidates are returned.
func (c *Candidates) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	folded := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if t := normalize.Fold(target); t != "" {
			folded[t] = struct{}{}
		}
	}

	var excluded []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if _, ok := folded[normalize.Fold(candidate.GetStringField(field))]; ok {
			excluded = append(excluded, candidate.Name)
			continue
		}
		kept = append(kept, candidate)
	}
	clear(c.Items[len(kept):])
	c.Items = kept

	return excluded
}

// ExcludeStage removes candidates in the given readiness stage.
func (c *Candidates) ExcludeStage(stage training.Stage) []string {
	return c.Exclude(CandidateStageField, []string{string(stage)})
}

// Clone returns a shallow copy of the collection, so filters can drop items without
// touching the caller's snapshot.
func (c *Candidates) Clone() *Candidates {
	items := make([]*Candidate, len(c.Items))
	copy(items, c.Items)
	return &Candidates{Items: items}
}

func confidenceLevel(raw string) string {
	switch level := normalize.Fold(raw); {
	case strings.HasPrefix(level, "high"):
		return ConfidenceHigh
	case strings.HasPrefix(level, "mod"), strings.HasPrefix(level, "med"):
		return ConfidenceModerate
	case strings.HasPrefix(level, "low"):
		return ConfidenceLow
	default:
		return ""
	}
}
