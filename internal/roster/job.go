package roster

import (
	"github.com/spigell/placement-matcher/internal/normalize"
)

const (
	JobTitleField    = "Title"
	JobAccountField  = "Account"
	JobVerticalField = "Vertical"
)

type Jobs struct {
	Items []*Job
}

// Job is a normalized, read-only snapshot of one open requisition.
type Job struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Account  string `json:"account"`
	Vertical string `json:"vertical,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	// SalaryText is the raw salary as it appeared in the input.
	SalaryText  string                 `json:"salary_text,omitempty"`
	SalaryRange *normalize.SalaryRange `json:"salary_range,omitempty"`
	SalaryMid   *float64               `json:"salary_mid,omitempty"`
}

func (j *Job) GetStringField(name string) string {
	switch name {
	case JobTitleField:
		return j.Title
	case JobAccountField:
		return j.Account
	case JobVerticalField:
		return j.Vertical
	default:
		return ""
	}
}

// Label is the short human-readable identifier of a job.
func (j *Job) Label() string {
	switch {
	case j.Title == "":
		return j.Account
	case j.Account == "":
		return j.Title
	default:
		return j.Title + " @ " + j.Account
	}
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

// Exclude removes jobs whose field matches any target, ignoring case, preserving order.
// Labels of removed jobs are returned.
func (j *Jobs) Exclude(field string, targets []string) []string {
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
	kept := j.Items[:0]
	for _, job := range j.Items {
		if _, ok := folded[normalize.Fold(job.GetStringField(field))]; ok {
			excluded = append(excluded, job.Label())
			continue
		}
		kept = append(kept, job)
	}
	clear(j.Items[len(kept):])
	j.Items = kept

	return excluded
}

func (j *Jobs) Clone() *Jobs {
	items := make([]*Job, len(j.Items))
	copy(items, j.Items)
	return &Jobs{Items: items}
}
