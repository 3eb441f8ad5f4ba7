package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/placement-matcher/internal/normalize"
	"github.com/spigell/placement-matcher/internal/training"
)

const (
	CandidatesKey = "candidates"
	JobsKey       = "jobs"
)

// ErrMalformedInput is returned when the input cannot be read as two lists of records.
var ErrMalformedInput = errors.New("malformed input")

// ErrNoReferenceTime is returned when a pass is started without a "now".
var ErrNoReferenceTime = errors.New("reference time is required")

// Roster is a normalized snapshot of candidates and jobs for one scoring pass.
type Roster struct {
	Candidates *Candidates
	Jobs       *Jobs
	// Warnings lists record fields that could not be decoded and were left empty.
	Warnings []string
}

// Options control one normalization pass.
type Options struct {
	// Now is the reference moment for week calculation.
	Now time.Time
	// FreeTextFields are field-name tokens whose values are scanned for bonus keywords.
	FreeTextFields []string
}

// candidateRecord is the loose shape of a candidate row. Keys are matched after
// folding, with spaces and dashes turned into underscores.
type candidateRecord struct {
	Name       string `mapstructure:"name"`
	Vertical   string `mapstructure:"vertical"`
	Vert       string `mapstructure:"vert"`
	Location   string `mapstructure:"location"`
	City       string `mapstructure:"city"`
	State      string `mapstructure:"state"`
	Salary     any    `mapstructure:"salary"`
	Confidence string `mapstructure:"confidence"`
	Status     string `mapstructure:"status"`
	StartDate  any    `mapstructure:"start_date"`
	Start      any    `mapstructure:"start"`
	Week       any    `mapstructure:"week"`
}

type jobRecord struct {
	Title       string `mapstructure:"title"`
	Account     string `mapstructure:"account"`
	Vertical    string `mapstructure:"vertical"`
	Vert        string `mapstructure:"vert"`
	City        string `mapstructure:"city"`
	State       string `mapstructure:"state"`
	Location    string `mapstructure:"location"`
	Salary      any    `mapstructure:"salary"`
	SalaryRange any    `mapstructure:"salary_range"`
}

// Decode normalizes a document holding "candidates" and "jobs" record lists.
// Bad field values degrade to empty values; only a document that is not shaped
// as two lists of records is rejected.
func Decode(doc map[string]any, opts Options) (*Roster, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is empty", ErrMalformedInput)
	}

	doc = foldKeys(doc)

	candidateRows, err := records(doc, CandidatesKey)
	if err != nil {
		return nil, err
	}

	jobRows, err := records(doc, JobsKey)
	if err != nil {
		return nil, err
	}

	return DecodeRecords(candidateRows, jobRows, opts)
}

// DecodeRecords normalizes already separated candidate and job records.
func DecodeRecords(candidateRows, jobRows []map[string]any, opts Options) (*Roster, error) {
	if opts.Now.IsZero() {
		return nil, ErrNoReferenceTime
	}

	tokens := opts.FreeTextFields
	if tokens == nil {
		tokens = normalize.DefaultFreeTextFields
	}

	r := &Roster{
		Candidates: &Candidates{Items: make([]*Candidate, 0, len(candidateRows))},
		Jobs:       &Jobs{Items: make([]*Job, 0, len(jobRows))},
	}

	for idx, row := range candidateRows {
		candidate, warn := decodeCandidate(idx, row, tokens, opts.Now)
		if warn != "" {
			r.Warnings = append(r.Warnings, warn)
		}
		r.Candidates.Items = append(r.Candidates.Items, candidate)
	}

	for idx, row := range jobRows {
		job, warn := decodeJob(idx, row)
		if warn != "" {
			r.Warnings = append(r.Warnings, warn)
		}
		r.Jobs.Items = append(r.Jobs.Items, job)
	}

	return r, nil
}

func decodeCandidate(idx int, row map[string]any, tokens []string, now time.Time) (*Candidate, string) {
	folded := foldKeys(row)

	var rec candidateRecord
	var problems []string
	if err := decodeRecord(folded, &rec); err != nil {
		problems = append(problems, err.Error())
	}

	c := &Candidate{
		Index:      idx,
		Name:       normalize.Text(rec.Name),
		Vertical:   strings.ToUpper(normalize.Text(firstNonEmpty(rec.Vertical, rec.Vert))),
		Location:   normalize.Text(rec.Location),
		City:       normalize.Text(rec.City),
		State:      normalize.Text(rec.State),
		Confidence: confidenceLevel(rec.Confidence),
		Status:     normalize.Status(rec.Status),
	}

	if c.City == "" && c.Location != "" {
		c.City, c.State = splitMissing(c.Location, c.State)
	}

	if c.Name == "" {
		problems = append(problems, "name is empty")
	}

	if salary, ok := normalize.ParseSalary(rec.Salary); ok && salary > 0 {
		c.Salary = &salary
	} else if unsupported(rec.Salary) {
		problems = append(problems, fmt.Sprintf("salary has unsupported value %v", rec.Salary))
	}

	start := rec.StartDate
	if start == nil {
		start = rec.Start
	}
	if day, ok := normalize.ParseDate(start); ok {
		c.StartDate = &day
	}

	c.Week = training.Calculate(start, rec.Week, now)
	c.Readiness = training.Classify(c.Status, c.Week)
	c.FreeText = normalize.CollectFreeText(row, normalize.FreeTextKeys(row, tokens))

	return c, recordWarning("candidate", idx, problems)
}

func decodeJob(idx int, row map[string]any) (*Job, string) {
	var rec jobRecord
	var problems []string
	if err := decodeRecord(foldKeys(row), &rec); err != nil {
		problems = append(problems, err.Error())
	}

	j := &Job{
		Index:    idx,
		Title:    normalize.Text(rec.Title),
		Account:  normalize.Text(rec.Account),
		Vertical: strings.ToUpper(normalize.Text(firstNonEmpty(rec.Vertical, rec.Vert))),
		City:     normalize.Text(rec.City),
		State:    normalize.Text(rec.State),
	}

	if j.City == "" && rec.Location != "" {
		j.City, j.State = splitMissing(rec.Location, j.State)
	}

	salary := rec.SalaryRange
	if salary == nil {
		salary = rec.Salary
	}
	if salary != nil {
		j.SalaryText = normalize.Text(fmt.Sprint(salary))
	}
	if r, ok := normalize.ParseSalaryRange(salary); ok && r.Mid() > 0 {
		mid := r.Mid()
		j.SalaryRange = &r
		j.SalaryMid = &mid
	} else if unsupported(salary) {
		problems = append(problems, fmt.Sprintf("salary has unsupported value %v", salary))
	}

	return j, recordWarning("job", idx, problems)
}

// unsupported reports a value of a type no salary can be read from. Free text
// such as "TBD" is a normal missing salary and is not reported.
func unsupported(v any) bool {
	switch v.(type) {
	case nil, string, json.Number, int, int32, int64, uint, uint64, float32, float64:
		return false
	default:
		return true
	}
}

func recordWarning(kind string, idx int, problems []string) string {
	if len(problems) == 0 {
		return ""
	}
	return fmt.Sprintf("%s #%d: %s", kind, idx, strings.Join(problems, "; "))
}

func decodeRecord(row map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(row)
}

func records(doc map[string]any, key string) ([]map[string]any, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		if typed, ok := raw.([]map[string]any); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("%w: %s must be a list of records, got %T", ErrMalformedInput, key, raw)
	}

	rows := make([]map[string]any, 0, len(list))
	for idx, item := range list {
		row, ok := asRecord(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a record, got %T", ErrMalformedInput, key, idx, item)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func asRecord(v any) (map[string]any, bool) {
	switch typed := v.(type) {
	case map[string]any:
		return typed, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[fmt.Sprint(key)] = value
		}
		return out, true
	default:
		return nil, false
	}
}

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// foldKeys returns a copy of row with every key folded, so "Start Date",
// "start-date" and "START_DATE" all read as "start_date".
func foldKeys(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		folded := keyReplacer.Replace(normalize.Fold(key))
		if _, exists := out[folded]; exists && value == nil {
			continue
		}
		out[folded] = value
	}
	return out
}

func splitMissing(location, state string) (string, string) {
	city, parsedState := normalize.SplitLocation(location)
	if state == "" {
		state = parsedState
	}
	return city, state
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Clone returns a copy of the roster whose collections can be filtered without
// touching the original snapshot.
func (r *Roster) Clone() *Roster {
	warnings := make([]string, len(r.Warnings))
	copy(warnings, r.Warnings)
	return &Roster{
		Candidates: r.Candidates.Clone(),
		Jobs:       r.Jobs.Clone(),
		Warnings:   warnings,
	}
}
