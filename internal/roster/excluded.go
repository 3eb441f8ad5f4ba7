package roster

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

const (
	ExcludeActorUser   = "user"
	ExcludeActorConfig = "config"
)

type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

// ExcludedCandidate is an entry of the exclude file.
type ExcludedCandidate struct {
	Name       string
	Actor      string
	Reason     string
	ExcludedAt time.Time
}

// ToExcluded converts candidates into exclude-file entries.
func (c *Candidates) ToExcluded(actor, reason string, now time.Time) *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, candidate := range c.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			Name:       candidate.Name,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}

// GetExcludedCandidatesFromFile reads the exclude file. A missing or empty file
// yields an empty list.
func GetExcludedCandidatesFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedCandidates{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedCandidates) Names() []string {
	names := make([]string, 0, len(e.Items))
	for _, candidate := range e.Items {
		names = append(names, candidate.Name)
	}
	return names
}

func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
