package sourcing

import (
	"encoding/json"
	"os"
	"time"
)

// ExcludedCandidates is the on-disk list of profiles already delivered or
// contacted in previous runs. The file format is indented JSON.
type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	Link       string
	Name       string
	ExcludedAt time.Time
}

// ToExcluded converts the current working set into exclude-file entries.
func (c *Candidates) ToExcluded() *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, candidate := range c.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			Link:       candidate.Link,
			Name:       candidate.Name,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func GetExcludedCandidatesFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
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

func (e *ExcludedCandidates) Links() []string {
	links := make([]string, 0, len(e.Items))
	for _, candidate := range e.Items {
		links = append(links, candidate.Link)
	}
	return links
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
