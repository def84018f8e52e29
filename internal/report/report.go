// Package report ranks scored candidates and archives the result.
package report

import (
	"errors"
	"time"

	"github.com/sharphuman/hr-passive-cv/internal/sourcing"
)

// The two zero-result terminal states. Both are valid outcomes, not
// failures, and callers present them with different messages.
var (
	ErrNoCandidates      = errors.New("no candidates to rank")
	ErrAllBelowThreshold = errors.New("all candidates scored at or below the threshold")
)

const DefaultMinScore = 10

// Report is the ranked, thresholded candidate table of one run.
type Report struct {
	Role      string
	MinScore  int
	Items     []*sourcing.Candidate
	CreatedAt time.Time
}

// Rank keeps candidates with score strictly above minScore and orders them
// by score descending. The sort is stable, so ties keep discovery order.
func Rank(c *sourcing.Candidates, role string, minScore int) (*Report, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrNoCandidates
	}

	kept := &sourcing.Candidates{}
	for _, candidate := range c.Items {
		if candidate.Score() > minScore {
			kept.Items = append(kept.Items, candidate)
		}
	}

	if kept.Len() == 0 {
		return nil, ErrAllBelowThreshold
	}

	kept.SortByScore()

	return &Report{
		Role:      role,
		MinScore:  minScore,
		Items:     kept.Items,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (r *Report) Len() int {
	return len(r.Items)
}

// Top returns the first n entries, fewer when the report is shorter.
func (r *Report) Top(n int) []*sourcing.Candidate {
	if n > len(r.Items) {
		n = len(r.Items)
	}
	return r.Items[:n]
}
