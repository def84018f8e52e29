package sourcing

import (
	"net/url"
	"strings"
)

const (
	CandidateLinkField = "Link"
	CandidateHostField = "Host"

	// UnknownName is used when the display name cannot be derived from a title.
	UnknownName = "Unknown"
)

// JobRequest is the immutable input to one sourcing run.
type JobRequest struct {
	Description string
	Location    string
	WorkStyle   string
}

// WithoutLocation returns a copy of the request with the location dropped.
// Used for the relaxed strategy retry when the first pass finds nothing.
func (j *JobRequest) WithoutLocation() *JobRequest {
	return &JobRequest{
		Description: j.Description,
		WorkStyle:   j.WorkStyle,
	}
}

// Candidate is a single profile found by the search oracle. Link is the
// deduplication key for the lifetime of one run.
type Candidate struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	// Query records which search string surfaced this candidate.
	Query string `json:"query,omitempty"`

	AI *AIAssessment `json:"ai,omitempty"`
}

// AIAssessment carries the scoring oracle verdict for a candidate.
type AIAssessment struct {
	Score  int    `json:"score"`
	Reason string `json:"reason,omitempty"`
	Flag   string `json:"flag,omitempty"`
	Raw    string `json:"raw,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Score returns the assessed score, zero when the candidate has not been
// scored or scoring failed.
func (c *Candidate) Score() int {
	if c.AI == nil {
		return 0
	}
	return c.AI.Score
}

// Host returns the lowercased hostname of the candidate link, empty when the
// link does not parse.
func (c *Candidate) Host() string {
	u, err := url.Parse(c.Link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func (c *Candidate) GetStringField(name string) string {
	switch name {
	case CandidateLinkField:
		return c.Link
	case CandidateHostField:
		return c.Host()
	default:
		return ""
	}
}
