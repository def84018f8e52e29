package ai

import (
	"context"
	"strings"

	"github.com/sharphuman/hr-passive-cv/internal/sourcing"
)

// Categorical flags the scoring oracle may attach to an assessment.
const (
	FlagStrongMatch       = "Strong Match"
	FlagLocationMismatch  = "Location Mismatch"
	FlagRoleMismatch      = "Role Mismatch"
	FlagSeniorityMismatch = "Too Senior/Junior"
	FlagUnknown           = "Unknown"
)

// SearchStrategy is the planner output: one short role label and the boolean
// query strings passed verbatim to the search oracle.
type SearchStrategy struct {
	RoleTitle string
	Queries   []string
}

// Assessment is the scorer verdict for a single candidate. Score is always
// within [0,100] once it leaves the oracle boundary.
type Assessment struct {
	Score  int
	Reason string
	Flag   string
	Raw    string
}

type Planner interface {
	Plan(ctx context.Context, job *sourcing.JobRequest) (*SearchStrategy, error)
}

type Scorer interface {
	Score(ctx context.Context, snippet, role, location, workStyle string) (*Assessment, error)
}

// NormalizeFlag maps an oracle-provided flag onto the closed set, falling
// back to Unknown for anything unrecognized.
func NormalizeFlag(flag string) string {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case strings.ToLower(FlagStrongMatch):
		return FlagStrongMatch
	case strings.ToLower(FlagLocationMismatch):
		return FlagLocationMismatch
	case strings.ToLower(FlagRoleMismatch):
		return FlagRoleMismatch
	case strings.ToLower(FlagSeniorityMismatch):
		return FlagSeniorityMismatch
	default:
		return FlagUnknown
	}
}
