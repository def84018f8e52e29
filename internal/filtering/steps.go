package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sharphuman/hr-passive-cv/internal/ai"
	"github.com/sharphuman/hr-passive-cv/internal/sourcing"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes candidates already listed in
// the exclude file from previous runs.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, c *sourcing.Candidates) (*sourcing.Candidates, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded, err := sourcing.GetExcludedCandidatesFromFile(f.path)
	if err != nil {
		return c, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	removed := c.Exclude(sourcing.CandidateLinkField, excluded.Links())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type domainsFilter struct {
	domains []string
}

// NewDomains creates a filter that removes candidates hosted on excluded
// domains.
func NewDomains() Filter {
	return &domainsFilter{}
}

func (f *domainsFilter) Name() string { return "domains" }

func (f *domainsFilter) Disable(string) {}

func (f *domainsFilter) IsEnabled() bool { return true }

func (f *domainsFilter) Validate(cfg *Config) error {
	f.domains = nil
	if cfg == nil {
		return nil
	}
	for _, domain := range cfg.Domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			f.domains = append(f.domains, domain)
		}
	}
	return nil
}

func (f *domainsFilter) Apply(_ context.Context, deps Deps, c *sourcing.Candidates) (*sourcing.Candidates, Step, error) {
	initial := c.Len()
	if len(f.domains) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	kept := make([]*sourcing.Candidate, 0, initial)
	var removed []string
	for _, candidate := range c.Items {
		if f.matches(candidate.Host()) {
			removed = append(removed, candidate.Link)
			continue
		}
		kept = append(kept, candidate)
	}
	c.Items = kept

	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding candidates by domain",
			zap.Strings("excluded_domains", f.domains),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

// matches reports whether host is one of the excluded domains or a
// subdomain of one.
func (f *domainsFilter) matches(host string) bool {
	if host == "" {
		return false
	}
	for _, domain := range f.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (f *domainsFilter) Status() Status {
	details := map[string]string{}
	if len(f.domains) > 0 {
		details["domains"] = strings.Join(f.domains, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

// Default assessment recorded when the scoring oracle fails for a
// candidate. The candidate stays in the list and sorts to the bottom.
const (
	failOpenReason = "Error"
)

type aiScoreFilter struct {
	disabled bool
	reason   string
	config   *AIConfig
}

// NewAIScore creates the scoring step. It annotates every candidate with an
// assessment and never drops any: thresholding happens at ranking time.
func NewAIScore() Filter {
	return &aiScoreFilter{}
}

func (f *aiScoreFilter) Name() string { return "ai_score" }

func (f *aiScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *aiScoreFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if cfg == nil || cfg.AI == nil {
		return fmt.Errorf("ai configuration is required when scoring is enabled")
	}
	if cfg.AI.Gemini == nil {
		return fmt.Errorf("gemini configuration is required when scoring is enabled")
	}
	if strings.TrimSpace(cfg.AI.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required when scoring is enabled")
	}
	return nil
}

func (f *aiScoreFilter) Apply(ctx context.Context, deps Deps, c *sourcing.Candidates) (*sourcing.Candidates, Step, error) {
	initial := c.Len()
	if deps.Scorer == nil {
		if deps.Logger != nil {
			deps.Logger.Info("scorer is not configured; skipping ai_score step")
		}
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	location := ""
	workStyle := ""
	if deps.Job != nil {
		location = deps.Job.Location
		workStyle = deps.Job.WorkStyle
	}

	failed := 0
	for _, candidate := range c.Items {
		assessment, err := deps.Scorer.Score(ctx, candidate.Snippet, deps.Role, location, workStyle)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("AI scoring failed",
					zap.String("link", candidate.Link),
					zap.Error(err),
				)
			}
			candidate.AI = &sourcing.AIAssessment{
				Score:  0,
				Reason: failOpenReason,
				Flag:   ai.FlagUnknown,
				Error:  err.Error(),
			}
			failed++
			continue
		}

		candidate.AI = &sourcing.AIAssessment{
			Score:  assessment.Score,
			Reason: assessment.Reason,
			Flag:   assessment.Flag,
			Raw:    assessment.Raw,
		}

		if deps.Logger != nil {
			deps.Logger.Info("candidate scored",
				zap.String("link", candidate.Link),
				zap.Int("ai_score", assessment.Score),
				zap.String("flag", assessment.Flag),
			)
		}
	}

	if deps.Logger != nil {
		deps.Logger.Info("AI scoring completed",
			zap.Int("candidates", initial),
			zap.Int("failed", failed),
		)
	}

	return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
}

func (f *aiScoreFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil && f.config.Gemini != nil {
		details["model"] = f.config.Gemini.Model
		details["max_retries"] = strconv.Itoa(f.config.Gemini.MaxRetries)
		details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
