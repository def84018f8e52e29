package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/sharphuman/hr-passive-cv/internal/ai"
	"github.com/sharphuman/hr-passive-cv/internal/logger"
	"github.com/sharphuman/hr-passive-cv/internal/sourcing"

	"go.uber.org/zap"
)

//go:embed strategy_prompt.md
var strategyPromptTemplate string

// maxDescriptionRunes bounds the job description prefix sent to the oracle.
// This is a hard input-limit constraint, not an optimization.
const maxDescriptionRunes = 3000

const defaultMaxLogLength = 200

// Planner turns a job request into a search strategy via the
// text-completion oracle.
type Planner struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewPlanner(generator contentGenerator, maxLogLength int, log *zap.Logger) *Planner {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Planner{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Plan asks the oracle for a role label and the boolean query strings. Any
// transport or schema failure is returned as an error: the caller treats it
// as "no strategy" and stops the run before any search call.
func (p *Planner) Plan(ctx context.Context, job *sourcing.JobRequest) (*ai.SearchStrategy, error) {
	if job == nil || strings.TrimSpace(job.Description) == "" {
		return nil, fmt.Errorf("job description is required")
	}

	prompt := buildStrategyPrompt(job)

	p.logger.Debug("gemini strategy request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, p.maxLogLen)),
	)

	raw, err := p.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("gemini strategy response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, p.maxLogLen)),
	)

	return parseStrategy(raw)
}

func buildStrategyPrompt(job *sourcing.JobRequest) string {
	description := truncateRunes(job.Description, maxDescriptionRunes)

	prompt := strings.ReplaceAll(strategyPromptTemplate, "{{JOB_DESCRIPTION}}", description)
	prompt = strings.ReplaceAll(prompt, "{{LOCATION}}", orAny(job.Location))
	prompt = strings.ReplaceAll(prompt, "{{WORK_STYLE}}", orAny(job.WorkStyle))
	return prompt
}

func orAny(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "any"
	}
	return s
}

// parseStrategy validates the oracle payload against the strategy schema.
// A schema violation is the same failure category as a transport error.
func parseStrategy(raw string) (*ai.SearchStrategy, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini strategy response: %w", err)
	}

	roleTitle := coerceString(data["role_title"])
	if roleTitle == "" {
		return nil, fmt.Errorf("strategy response is missing role_title")
	}

	queries := coerceStringSlice(data["boolean_strings"])
	if len(queries) == 0 {
		// Some model revisions answer with "queries" instead.
		queries = coerceStringSlice(data["queries"])
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("strategy response contains no query strings")
	}

	return &ai.SearchStrategy{
		RoleTitle: roleTitle,
		Queries:   queries,
	}, nil
}
