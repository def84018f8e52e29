package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/sharphuman/hr-passive-cv/internal/ai"
	"github.com/sharphuman/hr-passive-cv/internal/logger"

	"go.uber.org/zap"
)

//go:embed score_prompt.md
var scorePromptTemplate string

// Scorer produces one assessment per candidate snippet. One oracle call per
// candidate, no batching.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, snippet, role, location, workStyle string) (*ai.Assessment, error) {
	if strings.TrimSpace(snippet) == "" {
		return nil, fmt.Errorf("candidate snippet is required")
	}

	prompt := buildScorePrompt(snippet, role, location, workStyle)

	s.logger.Debug("gemini score request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini score response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment, err := parseAssessment(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildScorePrompt(snippet, role, location, workStyle string) string {
	prompt := strings.ReplaceAll(scorePromptTemplate, "{{ROLE}}", strings.TrimSpace(role))
	prompt = strings.ReplaceAll(prompt, "{{LOCATION}}", orAny(location))
	prompt = strings.ReplaceAll(prompt, "{{WORK_STYLE}}", orAny(workStyle))
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATE}}", strings.TrimSpace(snippet))
	return prompt
}

func parseAssessment(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini score response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("score response is missing a numeric score")
	}

	return &ai.Assessment{
		Score:  clampScore(score),
		Reason: coerceString(data["reason"]),
		Flag:   ai.NormalizeFlag(coerceString(data["flag"])),
	}, nil
}

// clampScore bounds an oracle score into [0,100]. Out-of-range values are
// never propagated.
func clampScore(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(math.Trunc(score))
}
