package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeCall struct {
	text string
	err  error
}

type fakeCaller struct {
	calls   []fakeCall
	invoked int
}

func (f *fakeCaller) GenerateContent(_ context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := f.calls[f.invoked]
	f.invoked++
	if call.err != nil {
		return nil, call.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: call.text}}}},
		},
	}, nil
}

func newTestGenerator(caller contentCaller, maxRetries int) *Generator {
	return &Generator{
		caller:     caller,
		model:      defaultModel,
		maxRetries: maxRetries,
		logger:     zap.NewNop(),
	}
}

func withoutSleep(t *testing.T) {
	t.Helper()
	orig := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = orig })
}

func TestGenerateContentReturnsText(t *testing.T) {
	caller := &fakeCaller{calls: []fakeCall{{text: "hello"}}}
	generator := newTestGenerator(caller, 2)

	out, err := generator.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Fatalf("unexpected output: %q", out)
	}
	if caller.invoked != 1 {
		t.Fatalf("expected a single call, got %d", caller.invoked)
	}
}

func TestGenerateContentRetriesOnRateLimit(t *testing.T) {
	withoutSleep(t)

	caller := &fakeCaller{calls: []fakeCall{
		{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}},
		{text: "recovered"},
	}}
	generator := newTestGenerator(caller, 3)

	out, err := generator.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("unexpected output: %q", out)
	}
	if caller.invoked != 2 {
		t.Fatalf("expected 2 calls, got %d", caller.invoked)
	}
}

func TestGenerateContentGivesUpAfterMaxRetries(t *testing.T) {
	withoutSleep(t)

	caller := &fakeCaller{calls: []fakeCall{
		{err: genai.APIError{Code: 503, Status: "UNAVAILABLE"}},
		{err: genai.APIError{Code: 503, Status: "UNAVAILABLE"}},
	}}
	generator := newTestGenerator(caller, 2)

	if _, err := generator.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if caller.invoked != 2 {
		t.Fatalf("expected 2 calls, got %d", caller.invoked)
	}
}

func TestGenerateContentDoesNotRetryClientErrors(t *testing.T) {
	caller := &fakeCaller{calls: []fakeCall{
		{err: genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}},
	}}
	generator := newTestGenerator(caller, 3)

	if _, err := generator.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for non-retryable failure")
	}
	if caller.invoked != 1 {
		t.Fatalf("expected a single call, got %d", caller.invoked)
	}
}

func TestGenerateContentDoesNotRetryPlainErrors(t *testing.T) {
	caller := &fakeCaller{calls: []fakeCall{
		{err: errors.New("connection refused")},
	}}
	generator := newTestGenerator(caller, 3)

	if _, err := generator.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error")
	}
	if caller.invoked != 1 {
		t.Fatalf("expected a single call, got %d", caller.invoked)
	}
}

func TestGenerateContentRejectsEmptyResponse(t *testing.T) {
	caller := &fakeCaller{calls: []fakeCall{{text: "  "}}}
	generator := newTestGenerator(caller, 2)

	if _, err := generator.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestGenerateContentRequiresPrompt(t *testing.T) {
	generator := newTestGenerator(&fakeCaller{}, 2)
	if _, err := generator.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}
