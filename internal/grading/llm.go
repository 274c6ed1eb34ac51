package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// LLMConfig carries the startup configuration for the LLM-backed grader.
type LLMConfig struct {
	APIKey  string
	BaseURL string // e.g. https://generativelanguage.googleapis.com
	Model   string // e.g. gemini-pro
	Timeout time.Duration
}

// LLMGrader grades via a generative-language API returning structured JSON.
// Every failure of the round trip (transport, timeout, unparseable or
// malformed response) falls back to the MockGrader result for that single
// answer, so one flaky call never fails a whole submission.
type LLMGrader struct {
	client   *resty.Client
	model    string
	fallback Grader
}

func NewLLMGrader(cfg LLMConfig) *LLMGrader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey)
	return &LLMGrader{
		client:   client,
		model:    cfg.Model,
		fallback: NewMockGrader(),
	}
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generateRequest struct {
	Contents []promptContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content promptContent `json:"content"`
	} `json:"candidates"`
}

type llmGrade struct {
	IsCorrect    bool    `json:"is_correct"`
	PointsEarned float64 `json:"points_earned"`
	Feedback     string  `json:"feedback"`
}

func (g *LLMGrader) Grade(ctx context.Context, q Question, answer string) (Result, error) {
	// Unsupported types are a configuration fault; the fallback cannot grade
	// them either, so fail loudly instead of asking the model.
	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, q.Type)
	}

	res, err := g.gradeRemote(ctx, q, answer)
	if err != nil {
		return g.fallback.Grade(ctx, q, answer)
	}
	return res, nil
}

func (g *LLMGrader) gradeRemote(ctx context.Context, q Question, answer string) (Result, error) {
	req := generateRequest{
		Contents: []promptContent{{Parts: []promptPart{{Text: buildPrompt(q, answer)}}}},
	}

	var out generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return Result{}, err
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("llm: status %d", resp.StatusCode())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("llm: empty response")
	}
	return parseGrade(out.Candidates[0].Content.Parts[0].Text, q.Points)
}

func buildPrompt(q Question, answer string) string {
	return fmt.Sprintf(`You are an expert academic grader. Evaluate the student's answer fairly and objectively.

Question Type: %s
Question: %s
Expected Answer: %s
Maximum Points: %g

Student's Answer: %s

CRITICAL: Respond ONLY with valid JSON in this exact format (no markdown, no backticks):
{
  "is_correct": true or false,
  "points_earned": <number between 0 and %g>,
  "feedback": "<brief constructive feedback>"
}

Grading Guidelines:
- For multiple choice/true-false: Full points only for exact matches
- For short answers: Full points if key concept is present, partial for close answers
- For essays: Evaluate depth, accuracy, and coverage of key concepts
- Be fair but rigorous. Award partial credit where appropriate.`,
		q.Type, q.Text, q.ExpectedAnswer, q.Points, answer, q.Points)
}

var codeFence = regexp.MustCompile("```(?:json)?")

// parseGrade extracts the JSON grade from the raw model output, stripping
// any markdown code fences, and sanitizes the values: points are clamped to
// [0, max] and correctness is coerced to mean full credit.
func parseGrade(text string, max float64) (Result, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
	var g llmGrade
	if err := json.Unmarshal([]byte(cleaned), &g); err != nil {
		return Result{}, fmt.Errorf("llm: parse grade: %w", err)
	}
	points := round2(math.Min(math.Max(g.PointsEarned, 0), max))
	return Result{
		PointsEarned: points,
		IsCorrect:    points == max,
		Feedback:     g.Feedback,
	}, nil
}
