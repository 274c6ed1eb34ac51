package grading

import (
	"context"
	"fmt"
)

// ErrUnsupportedType reports a question type no scorer exists for. It is a
// configuration fault, not a per-answer condition, and is never recovered by
// the LLM fallback.
var ErrUnsupportedType = fmt.Errorf("grading: unsupported question type")

// Grader scores one answer against its question.
type Grader interface {
	Grade(ctx context.Context, q Question, answer string) (Result, error)
}

// MockGrader grades algorithmically, dispatching by question type to the
// built-in scorers. It never fails for supported types.
type MockGrader struct{}

func NewMockGrader() *MockGrader { return &MockGrader{} }

func (g *MockGrader) Grade(_ context.Context, q Question, answer string) (Result, error) {
	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, q.Type)
	}
	if isBlank(answer) {
		return Result{Feedback: "No answer provided."}, nil
	}
	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse:
		return scoreExactMatch(q, answer), nil
	case TypeShortAnswer:
		return scoreShortAnswer(q, answer), nil
	default:
		return scoreEssay(q, answer), nil
	}
}

func isBlank(s string) bool {
	return normalize(s) == ""
}
