package grading

import (
	"context"
	"fmt"
	"time"
)

// AnswerItem is one answer joined with its question, ready to grade.
type AnswerItem struct {
	AnswerID      string
	Question      Question
	StudentAnswer string
}

// Batch is everything a submission needs graded, fetched in one round trip.
type Batch struct {
	SubmissionID string
	MaxPossible  float64
	Items        []AnswerItem
}

// GradedAnswer pairs an answer id with its grade.
type GradedAnswer struct {
	AnswerID string
	Result
}

// Outcome is the single logical update persisted after grading: every
// answer's graded fields plus the submission aggregate and status.
type Outcome struct {
	SubmissionID string
	Failed       bool
	TotalScore   float64
	MaxPossible  float64
	GradedAt     time.Time
	Answers      []GradedAnswer
}

// SubmissionStore is the persistence collaborator for grading. Both methods
// must cost a constant number of queries regardless of answer count.
type SubmissionStore interface {
	AnswersForGrading(ctx context.Context, submissionID string) (Batch, error)
	SaveGradingResults(ctx context.Context, out Outcome) error
}

// Summary aggregates the per-answer grades of one submission.
type Summary struct {
	TotalScore  float64        `json:"total_score"`
	MaxPossible float64        `json:"max_possible_score"`
	Results     []GradedAnswer `json:"results"`
}

// GradingError reports a submission left in failed status: the submission
// exists, some answers may be graded, but grading did not complete.
type GradingError struct {
	SubmissionID string
	Graded       int // answers graded before the failure
	Err          error
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("grading submission %s failed after %d answers: %v", e.SubmissionID, e.Graded, e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }

// Service orchestrates grading: one batch fetch, one grader call per answer,
// one persisted outcome.
type Service struct {
	store  SubmissionStore
	grader Grader
	now    func() time.Time
}

func NewService(store SubmissionStore, grader Grader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, grader: grader, now: now}
}

// GradeSubmission grades every answer of the submission and persists the
// results and the pending→graded status transition. If a grader call fails
// (the LLM fallback already absorbs transport faults, so this means a
// configuration fault), the submission is persisted as failed with whatever
// answers graded so far and a GradingError is returned.
func (s *Service) GradeSubmission(ctx context.Context, submissionID string) (Summary, error) {
	batch, err := s.store.AnswersForGrading(ctx, submissionID)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch answers: %w", err)
	}

	graded := make([]GradedAnswer, 0, len(batch.Items))
	total := 0.0
	for _, item := range batch.Items {
		res, err := s.grader.Grade(ctx, item.Question, item.StudentAnswer)
		if err != nil {
			out := Outcome{
				SubmissionID: submissionID,
				Failed:       true,
				TotalScore:   round2(total),
				MaxPossible:  batch.MaxPossible,
				GradedAt:     s.now(),
				Answers:      graded,
			}
			if saveErr := s.store.SaveGradingResults(ctx, out); saveErr != nil {
				err = fmt.Errorf("%w (save failed state: %v)", err, saveErr)
			}
			return Summary{}, &GradingError{SubmissionID: submissionID, Graded: len(graded), Err: err}
		}
		graded = append(graded, GradedAnswer{AnswerID: item.AnswerID, Result: res})
		total += res.PointsEarned
	}

	out := Outcome{
		SubmissionID: submissionID,
		TotalScore:   round2(total),
		MaxPossible:  batch.MaxPossible,
		GradedAt:     s.now(),
		Answers:      graded,
	}
	if err := s.store.SaveGradingResults(ctx, out); err != nil {
		return Summary{}, fmt.Errorf("save grades: %w", err)
	}
	return Summary{TotalScore: out.TotalScore, MaxPossible: batch.MaxPossible, Results: graded}, nil
}

// New selects the process-wide grader implementation. The choice is fixed at
// startup; "llm" wraps the algorithmic grader as its per-answer fallback.
func New(graderType string, llm LLMConfig) (Grader, error) {
	switch graderType {
	case "", "mock":
		return NewMockGrader(), nil
	case "llm":
		if llm.APIKey == "" {
			return nil, fmt.Errorf("grading: llm grader selected but no API key configured")
		}
		return NewLLMGrader(llm), nil
	default:
		return nil, fmt.Errorf("grading: unknown grader type %q", graderType)
	}
}
