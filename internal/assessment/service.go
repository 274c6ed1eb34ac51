package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/examstack/examstack/internal/grading"
)

// GradingRunner is the grading-service collaborator. It is an interface so
// the pipeline can be driven by a synchronous call today or an async worker
// later without changing this package.
type GradingRunner interface {
	GradeSubmission(ctx context.Context, submissionID string) (grading.Summary, error)
}

// AnswerInput is one answer in a submission payload.
type AnswerInput struct {
	QuestionID    string `json:"question_id" validate:"required"`
	StudentAnswer string `json:"student_answer" validate:"required"`
}

// SubmitResult is what the caller gets back from a submission.
type SubmitResult struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// Service is the submission pipeline: validate, persist atomically, grade.
type Service struct {
	store   Store
	grading GradingRunner
	now     func() time.Time
}

func NewService(store Store, grading GradingRunner, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, grading: grading, now: now}
}

// Submit validates the payload, creates the submission and its answers as
// one atomic unit, then grades synchronously. The student identity comes
// exclusively from the authenticated caller; nothing in the payload can
// substitute for it.
//
// Validation fails fast before any write. After the creation transaction
// commits, a grading failure no longer rolls the submission back: the caller
// sees a terminal "failed" status instead.
func (s *Service) Submit(ctx context.Context, student StudentID, examID string, answers []AnswerInput) (SubmitResult, error) {
	if student == "" {
		return SubmitResult{}, fmt.Errorf("%w: missing student identity", ErrInvalidInput)
	}
	if len(answers) == 0 {
		return SubmitResult{}, fmt.Errorf("%w: no answers provided", ErrInvalidInput)
	}

	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return SubmitResult{}, err
	}

	exists, err := s.store.HasSubmission(ctx, student, examID)
	if err != nil {
		return SubmitResult{}, err
	}
	if exists {
		return SubmitResult{}, fmt.Errorf("%w: exam %s", ErrDuplicateSubmission, examID)
	}

	questions := make(map[string]Question, len(exam.Questions))
	maxScore := 0.0
	for _, q := range exam.Questions {
		questions[q.ID] = q
		maxScore += q.Points
	}
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if _, ok := questions[a.QuestionID]; !ok {
			return SubmitResult{}, fmt.Errorf("%w: question %s does not belong to exam %s",
				ErrInvalidInput, a.QuestionID, examID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return SubmitResult{}, fmt.Errorf("%w: duplicate answer for question %s",
				ErrInvalidInput, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}

	sub := Submission{
		ID:          uuid.NewString(),
		ExamID:      examID,
		StudentID:   student,
		Status:      StatusPending,
		MaxPossible: maxScore,
		SubmittedAt: s.now(),
	}
	rows := make([]Answer, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, Answer{
			ID:            uuid.NewString(),
			SubmissionID:  sub.ID,
			QuestionID:    a.QuestionID,
			StudentAnswer: a.StudentAnswer,
		})
	}
	if err := s.store.CreateSubmission(ctx, sub, rows); err != nil {
		return SubmitResult{}, err
	}

	if _, err := s.grading.GradeSubmission(ctx, sub.ID); err != nil {
		var gerr *grading.GradingError
		if errors.As(err, &gerr) {
			log.Printf("submission %s: grading failed after %d answers: %v", sub.ID, gerr.Graded, gerr.Err)
			return SubmitResult{
				SubmissionID: sub.ID,
				Status:       StatusFailed,
				Message:      "Submission received but grading did not complete",
			}, nil
		}
		return SubmitResult{}, err
	}

	return SubmitResult{
		SubmissionID: sub.ID,
		Status:       StatusGraded,
		Message:      "Submission received and graded successfully",
	}, nil
}

// GetSubmission returns the graded detail view, restricted to its owner.
func (s *Service) GetSubmission(ctx context.Context, student StudentID, id string) (SubmissionDetail, error) {
	d, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return SubmissionDetail{}, err
	}
	if d.StudentID != student {
		// Hide other students' submissions entirely.
		return SubmissionDetail{}, fmt.Errorf("%w: submission %q", ErrNotFound, id)
	}
	return d, nil
}

// ListSubmissions returns the caller's own submissions, newest first.
func (s *Service) ListSubmissions(ctx context.Context, student StudentID) ([]SubmissionSummary, error) {
	return s.store.ListSubmissions(ctx, student)
}
