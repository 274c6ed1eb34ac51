package assessment

import (
	"context"

	"github.com/examstack/examstack/internal/grading"
)

// Store is the persistence surface of the assessment core. The embedded
// grading.SubmissionStore serves the grading service's batch fetch/persist
// contract.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByUsername(ctx context.Context, username string) (User, error)

	CreateExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, limit, offset int) ([]ExamSummary, error)

	HasSubmission(ctx context.Context, student StudentID, examID string) (bool, error)
	CreateSubmission(ctx context.Context, sub Submission, answers []Answer) error
	ListSubmissions(ctx context.Context, student StudentID) ([]SubmissionSummary, error)
	GetSubmission(ctx context.Context, id string) (SubmissionDetail, error)

	grading.SubmissionStore
}
