package assessment

import "time"

// StudentID is the authenticated caller's identity. It is a distinct type on
// purpose: it can only enter the pipeline from the auth layer, never from a
// request body field.
type StudentID string

// Roles for local accounts.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Submission lifecycle.
const (
	StatusPending = "pending"
	StatusGraded  = "graded"
	StatusFailed  = "failed"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Exam struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Course       string     `json:"course"`
	DurationMin  int        `json:"duration_minutes"`
	Instructions string     `json:"instructions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Questions    []Question `json:"questions,omitempty"`
}

// Question belongs to exactly one exam. ExpectedAnswer is never serialized
// to students; the API layer uses PublicView for that.
type Question struct {
	ID             string  `json:"id"`
	ExamID         string  `json:"exam_id"`
	Text           string  `json:"question_text"`
	Type           string  `json:"question_type"`
	ExpectedAnswer string  `json:"expected_answer,omitempty"`
	Points         float64 `json:"points"`
	Order          int     `json:"order"`
}

// PublicQuestion is the student-safe projection of a question.
type PublicQuestion struct {
	ID     string  `json:"id"`
	Text   string  `json:"question_text"`
	Type   string  `json:"question_type"`
	Points float64 `json:"points"`
	Order  int     `json:"order"`
}

func (q Question) PublicView() PublicQuestion {
	return PublicQuestion{ID: q.ID, Text: q.Text, Type: q.Type, Points: q.Points, Order: q.Order}
}

// Submission is one student's one attempt at one exam. At most one exists
// per (student, exam); the database enforces it.
type Submission struct {
	ID          string     `json:"id"`
	ExamID      string     `json:"exam_id"`
	StudentID   StudentID  `json:"-"`
	Status      string     `json:"status"`
	TotalScore  float64    `json:"score"`
	MaxPossible float64    `json:"max_possible_score"`
	SubmittedAt time.Time  `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

// Answer is one question response within a submission. Grading fields stay
// nil until the grading service fills them, exactly once.
type Answer struct {
	ID            string     `json:"id"`
	SubmissionID  string     `json:"submission_id"`
	QuestionID    string     `json:"question_id"`
	StudentAnswer string     `json:"student_answer"`
	IsCorrect     *bool      `json:"is_correct"`
	PointsEarned  *float64   `json:"points_earned"`
	Feedback      string     `json:"feedback,omitempty"`
	GradedAt      *time.Time `json:"-"`
}

// ExamSummary backs the exam browse listing.
type ExamSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Course        string    `json:"course"`
	DurationMin   int       `json:"duration_minutes"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmissionSummary backs the "my submissions" listing.
type SubmissionSummary struct {
	ID          string     `json:"id"`
	ExamTitle   string     `json:"exam_title"`
	Course      string     `json:"course"`
	Status      string     `json:"status"`
	TotalScore  float64    `json:"score"`
	MaxPossible float64    `json:"max_possible_score"`
	SubmittedAt time.Time  `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

// AnswerDetail joins an answer with its question context for result review.
type AnswerDetail struct {
	ID             string   `json:"id"`
	QuestionText   string   `json:"question_text"`
	QuestionType   string   `json:"question_type"`
	StudentAnswer  string   `json:"student_answer"`
	IsCorrect      *bool    `json:"is_correct"`
	PointsEarned   *float64 `json:"points_earned"`
	PointsPossible float64  `json:"points_possible"`
	Feedback       string   `json:"feedback,omitempty"`
}

// SubmissionDetail is the full graded-result view of one submission.
type SubmissionDetail struct {
	Submission
	ExamTitle string         `json:"exam_title"`
	Course    string         `json:"course"`
	Answers   []AnswerDetail `json:"answers"`
}
