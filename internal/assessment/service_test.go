package assessment_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite" // driver for "sqlite"

	"github.com/examstack/examstack/internal/assessment"
	"github.com/examstack/examstack/internal/db"
	"github.com/examstack/examstack/internal/grading"
)

var dbSeq int

func newTestStore(t *testing.T) (*assessment.SQLStore, *sql.DB) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:assessment_test_%d?mode=memory&cache=shared", dbSeq)
	dbh, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	if err := db.EnsureSchema(context.Background(), dbh, db.DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return assessment.NewSQLStore(dbh, "sqlite"), dbh
}

func newPipeline(t *testing.T) (*assessment.Service, *assessment.SQLStore, *sql.DB) {
	t.Helper()
	store, dbh := newTestStore(t)
	gradingSvc := grading.NewService(store, grading.NewMockGrader(), nil)
	return assessment.NewService(store, gradingSvc, nil), store, dbh
}

func seedExam(t *testing.T, store *assessment.SQLStore, questions ...assessment.Question) assessment.Exam {
	t.Helper()
	e := assessment.Exam{
		ID:          "exam-bio",
		Title:       "Cell Biology Midterm",
		Course:      "BIO101",
		DurationMin: 60,
		CreatedAt:   time.Now(),
		Questions:   questions,
	}
	for i := range e.Questions {
		e.Questions[i].ExamID = e.ID
		e.Questions[i].Order = i + 1
	}
	if err := store.CreateExam(context.Background(), e); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return e
}

func shortAnswerQ(id, expected string, points float64) assessment.Question {
	return assessment.Question{
		ID:             id,
		Text:           "What organelle is the powerhouse of the cell?",
		Type:           grading.TypeShortAnswer,
		ExpectedAnswer: expected,
		Points:         points,
	}
}

func countRows(t *testing.T, dbh *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSubmit_FullCreditCaseInsensitive(t *testing.T) {
	svc, store, _ := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))

	res, err := svc.Submit(context.Background(), "student-1", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "mitochondria"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != assessment.StatusGraded {
		t.Fatalf("expected graded status, got %q", res.Status)
	}

	d, err := svc.GetSubmission(context.Background(), "student-1", res.SubmissionID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if d.TotalScore != 10 || d.MaxPossible != 10 {
		t.Fatalf("expected 10/10, got %v/%v", d.TotalScore, d.MaxPossible)
	}
	if len(d.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(d.Answers))
	}
	a := d.Answers[0]
	if a.IsCorrect == nil || !*a.IsCorrect {
		t.Fatalf("expected correct answer, got %+v", a)
	}
	if a.PointsEarned == nil || *a.PointsEarned != 10 {
		t.Fatalf("expected 10 points earned, got %+v", a.PointsEarned)
	}
	if d.GradedAt == nil {
		t.Fatalf("expected graded_at to be set")
	}
}

func TestSubmit_WrongAnswerScoresZero(t *testing.T) {
	svc, store, _ := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))

	res, err := svc.Submit(context.Background(), "student-1", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "Nucleus"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != assessment.StatusGraded {
		t.Fatalf("expected graded status, got %q", res.Status)
	}
	d, err := svc.GetSubmission(context.Background(), "student-1", res.SubmissionID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if d.TotalScore != 0 {
		t.Fatalf("expected 0 score, got %v", d.TotalScore)
	}
	if a := d.Answers[0]; a.IsCorrect == nil || *a.IsCorrect {
		t.Fatalf("expected incorrect answer, got %+v", a)
	}
}

func TestSubmit_MixedQuestionTypes(t *testing.T) {
	svc, store, _ := newPipeline(t)
	seedExam(t, store,
		assessment.Question{ID: "q1", Text: "2+2=4?", Type: grading.TypeTrueFalse, ExpectedAnswer: "true", Points: 2},
		assessment.Question{ID: "q2", Text: "Pick B", Type: grading.TypeMultipleChoice, ExpectedAnswer: "B", Points: 3},
		shortAnswerQ("q3", "Mitochondria", 10),
	)

	res, err := svc.Submit(context.Background(), "student-1", "exam-bio", []assessment.AnswerInput{
		{QuestionID: "q1", StudentAnswer: "TRUE"},
		{QuestionID: "q2", StudentAnswer: "C"},
		{QuestionID: "q3", StudentAnswer: "mitochondria"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	d, err := svc.GetSubmission(context.Background(), "student-1", res.SubmissionID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if d.TotalScore != 12 || d.MaxPossible != 15 {
		t.Fatalf("expected 12/15, got %v/%v", d.TotalScore, d.MaxPossible)
	}
}

func TestSubmit_ExamNotFound(t *testing.T) {
	svc, _, dbh := newPipeline(t)
	_, err := svc.Submit(context.Background(), "student-1", "no-such-exam",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "x"}})
	if !errors.Is(err, assessment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := countRows(t, dbh, "submissions"); n != 0 {
		t.Fatalf("expected no submissions, got %d", n)
	}
}

func TestSubmit_DuplicateSubmission(t *testing.T) {
	svc, store, dbh := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))
	answers := []assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "mitochondria"}}

	if _, err := svc.Submit(context.Background(), "student-1", "exam-bio", answers); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), "student-1", "exam-bio", answers)
	if !errors.Is(err, assessment.ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
	if n := countRows(t, dbh, "submissions"); n != 1 {
		t.Fatalf("expected exactly one submission, got %d", n)
	}

	// A different student can still submit.
	if _, err := svc.Submit(context.Background(), "student-2", "exam-bio", answers); err != nil {
		t.Fatalf("second student submit: %v", err)
	}
}

func TestSubmit_UnknownQuestionRejectedBeforeWrite(t *testing.T) {
	svc, store, dbh := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))

	_, err := svc.Submit(context.Background(), "student-1", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q-other", StudentAnswer: "x"}})
	if !errors.Is(err, assessment.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if n := countRows(t, dbh, "submissions"); n != 0 {
		t.Fatalf("expected no submissions, got %d", n)
	}
	if n := countRows(t, dbh, "answers"); n != 0 {
		t.Fatalf("expected no answers, got %d", n)
	}
}

func TestSubmit_DuplicateQuestionInPayload(t *testing.T) {
	svc, store, dbh := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))

	_, err := svc.Submit(context.Background(), "student-1", "exam-bio", []assessment.AnswerInput{
		{QuestionID: "q1", StudentAnswer: "a"},
		{QuestionID: "q1", StudentAnswer: "b"},
	})
	if !errors.Is(err, assessment.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if n := countRows(t, dbh, "submissions"); n != 0 {
		t.Fatalf("expected no submissions, got %d", n)
	}
}

func TestSubmit_EmptyAnswers(t *testing.T) {
	svc, store, _ := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))
	_, err := svc.Submit(context.Background(), "student-1", "exam-bio", nil)
	if !errors.Is(err, assessment.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// A grader error after commit must leave the submission in a terminal
// failed state, not roll it back and not leave it silently pending.
func TestSubmit_GradingFailureYieldsFailedStatus(t *testing.T) {
	svc, store, _ := newPipeline(t)
	// Question type the grader has no scorer for; handler-level validation
	// normally prevents this, so it simulates a misconfigured exam.
	seedExam(t, store, assessment.Question{
		ID: "q1", Text: "Match the columns", Type: "matching", ExpectedAnswer: "-", Points: 5,
	})

	res, err := svc.Submit(context.Background(), "student-1", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "x"}})
	if err != nil {
		t.Fatalf("submit should not error on grading failure: %v", err)
	}
	if res.Status != assessment.StatusFailed {
		t.Fatalf("expected failed status, got %q", res.Status)
	}

	d, err := svc.GetSubmission(context.Background(), "student-1", res.SubmissionID)
	if err != nil {
		t.Fatalf("submission must still exist: %v", err)
	}
	if d.Status != assessment.StatusFailed {
		t.Fatalf("expected persisted failed status, got %q", d.Status)
	}
}

func TestGetSubmission_OwnerOnly(t *testing.T) {
	svc, store, _ := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))
	res, err := svc.Submit(context.Background(), "student-1", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "mitochondria"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.GetSubmission(context.Background(), "student-2", res.SubmissionID); !errors.Is(err, assessment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestListSubmissions_NewestFirstOwnOnly(t *testing.T) {
	svc, store, _ := newPipeline(t)
	seedExam(t, store, shortAnswerQ("q1", "Mitochondria", 10))

	e2 := assessment.Exam{ID: "exam-2", Title: "Followup Quiz", Course: "BIO101", DurationMin: 30,
		CreatedAt: time.Now(),
		Questions: []assessment.Question{{ID: "q2-1", ExamID: "exam-2", Text: "t", Type: grading.TypeShortAnswer,
			ExpectedAnswer: "Ribosome", Points: 5, Order: 1}}}
	if err := store.CreateExam(context.Background(), e2); err != nil {
		t.Fatalf("seed exam 2: %v", err)
	}

	if _, err := svc.Submit(context.Background(), "student-1", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "mitochondria"}}); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if _, err := svc.Submit(context.Background(), "student-2", "exam-bio",
		[]assessment.AnswerInput{{QuestionID: "q1", StudentAnswer: "mitochondria"}}); err != nil {
		t.Fatalf("submit other student: %v", err)
	}
	if _, err := svc.Submit(context.Background(), "student-1", "exam-2",
		[]assessment.AnswerInput{{QuestionID: "q2-1", StudentAnswer: "ribosome"}}); err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	list, err := svc.ListSubmissions(context.Background(), "student-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 own submissions, got %d", len(list))
	}
	for _, s := range list {
		if s.Status != assessment.StatusGraded {
			t.Fatalf("expected graded submissions, got %q", s.Status)
		}
	}
}
