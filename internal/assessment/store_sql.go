package assessment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/examstack/examstack/internal/grading"
)

// SQLStore implements Store over database/sql for the sqlite and postgres
// drivers wired in internal/db.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// isUniqueViolation recognizes unique-constraint errors from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

/* ---------------- users ---------------- */

func (s *SQLStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id,username,email,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt.Unix())
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: username %q taken", ErrInvalidInput, u.Username)
	}
	return err
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,username,email,password_hash,role,created_at FROM users WHERE username=$1`, username)
	var u User
	var created int64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		return User{}, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

/* ---------------- exams ---------------- */

func (s *SQLStore) CreateExam(ctx context.Context, e Exam) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exams (id,title,course,duration_min,instructions,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Title, e.Course, e.DurationMin, e.Instructions, e.CreatedAt.Unix()); err != nil {
		return err
	}
	for _, q := range e.Questions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id,exam_id,question_text,question_type,expected_answer,points,ord)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			q.ID, e.ID, q.Text, q.Type, q.ExpectedAnswer, q.Points, q.Order); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate question order %d", ErrInvalidInput, q.Order)
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,course,duration_min,instructions,created_at FROM exams WHERE id=$1`, id)
	var e Exam
	var created int64
	if err := row.Scan(&e.ID, &e.Title, &e.Course, &e.DurationMin, &e.Instructions, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("%w: exam %q", ErrNotFound, id)
		}
		return Exam{}, err
	}
	e.CreatedAt = time.Unix(created, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,exam_id,question_text,question_type,expected_answer,points,ord
		 FROM questions WHERE exam_id=$1 ORDER BY ord`, id)
	if err != nil {
		return Exam{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.Type, &q.ExpectedAnswer, &q.Points, &q.Order); err != nil {
			return Exam{}, err
		}
		e.Questions = append(e.Questions, q)
	}
	return e, rows.Err()
}

func (s *SQLStore) ListExams(ctx context.Context, limit, offset int) ([]ExamSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.title, e.course, e.duration_min, e.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id) AS question_count
		 FROM exams e ORDER BY e.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ExamSummary{}
	for rows.Next() {
		var es ExamSummary
		var created int64
		if err := rows.Scan(&es.ID, &es.Title, &es.Course, &es.DurationMin, &created, &es.QuestionCount); err != nil {
			return nil, err
		}
		es.CreatedAt = time.Unix(created, 0)
		out = append(out, es)
	}
	return out, rows.Err()
}

/* ---------------- submissions ---------------- */

func (s *SQLStore) HasSubmission(ctx context.Context, student StudentID, examID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM submissions WHERE student_id=$1 AND exam_id=$2`, string(student), examID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateSubmission writes the submission and all its answers in one
// transaction: either every row exists afterwards or none do. A unique
// violation on (student_id, exam_id) maps to ErrDuplicateSubmission so a
// pre-check race still surfaces as a conflict, not a 500.
func (s *SQLStore) CreateSubmission(ctx context.Context, sub Submission, answers []Answer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (id,exam_id,student_id,status,total_score,max_score,submitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sub.ID, sub.ExamID, string(sub.StudentID), sub.Status, sub.TotalScore, sub.MaxPossible,
		sub.SubmittedAt.Unix()); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: exam %s", ErrDuplicateSubmission, sub.ExamID)
		}
		return err
	}
	for _, a := range answers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO answers (id,submission_id,question_id,student_answer,feedback)
			 VALUES ($1,$2,$3,$4,'')`,
			a.ID, sub.ID, a.QuestionID, a.StudentAnswer); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate answer for question %s", ErrInvalidInput, a.QuestionID)
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListSubmissions(ctx context.Context, student StudentID) ([]SubmissionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, e.title, e.course, s.status, s.total_score, s.max_score, s.submitted_at, s.graded_at
		 FROM submissions s JOIN exams e ON e.id = s.exam_id
		 WHERE s.student_id=$1 ORDER BY s.submitted_at DESC`, string(student))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SubmissionSummary{}
	for rows.Next() {
		var ss SubmissionSummary
		var submitted int64
		var graded sql.NullInt64
		if err := rows.Scan(&ss.ID, &ss.ExamTitle, &ss.Course, &ss.Status, &ss.TotalScore,
			&ss.MaxPossible, &submitted, &graded); err != nil {
			return nil, err
		}
		ss.SubmittedAt = time.Unix(submitted, 0)
		if graded.Valid {
			t := time.Unix(graded.Int64, 0)
			ss.GradedAt = &t
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (SubmissionDetail, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.exam_id, s.student_id, s.status, s.total_score, s.max_score,
		        s.submitted_at, s.graded_at, e.title, e.course
		 FROM submissions s JOIN exams e ON e.id = s.exam_id WHERE s.id=$1`, id)
	var d SubmissionDetail
	var student string
	var submitted int64
	var graded sql.NullInt64
	if err := row.Scan(&d.ID, &d.ExamID, &student, &d.Status, &d.TotalScore, &d.MaxPossible,
		&submitted, &graded, &d.ExamTitle, &d.Course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SubmissionDetail{}, fmt.Errorf("%w: submission %q", ErrNotFound, id)
		}
		return SubmissionDetail{}, err
	}
	d.StudentID = StudentID(student)
	d.SubmittedAt = time.Unix(submitted, 0)
	if graded.Valid {
		t := time.Unix(graded.Int64, 0)
		d.GradedAt = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, q.question_text, q.question_type, a.student_answer,
		        a.is_correct, a.points_earned, q.points, a.feedback
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.submission_id=$1 ORDER BY q.ord`, id)
	if err != nil {
		return SubmissionDetail{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ad AnswerDetail
		var correct sql.NullBool
		var earned sql.NullFloat64
		if err := rows.Scan(&ad.ID, &ad.QuestionText, &ad.QuestionType, &ad.StudentAnswer,
			&correct, &earned, &ad.PointsPossible, &ad.Feedback); err != nil {
			return SubmissionDetail{}, err
		}
		if correct.Valid {
			ad.IsCorrect = &correct.Bool
		}
		if earned.Valid {
			ad.PointsEarned = &earned.Float64
		}
		d.Answers = append(d.Answers, ad)
	}
	return d, rows.Err()
}

/* ---------------- grading collaborator ---------------- */

// AnswersForGrading fetches the submission's answers joined with their
// questions in one batch; the query count does not depend on answer count.
func (s *SQLStore) AnswersForGrading(ctx context.Context, submissionID string) (grading.Batch, error) {
	var max float64
	err := s.db.QueryRowContext(ctx,
		`SELECT max_score FROM submissions WHERE id=$1`, submissionID).Scan(&max)
	if errors.Is(err, sql.ErrNoRows) {
		return grading.Batch{}, fmt.Errorf("%w: submission %q", ErrNotFound, submissionID)
	}
	if err != nil {
		return grading.Batch{}, err
	}

	batch := grading.Batch{SubmissionID: submissionID, MaxPossible: max}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.student_answer, q.id, q.question_type, q.question_text, q.expected_answer, q.points
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.submission_id=$1 ORDER BY q.ord`, submissionID)
	if err != nil {
		return grading.Batch{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item grading.AnswerItem
		if err := rows.Scan(&item.AnswerID, &item.StudentAnswer, &item.Question.ID,
			&item.Question.Type, &item.Question.Text, &item.Question.ExpectedAnswer,
			&item.Question.Points); err != nil {
			return grading.Batch{}, err
		}
		batch.Items = append(batch.Items, item)
	}
	return batch, rows.Err()
}

// SaveGradingResults persists every answer's graded fields and the
// submission's aggregate and status transition as one transaction.
func (s *SQLStore) SaveGradingResults(ctx context.Context, out grading.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	gradedAt := out.GradedAt.Unix()
	for _, a := range out.Answers {
		if _, err := tx.ExecContext(ctx,
			`UPDATE answers SET is_correct=$1, points_earned=$2, feedback=$3, graded_at=$4 WHERE id=$5`,
			a.IsCorrect, a.PointsEarned, a.Feedback, gradedAt, a.AnswerID); err != nil {
			return err
		}
	}
	status := StatusGraded
	if out.Failed {
		status = StatusFailed
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE submissions SET status=$1, total_score=$2, graded_at=$3 WHERE id=$4`,
		status, out.TotalScore, gradedAt, out.SubmissionID); err != nil {
		return err
	}
	return tx.Commit()
}
