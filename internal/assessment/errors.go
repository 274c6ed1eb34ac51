package assessment

import "errors"

// Domain error taxonomy. Handlers map these to HTTP status codes; everything
// else is a server-side fault.
var (
	// ErrNotFound covers missing exams and submissions.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSubmission is returned when a student already has a
	// submission for the exam. The (student_id, exam_id) unique index is the
	// race-safe backstop behind the application pre-check.
	ErrDuplicateSubmission = errors.New("exam already submitted")

	// ErrInvalidInput covers payload validation failures: unknown
	// question_id, duplicate answers, empty answer set.
	ErrInvalidInput = errors.New("invalid input")
)
