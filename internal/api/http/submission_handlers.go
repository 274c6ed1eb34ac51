package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examstack/examstack/internal/assessment"
	"github.com/examstack/examstack/internal/auth"
)

type submitReq struct {
	ExamID  string                   `json:"exam_id" validate:"required"`
	Answers []assessment.AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// POST /submissions
//
// The student identity comes from the JWT subject only. There is no user id
// field in the payload schema, so nothing a client sends can shadow it.
func CreateSubmissionHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		student := assessment.StudentID(auth.SubjectFromContext(r.Context()))
		res, err := svc.Submit(r.Context(), student, req.ExamID, req.Answers)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// GET /submissions
func ListSubmissionsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student := assessment.StudentID(auth.SubjectFromContext(r.Context()))
		list, err := svc.ListSubmissions(r.Context(), student)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		student := assessment.StudentID(auth.SubjectFromContext(r.Context()))
		d, err := svc.GetSubmission(r.Context(), student, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
