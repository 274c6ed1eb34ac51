package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/examstack/examstack/internal/assessment"
)

type questionInput struct {
	Text           string  `json:"question_text" validate:"required"`
	Type           string  `json:"question_type" validate:"required,oneof=multiple_choice true_false short_answer essay"`
	ExpectedAnswer string  `json:"expected_answer" validate:"required"`
	Points         float64 `json:"points" validate:"required,gt=0"`
}

type createExamReq struct {
	Title        string          `json:"title" validate:"required"`
	Course       string          `json:"course" validate:"required"`
	DurationMin  int             `json:"duration_minutes" validate:"required,gt=0"`
	Instructions string          `json:"instructions"`
	Questions    []questionInput `json:"questions" validate:"required,min=1,dive"`
}

// POST /exams (teacher only)
func CreateExamHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExamReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		e := assessment.Exam{
			ID:           uuid.NewString(),
			Title:        req.Title,
			Course:       req.Course,
			DurationMin:  req.DurationMin,
			Instructions: req.Instructions,
			CreatedAt:    time.Now(),
		}
		for i, q := range req.Questions {
			e.Questions = append(e.Questions, assessment.Question{
				ID:             uuid.NewString(),
				ExamID:         e.ID,
				Text:           q.Text,
				Type:           q.Type,
				ExpectedAnswer: q.ExpectedAnswer,
				Points:         q.Points,
				Order:          i + 1,
			})
		}
		if err := store.CreateExam(r.Context(), e); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": e.ID})
	}
}

// GET /exams
func ListExamsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		list, err := store.ListExams(r.Context(), limit, offset)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type examDetailResp struct {
	ID           string                      `json:"id"`
	Title        string                      `json:"title"`
	Course       string                      `json:"course"`
	DurationMin  int                         `json:"duration_minutes"`
	Instructions string                      `json:"instructions,omitempty"`
	Questions    []assessment.PublicQuestion `json:"questions"`
}

// GET /exams/{examID}
//
// Serves the student-safe view: expected answers never leave the server.
func GetExamHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := examDetailResp{
			ID:           e.ID,
			Title:        e.Title,
			Course:       e.Course,
			DurationMin:  e.DurationMin,
			Instructions: e.Instructions,
			Questions:    make([]assessment.PublicQuestion, 0, len(e.Questions)),
		}
		for _, q := range e.Questions {
			resp.Questions = append(resp.Questions, q.PublicView())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
