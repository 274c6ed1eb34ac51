package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/examstack/examstack/internal/api/http"
	"github.com/examstack/examstack/internal/assessment"
	"github.com/examstack/examstack/internal/auth"
	"github.com/examstack/examstack/internal/config"
	"github.com/examstack/examstack/internal/db"
	"github.com/examstack/examstack/internal/grading"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := assessment.NewSQLStore(dbh, cfg.DBDriver)

	// --- Grader (selected once, process-wide) ---
	grader, err := grading.New(cfg.GraderType, grading.LLMConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("grader setup failed: %v", err)
	}
	gradingSvc := grading.NewService(store, grader, nil)
	submissions := assessment.NewService(store, gradingSvc, nil)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", api.RegisterHandler(store, authSvc))
	r.Post("/auth/login", api.LoginHandler(store, authSvc))

	// Protected API (JWT → identity in context)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(auth.RequireRole(assessment.RoleTeacher)).
			Post("/exams", api.CreateExamHandler(store))
		pr.Get("/exams", api.ListExamsHandler(store))
		pr.Get("/exams/{examID}", api.GetExamHandler(store))

		pr.Post("/submissions", api.CreateSubmissionHandler(submissions))
		pr.Get("/submissions", api.ListSubmissionsHandler(submissions))
		pr.Get("/submissions/{submissionID}", api.GetSubmissionHandler(submissions))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, grader=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.GraderType)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
