package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string

	// Grader selection is process-wide startup configuration; it never
	// changes mid-request.
	GraderType string // mock|llm

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	CORSOrigins []string
}

// FromEnv loads .env if present, then reads configuration from the
// environment with sensible development defaults.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}
	return Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		DBDriver:    envOr("DB_DRIVER", "sqlite"),
		DBDSN:       envOr("DB_DSN", ""),
		AuthSecret:  envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		GraderType:  envOr("GRADER_TYPE", "mock"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMBaseURL:  envOr("LLM_BASE_URL", "https://generativelanguage.googleapis.com"),
		LLMModel:    envOr("LLM_MODEL", "gemini-pro"),
		LLMTimeout:  envDuration("LLM_TIMEOUT", 15*time.Second),
		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("bad duration in %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
