package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")
	tok, err := svc.IssueJWT("student-1", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "student-1" || claims.Role != "student" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewAuthService("secret-a").IssueJWT("u", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewAuthService("secret-b").Parse(tok); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewAuthService("test-secret")
	var gotSub, gotRole string
	h := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	// No token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Valid token.
	tok, _ := svc.IssueJWT("student-9", "student")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSub != "student-9" || gotRole != "student" {
		t.Fatalf("identity not attached: sub=%q role=%q", gotSub, gotRole)
	}
}

func TestRequireRole(t *testing.T) {
	svc := NewAuthService("test-secret")
	h := JWTMiddleware(svc)(RequireRole("teacher")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	tok, _ := svc.IssueJWT("student-1", "student")
	req := httptest.NewRequest("POST", "/exams", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student on teacher route, got %d", rec.Code)
	}

	tok, _ = svc.IssueJWT("teacher-1", "teacher")
	req = httptest.NewRequest("POST", "/exams", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for teacher, got %d", rec.Code)
	}
}
