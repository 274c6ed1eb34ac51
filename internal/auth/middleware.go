package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	ctxKeySub  ctxKey = "sub"
	ctxKeyRole ctxKey = "role"
)

func WithIdentity(ctx context.Context, sub, role string) context.Context {
	ctx = context.WithValue(ctx, ctxKeySub, sub)
	return context.WithValue(ctx, ctxKeyRole, role)
}

// SubjectFromContext returns the authenticated caller's opaque identity. It
// is the only source of student identity in the submission pipeline.
func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySub).(string); ok {
		return s
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRole).(string); ok {
		return s
	}
	return ""
}

// JWTMiddleware validates the bearer token and attaches the caller's
// subject and role to the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || claims == nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Sub, claims.Role)))
		})
	}
}

// RequireRole guards a route for one role, e.g. exam authoring for teachers.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
