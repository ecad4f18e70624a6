package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mvartia/marquee/internal/auth"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type callerKey struct{}
type sessionKey struct{}

// CallerResolver resolves a caller and their editing session from a
// bearer token.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (auth.Caller, auth.Session, error)
}

// CallerFromContext returns the authenticated caller from context, if present.
func CallerFromContext(ctx context.Context) (auth.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(auth.Caller)
	return caller, ok
}

// SessionFromContext returns the editing session from context, if present.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(auth.Session)
	return sess, ok
}

// AuthMiddleware enforces bearer token authentication and threads the
// resolved caller and session through the request context.
func AuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			caller, sess, err := resolver.ResolveCaller(r.Context(), token)
			if err != nil || caller.Name == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			ctx = context.WithValue(ctx, sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
