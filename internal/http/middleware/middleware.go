// Package middleware holds the HTTP wrappers shared by all routes:
// request logging and the session check that turns a bearer token into a
// types.Caller on the request context.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/auth"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

type callerKey struct{}

// TokenParser is the part of auth.Tokens the middleware needs.
type TokenParser interface {
	Parse(token string) (types.Caller, error)
}

// WithCaller returns a copy of ctx carrying the caller.
func WithCaller(ctx context.Context, c types.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored by Authenticate.
func CallerFrom(ctx context.Context) (types.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(types.Caller)
	return c, ok
}

// Authenticate rejects requests without a valid bearer token and, when
// roles are given, callers whose role is not among them.
func Authenticate(tokens TokenParser, roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("authentication required")))
				return
			}

			caller, err := tokens.Parse(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token expired"
				}
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New(msg)))
				return
			}

			if len(roles) > 0 && !hasRole(caller.Role, roles) {
				response.Error(w, types.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func hasRole(role types.Role, allowed []types.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger logs one line per request with its status and duration.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
