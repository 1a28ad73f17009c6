package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
)

type webContextKey string

const webUserKey webContextKey = "webuser"

// SessionMiddleware loads the persisted session and adds the user to the
// context. Without a session the request is redirected to /login.
func SessionMiddleware(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := sessions.Load(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), webUserKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetWebUser retrieves the signed-in user from web context.
func GetWebUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(webUserKey).(*model.User)
	return user
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.RequestURI()),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
			)
		})
	}
}
