package api

import (
	"context"
	"net/http"

	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
)

type contextKey string

const userKey contextKey = "user"

// RequireSession rejects requests with 401 unless a session is stored, and
// adds the signed-in user to the context.
func RequireSession(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := sessions.Load(r.Context())
			if !ok {
				jsonError(w, http.StatusUnauthorized, "not signed in")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the signed-in user from the context.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}
