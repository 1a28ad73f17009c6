package api

import (
	"net/http"
	"time"

	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
)

// SessionHandler reports the local session.
type SessionHandler struct {
	Sessions *session.Store
}

type sessionResponse struct {
	SignedIn  bool        `json:"signed_in"`
	User      *model.User `json:"user,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// Get handles GET /api/session. The access token is never returned.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Current(r.Context())
	if !ok {
		jsonResponse(w, http.StatusOK, sessionResponse{})
		return
	}
	jsonResponse(w, http.StatusOK, sessionResponse{
		SignedIn:  true,
		User:      &sess.User,
		ExpiresAt: &sess.ExpiresAt,
	})
}
