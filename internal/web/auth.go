package web

import (
	"errors"
	"net/http"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/model"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.Sessions.Load(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, http.StatusOK, "login.html", &PageData{Title: "Sign in"})
}

// LoginSubmit handles POST /login. The form carries the ID token returned
// by Google Sign-In.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	_, err := s.Auth.LoginWithGoogle(r.Context(), r.FormValue("id_token"))
	if err != nil {
		msg := "Sign-in failed. Please try again."
		var apiErr *apiclient.Error
		switch {
		case errors.Is(err, model.ErrValidation):
			msg = "Paste the ID token from Google Sign-In."
		case errors.As(err, &apiErr):
			msg = apiErr.Message
		}
		s.Log.Warn("sign-in failed", "error", err)
		s.Templates.Render(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Sign in",
			Error: msg,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.Auth.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
