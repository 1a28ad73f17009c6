package web

import (
	"log/slog"
	"net/http"

	webembed "github.com/erazemk/dormswap/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(s *Server) (http.Handler, error) {
	if s.Templates == nil {
		templates, err := LoadTemplates()
		if err != nil {
			return nil, err
		}
		s.Templates = templates
	}
	if s.Log == nil {
		s.Log = slog.Default()
	}

	mux := http.NewServeMux()
	signedIn := SessionMiddleware(s.Sessions)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", signedIn(http.HandlerFunc(s.HomePage)))

	mux.Handle("GET /items/{id}", signedIn(http.HandlerFunc(s.ItemDetailPage)))
	mux.Handle("GET /items/{id}/edit", signedIn(http.HandlerFunc(s.EditPage)))
	mux.Handle("POST /items/{id}/edit", signedIn(http.HandlerFunc(s.EditSubmit)))
	mux.Handle("POST /items/{id}/delete", signedIn(http.HandlerFunc(s.ItemDeleteSubmit)))

	mux.Handle("GET /post", signedIn(http.HandlerFunc(s.PostPage)))
	mux.Handle("POST /post", signedIn(http.HandlerFunc(s.PostSubmit)))

	mux.Handle("GET /profile", signedIn(http.HandlerFunc(s.ProfilePage)))
	mux.Handle("GET /profile/edit", signedIn(http.HandlerFunc(s.ProfileEditPage)))
	mux.Handle("POST /profile/edit", signedIn(http.HandlerFunc(s.ProfileEditSubmit)))
	mux.Handle("POST /profile/items/{id}/delete", signedIn(http.HandlerFunc(s.ProfileListingDeleteSubmit)))

	return mux, nil
}
