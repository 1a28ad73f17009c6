package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/session"
)

// NewRouter creates the local JSON API router with all endpoints registered.
func NewRouter(sessions *session.Store, cat *catalog.Store, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	sessionHandler := &SessionHandler{Sessions: sessions}
	itemsHandler := &ItemsHandler{Catalog: cat, Log: logger.With("component", "api")}

	signedIn := RequireSession(sessions)

	// Public: session status.
	mux.HandleFunc("GET /api/session", sessionHandler.Get)

	// Items (signed in).
	mux.Handle("GET /api/items", signedIn(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{id}", signedIn(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}/status", signedIn(http.HandlerFunc(itemsHandler.UpdateStatus)))
	mux.Handle("DELETE /api/items/{id}", signedIn(http.HandlerFunc(itemsHandler.Delete)))

	return mux
}
