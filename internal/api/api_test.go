package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/db"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
)

// setupTestServer serves the API router against a fake backend.
func setupTestServer(t *testing.T, backend *http.ServeMux) (*httptest.Server, *session.Store) {
	t.Helper()

	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.New(db.NewTestDB(t), logger)
	client := apiclient.New(upstream.URL, logger, apiclient.WithTokenSource(sessions.Token))

	server := httptest.NewServer(NewRouter(sessions, catalog.New(client, sessions, logger), logger))
	t.Cleanup(server.Close)

	return server, sessions
}

func signIn(t *testing.T, sessions *session.Store) {
	t.Helper()
	err := sessions.Save(context.Background(), model.Session{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        model.User{ID: "u1", Name: "Sarah"},
	})
	if err != nil {
		t.Fatalf("saving session: %v", err)
	}
}

func jsonRequest(method, url string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestSessionEndpoint(t *testing.T) {
	server, sessions := setupTestServer(t, http.NewServeMux())

	resp, err := http.Get(server.URL + "/api/session")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var got sessionResponse
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got.SignedIn {
		t.Error("expected signed_in=false before login")
	}

	signIn(t, sessions)

	resp, err = http.Get(server.URL + "/api/session")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	got = sessionResponse{}
	json.NewDecoder(resp.Body).Decode(&got)
	if !got.SignedIn || got.User == nil || got.User.ID != "u1" {
		t.Errorf("unexpected session response: %+v", got)
	}
}

func TestItemsRequireSession(t *testing.T) {
	server, _ := setupTestServer(t, http.NewServeMux())

	resp, err := http.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("listing_type") != "rent" {
			t.Errorf("expected listing_type=rent, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"id": "1", "seller_id": "u1", "title": "Coffee Maker", "price": 625000, "listing_type": "rent", "status": "available"},
			{"id": "2", "seller_id": "u2", "title": "Tent", "price": 90000, "listing_type": "rent", "status": "rented"}
		]`))
	})
	backend.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "1", "seller_id": "u1", "title": "Coffee Maker", "price": 625000, "listing_type": "rent", "status": "available"}`))
	})
	backend.HandleFunc("PUT /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "updated"}`))
	})
	server, sessions := setupTestServer(t, backend)
	signIn(t, sessions)

	// List.
	resp, err := http.Get(server.URL + "/api/items?listing_type=rent")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("expected only the available item, got %+v", items)
	}

	// Mark as rented.
	req, _ := jsonRequest(http.MethodPut, server.URL+"/api/items/1/status", map[string]string{"status": "rented"})
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var updated model.Item
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if updated.Status != model.ItemStatusRented {
		t.Errorf("expected rented, got %q", updated.Status)
	}

	// Invalid status.
	req, _ = jsonRequest(http.MethodPut, server.URL+"/api/items/1/status", map[string]string{"status": "gone"})
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteBackendError(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("DELETE /profile/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "not your listing"}`))
	})
	server, sessions := setupTestServer(t, backend)
	signIn(t, sessions)

	req, _ := jsonRequest(http.MethodDelete, server.URL+"/api/items/9", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "not your listing" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestItemNotFound(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server, sessions := setupTestServer(t, backend)
	signIn(t, sessions)

	resp, err := http.Get(server.URL + "/api/items/404")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
