package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/db"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
)

func newTestService(t *testing.T, h http.HandlerFunc) (*Service, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.New(db.NewTestDB(t), logger, session.WithClock(now))
	svc := NewService(apiclient.New(srv.URL, logger), sessions, logger)
	svc.now = now
	return svc, sessions
}

func TestLoginWithGoogle_ExpiresIn(t *testing.T) {
	svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/google" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"access_token": "opaque", "refresh_token": "r", "expires_in": 3600,
			"user": {"user_id": "u1", "email": "sarah@uni.edu.vn", "full_name": "Sarah"}}`))
	})
	ctx := context.Background()

	u, err := svc.LoginWithGoogle(ctx, "google-id-token")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if u.ID != "u1" || u.Name != "Sarah" {
		t.Errorf("unexpected user %+v", u)
	}

	sess, ok := sessions.Current(ctx)
	if !ok {
		t.Fatal("expected persisted session")
	}
	want := svc.now().Add(time.Hour)
	if !sess.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, sess.ExpiresAt)
	}
}

func TestLoginWithGoogle_ExpiryFallbacks(t *testing.T) {
	exp := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	if got := svc.expiry(apiclient.AuthResponse{AccessToken: token}); !got.Equal(exp) {
		t.Errorf("expected exp claim %v, got %v", exp, got)
	}
	if got := svc.expiry(apiclient.AuthResponse{AccessToken: "opaque"}); !got.Equal(svc.now().Add(DefaultSessionTTL)) {
		t.Errorf("expected default ttl, got %v", got)
	}
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := svc.expiry(apiclient.AuthResponse{AccessToken: token, ExpiresAt: &at, ExpiresIn: 10}); !got.Equal(at) {
		t.Errorf("expected expires_at to win, got %v", got)
	}
}

func TestLoginWithGoogle_BackendError(t *testing.T) {
	svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Invalid Google token"}`))
	})
	ctx := context.Background()

	_, err := svc.LoginWithGoogle(ctx, "bad")
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid Google token" {
		t.Errorf("expected backend message, got %v", err)
	}
	if _, ok := sessions.Load(ctx); ok {
		t.Error("failed login must not create a session")
	}
}

func TestLoginWithGoogle_EmptyToken(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := svc.LoginWithGoogle(context.Background(), "  ")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token": "a", "expires_in": 60, "user": {"user_id": "u1"}}`))
	})
	ctx := context.Background()

	if _, err := svc.LoginWithGoogle(ctx, "tok"); err != nil {
		t.Fatal(err)
	}
	svc.Logout(ctx)

	if _, ok := sessions.Load(ctx); ok {
		t.Error("expected no session after logout")
	}
}
