package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
)

// Service signs users in and out.
type Service struct {
	api      *apiclient.Client
	sessions *session.Store
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(api *apiclient.Client, sessions *session.Store, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		log:      logger.With("component", "auth"),
		now:      time.Now,
	}
}

// LoginWithGoogle exchanges a Google ID token for a session and persists it.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (model.User, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return model.User{}, &model.ValidationError{Fields: map[string]string{"idToken": "Google ID token is required"}}
	}

	resp, err := s.api.AuthGoogle(ctx, idToken)
	if err != nil {
		return model.User{}, fmt.Errorf("signing in with google: %w", err)
	}
	if resp.AccessToken == "" {
		return model.User{}, fmt.Errorf("signing in with google: response carried no access token")
	}

	sess := model.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.expiry(resp),
		User:         resp.User.ToUser(),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return model.User{}, err
	}

	s.log.Info("signed in", "user_id", sess.User.ID, "expires_at", sess.ExpiresAt)
	return sess.User, nil
}

// Logout ends the local session. There is no backend call.
func (s *Service) Logout(ctx context.Context) {
	s.sessions.Logout(ctx)
	s.log.Info("signed out")
}

// expiry picks expires_at, then expires_in, then the token's exp claim,
// then DefaultSessionTTL.
func (s *Service) expiry(resp apiclient.AuthResponse) time.Time {
	now := s.now()
	if resp.ExpiresAt != nil && !resp.ExpiresAt.IsZero() {
		return *resp.ExpiresAt
	}
	if resp.ExpiresIn > 0 {
		return now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	exp, err := TokenExpiry(resp.AccessToken)
	if err == nil {
		return exp
	}
	s.log.Debug("access token carries no usable expiry", "error", err)
	return now.Add(DefaultSessionTTL)
}
