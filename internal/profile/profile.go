// Package profile holds the state of the profile screen: the signed-in
// user's details and their own listings.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/validate"
)

// UntitledListing replaces a missing listing title.
const UntitledListing = "Untitled"

// Sessions reads and reconciles the signed-in user.
type Sessions interface {
	Load(ctx context.Context) (model.User, bool)
	Update(ctx context.Context, patch model.UserPatch) (model.User, error)
}

// Store is the profile state. It is safe for concurrent use.
type Store struct {
	api      *apiclient.Client
	sessions Sessions
	cache    catalog.DetailCache
	log      *slog.Logger

	mu              sync.Mutex
	user            model.User
	listings        []model.Item
	profileLoading  bool
	listingsLoading bool
	profileErr      error
	listingsErr     error
	closed          bool
}

// Option configures a Store.
type Option func(*Store)

// WithCache drops deleted listings from the listing detail cache.
func WithCache(c catalog.DetailCache) Option {
	return func(s *Store) { s.cache = c }
}

// New creates a Store seeded with the signed-in user, if any.
func New(ctx context.Context, api *apiclient.Client, sessions Sessions, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		api:      api,
		sessions: sessions,
		log:      logger.With("component", "profile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if u, ok := sessions.Load(ctx); ok {
		s.user = u
	}
	return s
}

// User returns the local copy of the user.
func (s *Store) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Listings returns a copy of the user's listings.
func (s *Store) Listings() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item(nil), s.listings...)
}

// Partition splits the current listings into active and pending/other.
// It is computed from the list on every call.
func (s *Store) Partition() (active, other []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Partition(s.listings)
}

// Partition splits items into available ones and everything else.
func Partition(items []model.Item) (active, other []model.Item) {
	for _, it := range items {
		if it.Status == model.ItemStatusAvailable {
			active = append(active, it)
		} else {
			other = append(other, it)
		}
	}
	return active, other
}

// Loading reports whether the profile or the listings are being fetched.
func (s *Store) Loading() (profile, listings bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileLoading, s.listingsLoading
}

// Errs returns the last profile and listings errors.
func (s *Store) Errs() (profile, listings error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileErr, s.listingsErr
}

// Close stops the store from applying results of calls still in flight.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Load fetches the profile and the listings concurrently. Each half
// records its own error; the first one is returned.
func (s *Store) Load(ctx context.Context, userID string) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.LoadProfile(ctx, userID)
		return err
	})
	g.Go(func() error {
		_, err := s.LoadListings(ctx, userID)
		return err
	})
	return g.Wait()
}

// LoadProfile fetches the profile and merges it into the local copy
// without regressing known fields to empty.
func (s *Store) LoadProfile(ctx context.Context, userID string) (model.User, error) {
	s.update(func() {
		s.profileLoading = true
		s.profileErr = nil
	})

	rec, err := s.api.GetProfile(ctx, userID)
	if err != nil {
		err = fmt.Errorf("loading profile: %w", err)
		s.update(func() {
			s.profileLoading = false
			s.profileErr = err
		})
		return model.User{}, err
	}

	var merged model.User
	s.mu.Lock()
	merged = rec.MergeInto(s.user)
	if merged.ID == "" {
		merged.ID = userID
	}
	if !s.closed {
		s.user = merged
		s.profileLoading = false
	}
	s.mu.Unlock()
	return merged, nil
}

// LoadListings fetches the user's own listings.
func (s *Store) LoadListings(ctx context.Context, userID string) ([]model.Item, error) {
	s.update(func() {
		s.listingsLoading = true
		s.listingsErr = nil
	})

	recs, err := s.api.ListUserItems(ctx, userID)
	if err != nil {
		err = fmt.Errorf("loading listings: %w", err)
		s.update(func() {
			s.listingsLoading = false
			s.listingsErr = err
		})
		return nil, err
	}

	items := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, normalize(catalog.FromRecord(rec, s.log)))
	}

	s.update(func() {
		s.listings = items
		s.listingsLoading = false
	})
	return append([]model.Item(nil), items...), nil
}

// normalize fills the fields the listings endpoint may leave out.
func normalize(it model.Item) model.Item {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if strings.TrimSpace(it.Title) == "" {
		it.Title = UntitledListing
	}
	if it.Status == "" {
		it.Status = model.ItemStatusAvailable
	}
	return it
}

// GetListing fetches one of the user's listings. Failures are logged and
// reported as absent.
func (s *Store) GetListing(ctx context.Context, userID, itemID string) (model.Item, bool) {
	rec, err := s.api.GetUserItem(ctx, userID, itemID)
	if err != nil {
		s.log.Warn("fetching listing", "user_id", userID, "item_id", itemID, "error", err)
		return model.Item{}, false
	}
	item := catalog.FromRecord(rec, s.log)
	if item.ID == "" {
		item.ID = itemID
	}
	return normalize(item), true
}

// DeleteListing deletes a listing on the backend, then drops it locally.
// On failure the local list is untouched.
func (s *Store) DeleteListing(ctx context.Context, userID, itemID string) error {
	if err := s.api.DeleteUserItem(ctx, userID, itemID); err != nil {
		s.log.Warn("deleting listing", "user_id", userID, "item_id", itemID, "error", err)
		return fmt.Errorf("deleting listing: %w", err)
	}

	s.update(func() {
		kept := make([]model.Item, 0, len(s.listings))
		for _, it := range s.listings {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		s.listings = kept
	})
	if s.cache != nil {
		s.cache.InvalidateItem(ctx, itemID)
	}
	s.log.Info("listing deleted", "user_id", userID, "item_id", itemID)
	return nil
}

// UpdateProfile validates the edit form, saves it on the backend, merges
// the result into the local copy and reconciles the session.
func (s *Store) UpdateProfile(ctx context.Context, in validate.ProfileInput) (model.User, error) {
	if err := validate.ProfileForm(in).Err(); err != nil {
		return model.User{}, err
	}

	current := s.User()
	if current.ID == "" {
		u, ok := s.sessions.Load(ctx)
		if !ok {
			return model.User{}, model.ErrNoSession
		}
		current = u
	}

	name := strings.TrimSpace(in.Name)
	building := strings.TrimSpace(in.DormBuilding)
	room := strings.TrimSpace(in.RoomNumber)
	phone := strings.Join(strings.Fields(in.Phone), "")

	rec, err := s.api.UpdateProfile(ctx, apiclient.UpdateProfilePayload{
		UserID:       current.ID,
		FullName:     name,
		DormBuilding: building,
		DormRoom:     room,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("updating profile: %w", err)
	}

	patch := model.UserPatch{
		Name:         &name,
		DormBuilding: &building,
		DormRoom:     &room,
		Phone:        &phone,
	}
	updated := rec.MergeInto(patch.Apply(current))

	s.update(func() { s.user = updated })

	reconciled := model.UserPatch{
		Name:            &updated.Name,
		DormBuilding:    &updated.DormBuilding,
		DormRoom:        &updated.DormRoom,
		Phone:           &updated.Phone,
		IsAdmin:         &updated.IsAdmin,
		VerifiedStudent: &updated.VerifiedStudent,
	}
	if _, err := s.sessions.Update(ctx, reconciled); err != nil {
		s.log.Warn("reconciling session after profile update", "error", err)
	}

	s.log.Info("profile updated", "user_id", updated.ID)
	return updated, nil
}

// update runs fn under the lock unless the store is closed.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn()
}
