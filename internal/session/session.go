// Package session persists the signed-in user's session in local storage
// and tells interested parties when it changes.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/store"
)

// StorageKey is the fixed storage key of the persisted session.
const StorageKey = "dormswap_auth"

// EventKind tells observers what happened to the session.
type EventKind int

const (
	// EventLogin fires after Save.
	EventLogin EventKind = iota + 1
	// EventUpdate fires after Update.
	EventUpdate
	// EventLogout fires after Logout.
	EventLogout
	// EventExternal fires when another process changed the stored session.
	EventExternal
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventUpdate:
		return "update"
	case EventLogout:
		return "logout"
	case EventExternal:
		return "external"
	}
	return "unknown"
}

// Event is delivered to subscribers. User is nil when no one is signed in.
type Event struct {
	Kind EventKind
	User *model.User
}

// Store reads and writes the session record.
type Store struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int
	seen    int64 // last storage version written or observed by this store
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store on db.
func New(db *sql.DB, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		db:   db,
		log:  logger.With("component", "session"),
		now:  time.Now,
		subs: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the persisted session if it has not expired. Unreadable
// or expired records are purged and reported as absent.
func (s *Store) Current(ctx context.Context) (model.Session, bool) {
	rec, err := store.GetRecord(ctx, s.db, StorageKey)
	if err != nil {
		s.log.Error("reading session", "error", err)
		s.purge(ctx)
		return model.Session{}, false
	}
	if rec == nil {
		return model.Session{}, false
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(rec.Value), &sess); err != nil {
		s.log.Warn("discarding unreadable session", "error", err)
		s.purge(ctx)
		return model.Session{}, false
	}
	if sess.Expired(s.now()) {
		s.log.Info("session expired", "user_id", sess.User.ID, "expires_at", sess.ExpiresAt)
		s.purge(ctx)
		return model.Session{}, false
	}
	return sess, true
}

// Load returns the signed-in user, or false if there is none.
func (s *Store) Load(ctx context.Context) (model.User, bool) {
	sess, ok := s.Current(ctx)
	if !ok {
		return model.User{}, false
	}
	return sess.User, true
}

// Token returns the access token of the current session, or "". It matches
// apiclient.TokenSource.
func (s *Store) Token(ctx context.Context) string {
	sess, ok := s.Current(ctx)
	if !ok {
		return ""
	}
	return sess.AccessToken
}

// Save persists a freshly issued session.
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	if sess.User.UpdatedAt.IsZero() {
		sess.User.UpdatedAt = s.now()
	}
	if err := s.write(ctx, sess); err != nil {
		return err
	}
	u := sess.User
	s.notify(Event{Kind: EventLogin, User: &u})
	return nil
}

// Logout removes the session. It never fails from the caller's view.
func (s *Store) Logout(ctx context.Context) {
	if err := store.DeleteRecord(ctx, s.db, StorageKey); err != nil {
		s.log.Error("removing session", "error", err)
	}
	s.markSeen(0)
	s.notify(Event{Kind: EventLogout})
}

// Update merges patch into the cached user, bumps its update time and
// persists it.
func (s *Store) Update(ctx context.Context, patch model.UserPatch) (model.User, error) {
	sess, ok := s.Current(ctx)
	if !ok {
		return model.User{}, model.ErrNoSession
	}
	sess.User = patch.Apply(sess.User)
	sess.User.UpdatedAt = s.now()
	if err := s.write(ctx, sess); err != nil {
		return model.User{}, err
	}
	u := sess.User
	s.notify(Event{Kind: EventUpdate, User: &u})
	return u, nil
}

// Subscribe registers fn for in-process session events. Events are
// delivered synchronously on the goroutine that caused them. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Watch polls the stored record until ctx is done and emits EventExternal
// whenever its version changes without this store having written it.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	if v, err := store.RecordVersion(ctx, s.db, StorageKey); err == nil {
		s.markSeen(v)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Store) poll(ctx context.Context) {
	v, err := store.RecordVersion(ctx, s.db, StorageKey)
	if err != nil {
		s.log.Warn("polling session", "error", err)
		return
	}

	s.mu.Lock()
	changed := v != s.seen
	s.seen = v
	s.mu.Unlock()
	if !changed {
		return
	}

	ev := Event{Kind: EventExternal}
	if u, ok := s.Load(ctx); ok {
		ev.User = &u
	}
	s.log.Debug("session changed externally", "version", v, "signed_in", ev.User != nil)
	s.notify(ev)
}

func (s *Store) write(ctx context.Context, sess model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	v, err := store.PutRecord(ctx, s.db, StorageKey, string(data))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.markSeen(v)
	return nil
}

func (s *Store) purge(ctx context.Context) {
	if err := store.DeleteRecord(ctx, s.db, StorageKey); err != nil {
		s.log.Error("purging session", "error", err)
	}
	s.markSeen(0)
}

func (s *Store) markSeen(v int64) {
	s.mu.Lock()
	s.seen = v
	s.mu.Unlock()
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
