package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dormswap/internal/db"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/store"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testSession(expires time.Time) model.Session {
	return model.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expires,
		User:         model.User{ID: "u1", Email: "sarah@uni.edu.vn", Name: "Sarah"},
	}
}

func TestSaveAndLoad(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(db.NewTestDB(t), newTestLogger(), WithClock(clock.Now))
	ctx := context.Background()

	_, ok := s.Load(ctx)
	assert.False(t, ok, "expected no session before login")

	require.NoError(t, s.Save(ctx, testSession(clock.Now().Add(time.Hour))))

	u, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "access", s.Token(ctx))
}

func TestLoad_ExpiredIsPurged(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	database := db.NewTestDB(t)
	s := New(database, newTestLogger(), WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession(clock.Now().Add(time.Minute))))
	clock.Advance(time.Minute)

	_, ok := s.Load(ctx)
	assert.False(t, ok, "session expiring exactly now must be absent")

	rec, err := store.GetRecord(ctx, database, StorageKey)
	require.NoError(t, err)
	assert.Nil(t, rec, "expired session record must be removed")

	_, ok = s.Load(ctx)
	assert.False(t, ok, "second load must also be absent")
}

func TestLoad_CorruptIsPurged(t *testing.T) {
	database := db.NewTestDB(t)
	s := New(database, newTestLogger())
	ctx := context.Background()

	_, err := store.PutRecord(ctx, database, StorageKey, "{not json")
	require.NoError(t, err)

	_, ok := s.Load(ctx)
	assert.False(t, ok)

	rec, err := store.GetRecord(ctx, database, StorageKey)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLogout(t *testing.T) {
	s := New(db.NewTestDB(t), newTestLogger())
	ctx := context.Background()

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	require.NoError(t, s.Save(ctx, testSession(time.Now().Add(time.Hour))))
	s.Logout(ctx)
	s.Logout(ctx)

	_, ok := s.Load(ctx)
	assert.False(t, ok)

	require.Len(t, events, 3)
	assert.Equal(t, EventLogin, events[0].Kind)
	assert.Equal(t, EventLogout, events[1].Kind)
	assert.Nil(t, events[1].User)
}

func TestUpdate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(db.NewTestDB(t), newTestLogger(), WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession(clock.Now().Add(24*time.Hour))))

	var got *model.User
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventUpdate {
			got = ev.User
		}
	})

	clock.Advance(time.Minute)
	building := "A3"
	u, err := s.Update(ctx, model.UserPatch{DormBuilding: &building})
	require.NoError(t, err)

	assert.Equal(t, "A3", u.DormBuilding)
	assert.Equal(t, "Sarah", u.Name, "unpatched fields must survive")
	assert.Equal(t, clock.Now(), u.UpdatedAt)
	require.NotNil(t, got)
	assert.Equal(t, "A3", got.DormBuilding)

	loaded, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "A3", loaded.DormBuilding)
}

func TestUpdate_NoSession(t *testing.T) {
	s := New(db.NewTestDB(t), newTestLogger())

	name := "x"
	_, err := s.Update(context.Background(), model.UserPatch{Name: &name})
	assert.ErrorIs(t, err, model.ErrNoSession)
}

func TestUnsubscribe(t *testing.T) {
	s := New(db.NewTestDB(t), newTestLogger())

	calls := 0
	unsubscribe := s.Subscribe(func(Event) { calls++ })
	unsubscribe()

	s.Logout(context.Background())
	assert.Zero(t, calls)
}

func TestWatch_ExternalChange(t *testing.T) {
	path := db.NewTestFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	openStore := func() *Store {
		database, err := db.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		return New(database, newTestLogger())
	}
	tabA := openStore()
	tabB := openStore()

	events := make(chan Event, 4)
	tabB.Subscribe(func(ev Event) { events <- ev })

	go tabB.Watch(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, tabA.Save(ctx, testSession(time.Now().Add(time.Hour))))

	select {
	case ev := <-events:
		assert.Equal(t, EventExternal, ev.Kind)
		require.NotNil(t, ev.User)
		assert.Equal(t, "u1", ev.User.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected external event after another process saved a session")
	}

	tabA.Logout(ctx)

	select {
	case ev := <-events:
		assert.Equal(t, EventExternal, ev.Kind)
		assert.Nil(t, ev.User)
	case <-time.After(2 * time.Second):
		t.Fatal("expected external event after another process logged out")
	}
}

func TestWatch_IgnoresOwnWrites(t *testing.T) {
	s := New(db.NewTestDB(t), newTestLogger())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession(time.Now().Add(time.Hour))))

	external := 0
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventExternal {
			external++
		}
	})
	s.poll(ctx)
	assert.Zero(t, external)
}
