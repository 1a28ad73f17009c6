package cache

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dormswap/internal/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNilClientIsEmpty(t *testing.T) {
	var c *Client
	ctx := context.Background()

	c.PutItem(ctx, model.Item{ID: "1"})
	c.InvalidateItem(ctx, "1")
	_, ok := c.Item(ctx, "1")

	assert.False(t, ok)
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

// unusedAddr returns an address nothing listens on.
func unusedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestUnreachableRedisFailsSafe(t *testing.T) {
	c := New(unusedAddr(t), "", 0, time.Minute, newTestLogger())
	defer c.Close()
	ctx := context.Background()

	assert.Error(t, c.Ping(ctx))

	c.PutItem(ctx, model.Item{ID: "1", Title: "Desk Fan"})
	_, ok := c.Item(ctx, "1")
	assert.False(t, ok, "unreachable cache must behave like a miss")

	c.InvalidateItem(ctx, "1")
}

func TestNewDefaultsTTL(t *testing.T) {
	c := New("127.0.0.1:0", "", 0, 0, newTestLogger())
	defer c.Close()

	assert.Equal(t, DefaultTTL, c.ttl)
}
