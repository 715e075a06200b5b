package docnum

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) *SequenceGenerator {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gen := NewSequenceGenerator(client)
	gen.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return gen
}

func TestNextIsMonotonicPerPrefix(t *testing.T) {
	gen := newTestGenerator(t)
	ctx := context.Background()

	first, err := gen.Next(ctx, "INV")
	require.NoError(t, err)
	require.Equal(t, "INV-20260901-000001", first)

	second, err := gen.Next(ctx, "INV")
	require.NoError(t, err)
	require.Equal(t, "INV-20260901-000002", second)

	// An independent prefix keeps its own counter.
	so, err := gen.Next(ctx, "SO")
	require.NoError(t, err)
	require.Equal(t, "SO-20260901-000001", so)
}

func TestNextFallsBackWithoutRedis(t *testing.T) {
	gen := NewSequenceGenerator(nil)

	num, err := gen.Next(context.Background(), "BILL")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(num, "BILL-"))
	require.Len(t, strings.Split(num, "-"), 3)
}

func TestNextFallsBackOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	gen := NewSequenceGenerator(client)
	num, err := gen.Next(context.Background(), "PO")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(num, "PO-"))
}
