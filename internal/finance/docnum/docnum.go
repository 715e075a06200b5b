// Package docnum issues human-readable document numbers (INV-..., SO-...,
// PO-..., BILL-...). Numbers are best-effort unique; the ledger's unique
// constraint on the number column is the authoritative guard and collisions
// surface as conflicts to the caller.
package docnum

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Generator issues document numbers of the form <PREFIX>-<token>.
type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// sequence keys expire after two days; the day component of the number keeps
// old keys from ever being needed again.
const sequenceTTL = 48 * time.Hour

// SequenceGenerator allocates a per-prefix daily sequence through Redis INCR,
// producing numbers like INV-20260901-000042. When Redis is unavailable it
// falls back to a timestamp token with a UUID suffix.
type SequenceGenerator struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewSequenceGenerator returns a SequenceGenerator backed by rdb. A nil rdb
// is allowed; every call then takes the fallback path.
func NewSequenceGenerator(rdb redis.Cmdable) *SequenceGenerator {
	return &SequenceGenerator{rdb: rdb, now: time.Now}
}

// Next returns the next number for prefix.
func (g *SequenceGenerator) Next(ctx context.Context, prefix string) (string, error) {
	now := g.now().UTC()
	day := now.Format("20060102")

	if g.rdb == nil {
		return fallbackNumber(prefix, now), nil
	}

	key := fmt.Sprintf("oneflow:docnum:%s:%s", prefix, day)
	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fallbackNumber(prefix, now), nil
	}
	if seq == 1 {
		g.rdb.Expire(ctx, key, sequenceTTL)
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, day, seq), nil
}

func fallbackNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), uuid.NewString()[:8])
}
