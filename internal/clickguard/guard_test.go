package clickguard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardDedupesWithinWindow(t *testing.T) {
	g := NewMemoryGuard()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := g.FirstVisit(ctx, "share:visitor", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	now = now.Add(30 * time.Minute)
	again, err := g.FirstVisit(ctx, "share:visitor", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := g.FirstVisit(ctx, "share:someone-else", time.Hour)
	require.NoError(t, err)
	assert.True(t, other)

	now = now.Add(31 * time.Minute)
	later, err := g.FirstVisit(ctx, "share:visitor", time.Hour)
	require.NoError(t, err)
	assert.True(t, later)
}

func TestMemoryGuardEvictsExpiredKeys(t *testing.T) {
	g := NewMemoryGuard()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	g.seen["old"] = now.Add(-2 * time.Hour)
	g.seen["fresh"] = now
	g.evict(now, time.Hour)

	assert.NotContains(t, g.seen, "old")
	assert.Contains(t, g.seen, "fresh")
}
