package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/config"
	"github.com/strove-app/strove/internal/models"
	"github.com/strove-app/strove/internal/services"
	"github.com/strove-app/strove/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStarSets(t *testing.T) (*StarSets, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	sets, err := NewStarSets(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sets.Close() })
	return sets, mr
}

func TestStarKeyRoundTrip(t *testing.T) {
	key := StarKey(42)
	assert.Equal(t, "postings:stars:42", key)

	id, ok := ParseStarKey(key)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestParseStarKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{"notes:likes:1", "postings:stars:", "postings:stars:abc", "postings:stars:-3"} {
		_, ok := ParseStarKey(key)
		assert.False(t, ok, key)
	}
}

func TestStarSetsCounts(t *testing.T) {
	sets, mr := newStarSets(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, sets.Add(ctx, 1, alice))
	require.NoError(t, sets.Add(ctx, 1, alice))
	require.NoError(t, sets.Add(ctx, 1, bob))
	require.NoError(t, sets.Add(ctx, 4, bob))
	mr.Set("notes:likes:1", "x")

	counts, err := sets.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 2, 4: 1}, counts)

	require.NoError(t, sets.Remove(ctx, 4, bob))
	assert.False(t, mr.Exists(StarKey(4)))
	counts, err = sets.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 2}, counts)
}

func TestNewStarSetsUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewStarSets(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestStarServiceSyncThroughRedis(t *testing.T) {
	sets, mr := newStarSets(t)
	db := testutil.NewSeededDB(t)
	s := services.NewStarService(db, sets)
	ctx := context.Background()
	alice := uuid.New()

	count := func(id uint) int64 {
		var p models.Posting
		require.NoError(t, db.First(&p, id).Error)
		return p.StarCount
	}

	require.NoError(t, s.Star(ctx, alice, 2))
	_, err := s.SyncCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(2))

	require.NoError(t, s.Unstar(ctx, alice, 2))
	_, err = s.SyncCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count(2))

	require.NoError(t, s.Star(ctx, alice, 5))
	mr.FlushAll()
	_, err = s.RebuildCounter(ctx)
	require.NoError(t, err)
	_, err = s.SyncCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(5))
}
