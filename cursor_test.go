package homework

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCursor(t *testing.T) {
	ctx := context.Background()
	mc := &MemoryCursor{}

	_, ok, err := mc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Save(ctx, 1600000000))
	got, ok, err := mc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1600000000), got)
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisCursorRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupMiniRedis(t)
	rc := NewRedisCursor(rdb, "")

	_, ok, err := rc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Save(ctx, 1600000300))
	stored, err := mr.Get(DefaultCursorKey)
	require.NoError(t, err)
	assert.Equal(t, "1600000300", stored)

	got, ok, err := NewRedisCursor(rdb, DefaultCursorKey).Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1600000300), got)
}

func TestRedisCursorCorruptValue(t *testing.T) {
	mr, rdb := setupMiniRedis(t)
	require.NoError(t, mr.Set("custom", "yesterday"))

	_, _, err := NewRedisCursor(rdb, "custom").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yesterday")
}

func TestRedisCursorUnavailable(t *testing.T) {
	mr, rdb := setupMiniRedis(t)
	mr.Close()

	rc := NewRedisCursor(rdb, "")
	_, _, err := rc.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, rc.Save(context.Background(), 1))
}

func TestWatcherResumesFromRedisCursor(t *testing.T) {
	ctx := context.Background()
	_, rdb := setupMiniRedis(t)
	require.NoError(t, NewRedisCursor(rdb, "").Save(ctx, 1599999000))

	f := &fakeFetcher{results: []fetchResult{{resp: &StatusResponse{CurrentDate: 1600000100}}}}
	w, _ := newTestWatcher(t, f, &recordingNotifier{}, WithCursorStore(NewRedisCursor(rdb, "")))
	require.NoError(t, w.Poll(ctx))

	assert.Equal(t, []int64{1599999000}, f.calls)
	got, _, err := NewRedisCursor(rdb, "").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1600000100), got)
}
