package homework

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultCursorKey is the redis key holding the last-seen timestamp.
const DefaultCursorKey = "homework-watch:cursor"

// CursorStore remembers the Unix timestamp the next poll should ask for
// changes since.
type CursorStore interface {
	// Load returns the stored cursor, and false if none has been saved.
	Load(ctx context.Context) (int64, bool, error)
	Save(ctx context.Context, cursor int64) error
}

// MemoryCursor keeps the cursor for the lifetime of the process.
type MemoryCursor struct {
	mu     sync.Mutex
	cursor int64
	set    bool
}

// Load returns the cursor held in memory.
func (mc *MemoryCursor) Load(_ context.Context) (int64, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.cursor, mc.set, nil
}

// Save replaces the cursor held in memory.
func (mc *MemoryCursor) Save(_ context.Context, cursor int64) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.cursor = cursor
	mc.set = true
	return nil
}

// RedisCursor persists the cursor in redis so a restarted watcher resumes
// where it left off instead of skipping reviews that happened while down.
type RedisCursor struct {
	client redis.Cmdable
	key    string
}

// NewRedisCursor stores the cursor under key, or DefaultCursorKey if key is
// empty.
func NewRedisCursor(client redis.Cmdable, key string) *RedisCursor {
	if key == "" {
		key = DefaultCursorKey
	}
	return &RedisCursor{client: client, key: key}
}

// Load reads the cursor from redis.
func (rc *RedisCursor) Load(ctx context.Context) (int64, bool, error) {
	val, err := rc.client.Get(ctx, rc.key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "error reading cursor %s", rc.key)
	}
	cursor, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "cursor %s holds %q", rc.key, val)
	}
	return cursor, true, nil
}

// Save writes the cursor to redis without expiry.
func (rc *RedisCursor) Save(ctx context.Context, cursor int64) error {
	if err := rc.client.Set(ctx, rc.key, cursor, 0).Err(); err != nil {
		return errors.Wrapf(err, "error writing cursor %s", rc.key)
	}
	return nil
}
