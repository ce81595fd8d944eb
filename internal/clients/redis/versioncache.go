package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/coursevault/coursevault-backend/internal/platform/envutil"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/types"
)

// VersionSnapshot is the cacheable unit of a published course version: the
// version row plus its videos in course order. Published versions are
// immutable, so entries never need invalidation and a long TTL is safe.
type VersionSnapshot struct {
	Version *types.CourseVersion `json:"version"`
	Videos  []*types.Video       `json:"videos"`
}

type VersionCache interface {
	Get(ctx context.Context, courseID string, versionNumber int) (*VersionSnapshot, bool)
	Set(ctx context.Context, courseID string, versionNumber int, snap *VersionSnapshot)
	Close() error
}

type versionCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewVersionCache(log *logger.Logger) (VersionCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &versionCache{
		log: log.With("service", "RedisVersionCache"),
		rdb: rdb,
		ttl: 12 * time.Hour,
	}, nil
}

func snapshotKey(courseID string, versionNumber int) string {
	return fmt.Sprintf("course:%s:v%d:snapshot", courseID, versionNumber)
}

// Get is best-effort: a cache miss and a cache failure look the same to the
// caller, which always has the database to fall back on.
func (c *versionCache) Get(ctx context.Context, courseID string, versionNumber int) (*VersionSnapshot, bool) {
	val, err := c.rdb.Get(ctx, snapshotKey(courseID, versionNumber)).Result()
	if err != nil {
		return nil, false
	}
	var snap VersionSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		c.log.Warn("corrupt version snapshot in cache", "course_id", courseID, "version", versionNumber, "error", err)
		return nil, false
	}
	return &snap, true
}

func (c *versionCache) Set(ctx context.Context, courseID string, versionNumber int, snap *VersionSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, snapshotKey(courseID, versionNumber), data, c.ttl).Err(); err != nil {
		c.log.Warn("version snapshot cache write failed", "course_id", courseID, "version", versionNumber, "error", err)
	}
}

func (c *versionCache) Close() error { return c.rdb.Close() }
