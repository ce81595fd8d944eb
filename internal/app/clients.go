package app

import (
	"github.com/coursevault/coursevault-backend/internal/clients/gcp"
	redisclients "github.com/coursevault/coursevault-backend/internal/clients/redis"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
)

type Clients struct {
	MediaBucket  gcp.MediaBucket
	VersionCache redisclients.VersionCache
}

// wireClients brings up the external dependencies. The bucket is required;
// the cache is best-effort and the app runs without it.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewMediaBucket(log)
	if err != nil {
		return Clients{}, err
	}

	cache, err := redisclients.NewVersionCache(log)
	if err != nil {
		log.Warn("version cache unavailable, continuing without it", "error", err)
		cache = nil
	}

	return Clients{
		MediaBucket:  bucket,
		VersionCache: cache,
	}, nil
}
