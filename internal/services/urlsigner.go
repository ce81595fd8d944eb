package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/clients/gcp"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
)

const (
	minSignedURLTTL = 1 * time.Minute
	maxSignedURLTTL = 15 * time.Minute
)

// URLSignerService mints short-lived delegated URLs for video binaries. Every
// call produces a fresh, independently expiring credential; nothing is cached
// or reused, so a leaked link is only a bounded exposure.
type URLSignerService interface {
	Issue(ctx context.Context, videoID uuid.UUID, storageKey string, ttl time.Duration) (*DelegatedURL, error)
	DefaultTTL() time.Duration
}

type urlSignerService struct {
	log        *logger.Logger
	bucket     gcp.MediaBucket
	defaultTTL time.Duration
}

func NewURLSignerService(log *logger.Logger, bucket gcp.MediaBucket, defaultTTL time.Duration) URLSignerService {
	return &urlSignerService{
		log:        log.With("service", "URLSignerService"),
		bucket:     bucket,
		defaultTTL: clampTTL(defaultTTL),
	}
}

func (s *urlSignerService) DefaultTTL() time.Duration { return s.defaultTTL }

func (s *urlSignerService) Issue(ctx context.Context, videoID uuid.UUID, storageKey string, ttl time.Duration) (*DelegatedURL, error) {
	if storageKey == "" {
		// A purchasable video without a storage key is a data integrity gap,
		// not a transient fault; it has to surface loudly and distinctly.
		s.log.Error("video has no storage key", "video_id", videoID)
		return nil, fmt.Errorf("%w: video %s", ErrNoStorageKey, videoID)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	ttl = clampTTL(ttl)

	url, expiresAt, err := s.bucket.SignedGetURL(ctx, storageKey, ttl)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			// Key is set but points at nothing: same integrity class as a
			// missing key, and just as loud.
			s.log.Error("storage key references no object", "video_id", videoID, "error", err)
			return nil, fmt.Errorf("%w: video %s: dangling key", ErrNoStorageKey, videoID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &DelegatedURL{
		VideoID:   videoID,
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < minSignedURLTTL {
		return minSignedURLTTL
	}
	if ttl > maxSignedURLTTL {
		return maxSignedURLTTL
	}
	return ttl
}
