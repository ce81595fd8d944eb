package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
)

// ErrObjectNotFound means the storage key does not reference an object in the
// media bucket. Callers treat this as a data problem, not an outage.
var ErrObjectNotFound = errors.New("object not found in media bucket")

// MediaBucket fronts the GCS bucket that holds course video binaries. Signed
// GET URLs are the only read path handed to end users; the permanent bucket
// credentials never leave the service.
type MediaBucket interface {
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error)
	UploadObject(ctx context.Context, key string, r io.Reader) error
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}

type mediaBucket struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewMediaBucket(log *logger.Logger) (MediaBucket, error) {
	serviceLog := log.With("service", "MediaBucket")

	bucketName := os.Getenv("MEDIA_GCS_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var MEDIA_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Media bucket initialized", "bucket", bucketName)
	return &mediaBucket{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucketName,
	}, nil
}

// SignedGetURL mints a fresh V4 signed URL for the object. The attrs check up
// front is what separates "key points at nothing" from "storage backend down":
// the two must surface as different failures.
func (mb *mediaBucket) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	bucket := mb.storageClient.Bucket(mb.bucketName)

	if _, err := bucket.Object(key).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", time.Time{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return "", time.Time{}, fmt.Errorf("stat object %q: %w", key, err)
	}

	expiresAt := time.Now().Add(ttl)
	url, err := bucket.SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: expiresAt,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign url for %q: %w", key, err)
	}
	return url, expiresAt, nil
}

func (mb *mediaBucket) UploadObject(ctx context.Context, key string, r io.Reader) error {
	w := mb.storageClient.Bucket(mb.bucketName).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", key, err)
	}
	return nil
}

func (mb *mediaBucket) DeleteObject(ctx context.Context, key string) error {
	err := mb.storageClient.Bucket(mb.bucketName).Object(key).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (mb *mediaBucket) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := mb.storageClient.Bucket(mb.bucketName).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}
