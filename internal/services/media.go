package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/clients/gcp"
	"github.com/coursevault/coursevault-backend/internal/platform/apierr"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/repos"
)

// MediaService is the authoring-side write path into the media bucket. Authors
// upload video binaries here first and reference the returned storage keys
// when they assemble a draft version.
type MediaService interface {
	// UploadVideoSource streams a video binary into the bucket under a fresh
	// key scoped to the course. Only the course author may upload.
	UploadVideoSource(ctx context.Context, authorID, courseID uuid.UUID, filename string, r io.Reader) (string, error)
	// DeleteVideoSource removes an uploaded binary. The key must belong to the
	// course; published versions referencing it are the author's problem, which
	// is why this is restricted to the author in the first place.
	DeleteVideoSource(ctx context.Context, authorID, courseID uuid.UUID, storageKey string) error
}

type mediaService struct {
	log        *logger.Logger
	courseRepo repos.CourseRepo
	bucket     gcp.MediaBucket
}

func NewMediaService(log *logger.Logger, courseRepo repos.CourseRepo, bucket gcp.MediaBucket) MediaService {
	return &mediaService{
		log:        log.With("service", "MediaService"),
		courseRepo: courseRepo,
		bucket:     bucket,
	}
}

// videoSourcePrefix scopes every upload under its course so that a key can be
// checked for ownership without another lookup.
func videoSourcePrefix(courseID uuid.UUID) string {
	return fmt.Sprintf("courses/%s/videos/", courseID)
}

func (s *mediaService) UploadVideoSource(ctx context.Context, authorID, courseID uuid.UUID, filename string, r io.Reader) (string, error) {
	if err := s.requireAuthor(ctx, authorID, courseID); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(filename))
	key := videoSourcePrefix(courseID) + uuid.New().String() + ext
	if err := s.bucket.UploadObject(ctx, key, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.log.Info("video source uploaded", "course_id", courseID, "storage_key", key)
	return key, nil
}

func (s *mediaService) DeleteVideoSource(ctx context.Context, authorID, courseID uuid.UUID, storageKey string) error {
	if err := s.requireAuthor(ctx, authorID, courseID); err != nil {
		return err
	}
	if !strings.HasPrefix(storageKey, videoSourcePrefix(courseID)) {
		return apierr.BadRequest("invalid_storage_key", fmt.Errorf("storage key does not belong to course %s", courseID))
	}

	exists, err := s.bucket.ObjectExists(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !exists {
		return apierr.NotFound("object_not_found", fmt.Errorf("no object at %q", storageKey))
	}

	if err := s.bucket.DeleteObject(ctx, storageKey); err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return apierr.NotFound("object_not_found", err)
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.log.Info("video source deleted", "course_id", courseID, "storage_key", storageKey)
	return nil
}

func (s *mediaService) requireAuthor(ctx context.Context, authorID, courseID uuid.UUID) error {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("load course %s: %w", courseID, err)
	}
	if course.AuthorID != authorID {
		return ErrNotCourseAuthor
	}
	return nil
}
