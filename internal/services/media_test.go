package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/clients/gcp"
	"github.com/coursevault/coursevault-backend/internal/platform/apierr"
	"github.com/coursevault/coursevault-backend/internal/types"
)

// recordingBucket keeps uploaded keys in memory so tests can observe the
// write path the way fakeBucket observes the signing path.
type recordingBucket struct {
	objects map[string]bool
	down    bool
}

func (b *recordingBucket) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	return "", time.Time{}, errors.New("not implemented")
}

func (b *recordingBucket) UploadObject(ctx context.Context, key string, r io.Reader) error {
	if b.down {
		return errors.New("connection refused")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	if b.objects == nil {
		b.objects = make(map[string]bool)
	}
	b.objects[key] = true
	return nil
}

func (b *recordingBucket) DeleteObject(ctx context.Context, key string) error {
	if b.down {
		return errors.New("connection refused")
	}
	if !b.objects[key] {
		return fmt.Errorf("%w: %s", gcp.ErrObjectNotFound, key)
	}
	delete(b.objects, key)
	return nil
}

func (b *recordingBucket) ObjectExists(ctx context.Context, key string) (bool, error) {
	if b.down {
		return false, errors.New("connection refused")
	}
	return b.objects[key], nil
}

func mediaServiceFixture(t *testing.T, bucket gcp.MediaBucket) (MediaService, uuid.UUID, uuid.UUID) {
	t.Helper()
	course := &types.Course{ID: uuid.New(), AuthorID: uuid.New(), Title: "Deep Dive", Slug: "deep-dive"}
	svc := NewMediaService(
		testLogger(t),
		&fakeCourseRepo{courses: map[uuid.UUID]*types.Course{course.ID: course}},
		bucket,
	)
	return svc, course.AuthorID, course.ID
}

func TestUploadVideoSource(t *testing.T) {
	bucket := &recordingBucket{}
	svc, authorID, courseID := mediaServiceFixture(t, bucket)

	key, err := svc.UploadVideoSource(context.Background(), authorID, courseID, "lecture-01.MP4", strings.NewReader("frames"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPrefix := fmt.Sprintf("courses/%s/videos/", courseID)
	if !strings.HasPrefix(key, wantPrefix) {
		t.Errorf("key %q not scoped under %q", key, wantPrefix)
	}
	if !strings.HasSuffix(key, ".mp4") {
		t.Errorf("key %q should keep a lowercased extension", key)
	}
	if !bucket.objects[key] {
		t.Fatal("object was not written to the bucket")
	}
}

func TestUploadVideoSourceRequiresAuthor(t *testing.T) {
	bucket := &recordingBucket{}
	svc, _, courseID := mediaServiceFixture(t, bucket)

	_, err := svc.UploadVideoSource(context.Background(), uuid.New(), courseID, "lecture.mp4", strings.NewReader("frames"))
	if !errors.Is(err, ErrNotCourseAuthor) {
		t.Fatalf("expected ErrNotCourseAuthor, got %v", err)
	}
	if len(bucket.objects) != 0 {
		t.Fatal("nothing may reach the bucket for a non-author")
	}

	_, err = svc.UploadVideoSource(context.Background(), uuid.New(), uuid.New(), "lecture.mp4", strings.NewReader("frames"))
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestUploadVideoSourceStorageDown(t *testing.T) {
	svc, authorID, courseID := mediaServiceFixture(t, &recordingBucket{down: true})

	_, err := svc.UploadVideoSource(context.Background(), authorID, courseID, "lecture.mp4", strings.NewReader("frames"))
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestDeleteVideoSource(t *testing.T) {
	bucket := &recordingBucket{}
	svc, authorID, courseID := mediaServiceFixture(t, bucket)

	key, err := svc.UploadVideoSource(context.Background(), authorID, courseID, "lecture.mp4", strings.NewReader("frames"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteVideoSource(context.Background(), authorID, courseID, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket.objects[key] {
		t.Fatal("object should be gone")
	}

	// Deleting again reports the missing object, not success.
	err = svc.DeleteVideoSource(context.Background(), authorID, courseID, key)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "object_not_found" {
		t.Fatalf("expected object_not_found, got %v", err)
	}
}

func TestDeleteVideoSourceRejectsForeignKey(t *testing.T) {
	bucket := &recordingBucket{}
	svc, authorID, courseID := mediaServiceFixture(t, bucket)

	foreign := fmt.Sprintf("courses/%s/videos/%s.mp4", uuid.New(), uuid.New())
	err := svc.DeleteVideoSource(context.Background(), authorID, courseID, foreign)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "invalid_storage_key" {
		t.Fatalf("expected invalid_storage_key, got %v", err)
	}
}
