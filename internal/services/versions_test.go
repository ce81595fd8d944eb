package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclients "github.com/coursevault/coursevault-backend/internal/clients/redis"
	"github.com/coursevault/coursevault-backend/internal/types"
)

type fakeCourseRepo struct {
	courses map[uuid.UUID]*types.Course
}

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Course) (*types.Course, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) ListByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.Course, error) {
	return nil, errors.New("not implemented")
}

type fakeVersionRepo struct {
	versions []*types.CourseVersion
}

func (f *fakeVersionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.CourseVersion) (*types.CourseVersion, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseVersion, error) {
	for _, v := range f.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeVersionRepo) GetByCourseAndNumber(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, number int) (*types.CourseVersion, error) {
	for _, v := range f.versions {
		if v.CourseID == courseID && v.VersionNumber == number {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeVersionRepo) GetLatestPublished(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseVersion, error) {
	var latest *types.CourseVersion
	for _, v := range f.versions {
		if v.CourseID != courseID || v.Status != types.VersionStatusPublished {
			continue
		}
		if latest == nil || v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeVersionRepo) MaxVersionNumber(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeVersionRepo) MarkPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeVersionRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseVersion, error) {
	var out []*types.CourseVersion
	for _, v := range f.versions {
		if v.CourseID == courseID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeVideoRepo struct {
	byVersion map[uuid.UUID][]*types.Video
}

func (f *fakeVideoRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Video) ([]*types.Video, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVideoRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Video, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVideoRepo) ListByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Video, error) {
	return f.byVersion[versionID], nil
}

type memoryVersionCache struct {
	entries map[string]*redisclients.VersionSnapshot
	sets    int
	hits    int
}

func newMemoryVersionCache() *memoryVersionCache {
	return &memoryVersionCache{entries: map[string]*redisclients.VersionSnapshot{}}
}

func (c *memoryVersionCache) key(courseID string, n int) string {
	return courseID + ":" + string(rune('0'+n))
}

func (c *memoryVersionCache) Get(ctx context.Context, courseID string, n int) (*redisclients.VersionSnapshot, bool) {
	snap, ok := c.entries[c.key(courseID, n)]
	if ok {
		c.hits++
	}
	return snap, ok
}

func (c *memoryVersionCache) Set(ctx context.Context, courseID string, n int, snap *redisclients.VersionSnapshot) {
	c.sets++
	c.entries[c.key(courseID, n)] = snap
}

func (c *memoryVersionCache) Close() error { return nil }

func versionServiceFixture(t *testing.T, cache redisclients.VersionCache) (VersionService, *types.Course, *types.CourseVersion, *types.CourseVersion) {
	t.Helper()
	course := &types.Course{ID: uuid.New(), AuthorID: uuid.New(), Title: "c", Slug: "c"}
	published := &types.CourseVersion{
		ID:            uuid.New(),
		CourseID:      course.ID,
		VersionNumber: 1,
		Status:        types.VersionStatusPublished,
	}
	draft := &types.CourseVersion{
		ID:            uuid.New(),
		CourseID:      course.ID,
		VersionNumber: 2,
		Status:        types.VersionStatusDraft,
	}
	svc := NewVersionService(
		nil,
		testLogger(t),
		&fakeCourseRepo{courses: map[uuid.UUID]*types.Course{course.ID: course}},
		&fakeVersionRepo{versions: []*types.CourseVersion{published, draft}},
		&fakeVideoRepo{byVersion: map[uuid.UUID][]*types.Video{
			published.ID: {video(1, false), video(1, true)},
			draft.ID:     {video(2, false)},
		}},
		cache,
	)
	return svc, course, published, draft
}

func TestResolveVersionLatestSkipsDrafts(t *testing.T) {
	svc, course, published, _ := versionServiceFixture(t, nil)

	version, videos, err := svc.ResolveVersion(context.Background(), course.ID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version.ID != published.ID {
		t.Fatalf("latest must be the newest published version, got v%d", version.VersionNumber)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
}

func TestResolveVersionDraftRequiresPrivilege(t *testing.T) {
	svc, course, _, draft := versionServiceFixture(t, nil)

	if _, _, err := svc.ResolveVersion(context.Background(), course.ID, SelectNumber(draft.VersionNumber), false); !errors.Is(err, ErrVersionNotPublished) {
		t.Fatalf("expected ErrVersionNotPublished, got %v", err)
	}
	if _, _, err := svc.ResolveVersion(context.Background(), course.ID, SelectNumber(draft.VersionNumber), true); err != nil {
		t.Fatalf("privileged caller should resolve drafts, got %v", err)
	}
}

func TestResolveVersionNotFound(t *testing.T) {
	svc, course, _, _ := versionServiceFixture(t, nil)

	if _, _, err := svc.ResolveVersion(context.Background(), uuid.New(), SelectLatest(), false); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, _, err := svc.ResolveVersion(context.Background(), course.ID, SelectNumber(99), false); !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestResolveVersionCachesPublishedSnapshots(t *testing.T) {
	cache := newMemoryVersionCache()
	svc, course, published, draft := versionServiceFixture(t, cache)

	if _, _, err := svc.ResolveVersion(context.Background(), course.ID, SelectNumber(published.VersionNumber), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	version, videos, err := svc.ResolveVersion(context.Background(), course.ID, SelectNumber(published.VersionNumber), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("expected the second resolve to hit the cache, hits=%d", cache.hits)
	}
	if version.ID != published.ID || len(videos) != 2 {
		t.Fatal("cache hit returned a different snapshot")
	}

	// Drafts never enter the cache.
	if _, _, err := svc.ResolveVersion(context.Background(), course.ID, SelectNumber(draft.VersionNumber), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("draft resolution must not write the cache, sets=%d", cache.sets)
	}
}
