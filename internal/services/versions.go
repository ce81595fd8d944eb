package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclients "github.com/coursevault/coursevault-backend/internal/clients/redis"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/repos"
	"github.com/coursevault/coursevault-backend/internal/types"
)

// VersionSelector names either an explicit version number or the latest
// published version of a course.
type VersionSelector struct {
	Latest bool
	Number int
}

func SelectLatest() VersionSelector      { return VersionSelector{Latest: true} }
func SelectNumber(n int) VersionSelector { return VersionSelector{Number: n} }

type VersionService interface {
	// ResolveVersion returns the canonical version row and its videos in
	// course order. Draft versions resolve only for privileged callers.
	ResolveVersion(ctx context.Context, courseID uuid.UUID, sel VersionSelector, privileged bool) (*types.CourseVersion, []*types.Video, error)
}

type versionService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	versionRepo repos.CourseVersionRepo
	videoRepo   repos.VideoRepo
	cache       redisclients.VersionCache
}

// NewVersionService wires the resolver. cache may be nil; published versions
// are immutable so the cache is purely an optimization.
func NewVersionService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	versionRepo repos.CourseVersionRepo,
	videoRepo repos.VideoRepo,
	cache redisclients.VersionCache,
) VersionService {
	return &versionService{
		db:          db,
		log:         log.With("service", "VersionService"),
		courseRepo:  courseRepo,
		versionRepo: versionRepo,
		videoRepo:   videoRepo,
		cache:       cache,
	}
}

func (s *versionService) ResolveVersion(ctx context.Context, courseID uuid.UUID, sel VersionSelector, privileged bool) (*types.CourseVersion, []*types.Video, error) {
	if _, err := s.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("load course %s: %w", courseID, err)
	}

	if !sel.Latest && s.cache != nil {
		if snap, ok := s.cache.Get(ctx, courseID.String(), sel.Number); ok {
			return snap.Version, snap.Videos, nil
		}
	}

	var version *types.CourseVersion
	var err error
	if sel.Latest {
		version, err = s.versionRepo.GetLatestPublished(ctx, nil, courseID)
	} else {
		version, err = s.versionRepo.GetByCourseAndNumber(ctx, nil, courseID, sel.Number)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrVersionNotFound
		}
		return nil, nil, fmt.Errorf("load version for course %s: %w", courseID, err)
	}

	if version.Status == types.VersionStatusDraft && !privileged {
		return nil, nil, ErrVersionNotPublished
	}

	videos, err := s.videoRepo.ListByVersionID(ctx, nil, version.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load videos for version %s: %w", version.ID, err)
	}

	// Only published snapshots go in the cache; drafts still change.
	if s.cache != nil && version.Status == types.VersionStatusPublished {
		s.cache.Set(ctx, courseID.String(), version.VersionNumber, &redisclients.VersionSnapshot{
			Version: version,
			Videos:  videos,
		})
	}
	return version, videos, nil
}
