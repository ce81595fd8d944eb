package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/apierr"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/repos"
	"github.com/coursevault/coursevault-backend/internal/types"
)

// NewVideoInput describes one video of a draft version. Slice order becomes
// the course order.
type NewVideoInput struct {
	Title           string `json:"title"`
	StorageKey      string `json:"storage_key"`
	FreePreview     bool   `json:"free_preview"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CourseService covers the authoring side: courses and their append-only
// version snapshots. Published versions are never edited here — a correction
// is a new draft.
type CourseService interface {
	CreateCourse(ctx context.Context, authorID uuid.UUID, title, description string) (*types.Course, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*types.Course, error)
	CreateDraftVersion(ctx context.Context, authorID, courseID uuid.UUID, changelog string, videos []NewVideoInput) (*types.CourseVersion, error)
	PublishVersion(ctx context.Context, authorID, versionID uuid.UUID) (*types.CourseVersion, error)
	ListVersions(ctx context.Context, authorID, courseID uuid.UUID) ([]*types.CourseVersion, error)
	IsAuthor(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}

type courseService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	versionRepo repos.CourseVersionRepo
	videoRepo   repos.VideoRepo
}

func NewCourseService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	versionRepo repos.CourseVersionRepo,
	videoRepo repos.VideoRepo,
) CourseService {
	return &courseService{
		db:          db,
		log:         log.With("service", "CourseService"),
		courseRepo:  courseRepo,
		versionRepo: versionRepo,
		videoRepo:   videoRepo,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, authorID uuid.UUID, title, description string) (*types.Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.BadRequest("invalid_title", fmt.Errorf("course title is required"))
	}
	course := &types.Course{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Title:       title,
		Slug:        slugify(title) + "-" + uuid.New().String()[:8],
		Description: strings.TrimSpace(description),
	}
	if _, err := s.courseRepo.Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (s *courseService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*types.Course, error) {
	courses, err := s.courseRepo.ListByAuthor(ctx, nil, authorID)
	if err != nil {
		return nil, fmt.Errorf("list courses for author %s: %w", authorID, err)
	}
	return courses, nil
}

func (s *courseService) CreateDraftVersion(ctx context.Context, authorID, courseID uuid.UUID, changelog string, videos []NewVideoInput) (*types.CourseVersion, error) {
	if len(videos) == 0 {
		return nil, apierr.BadRequest("no_videos", fmt.Errorf("a version needs at least one video"))
	}

	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}
	if course.AuthorID != authorID {
		return nil, ErrNotCourseAuthor
	}

	var version *types.CourseVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		maxNumber, err := s.versionRepo.MaxVersionNumber(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("next version number: %w", err)
		}

		version = &types.CourseVersion{
			ID:            uuid.New(),
			CourseID:      courseID,
			VersionNumber: maxNumber + 1,
			Status:        types.VersionStatusDraft,
			Changelog:     strings.TrimSpace(changelog),
		}
		if _, err := s.versionRepo.Create(ctx, tx, version); err != nil {
			return fmt.Errorf("create version: %w", err)
		}

		rows := make([]*types.Video, 0, len(videos))
		for i, in := range videos {
			rows = append(rows, &types.Video{
				ID:              uuid.New(),
				CourseID:        courseID,
				CourseVersionID: version.ID,
				VersionNumber:   version.VersionNumber,
				Title:           strings.TrimSpace(in.Title),
				StorageKey:      strings.TrimSpace(in.StorageKey),
				FreePreview:     in.FreePreview,
				Position:        i + 1,
				DurationSeconds: in.DurationSeconds,
			})
		}
		if _, err := s.videoRepo.Create(ctx, tx, rows); err != nil {
			return fmt.Errorf("create videos: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("draft version created",
		"course_id", courseID,
		"version", version.VersionNumber,
		"videos", len(videos),
	)
	return version, nil
}

func (s *courseService) PublishVersion(ctx context.Context, authorID, versionID uuid.UUID) (*types.CourseVersion, error) {
	version, err := s.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("load version %s: %w", versionID, err)
	}

	course, err := s.courseRepo.GetByID(ctx, nil, version.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", version.CourseID, err)
	}
	if course.AuthorID != authorID {
		return nil, ErrNotCourseAuthor
	}

	affected, err := s.versionRepo.MarkPublished(ctx, nil, versionID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("publish version %s: %w", versionID, err)
	}
	if affected == 0 {
		return nil, ErrVersionNotDraft
	}

	published, err := s.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return nil, fmt.Errorf("reload version %s: %w", versionID, err)
	}
	s.log.Info("version published", "course_id", version.CourseID, "version", version.VersionNumber)
	return published, nil
}

// ListVersions shows the full history including drafts and archived versions,
// which is why it is author-only. Learners only ever see published versions
// through the content path.
func (s *courseService) ListVersions(ctx context.Context, authorID, courseID uuid.UUID) ([]*types.CourseVersion, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}
	if course.AuthorID != authorID {
		return nil, ErrNotCourseAuthor
	}
	versions, err := s.versionRepo.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("list versions for course %s: %w", courseID, err)
	}
	return versions, nil
}

func (s *courseService) IsAuthor(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrCourseNotFound
		}
		return false, err
	}
	return course.AuthorID == userID, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
