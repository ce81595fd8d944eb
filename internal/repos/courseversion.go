package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/types"
)

type CourseVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.CourseVersion) (*types.CourseVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseVersion, error)
	GetByCourseAndNumber(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, versionNumber int) (*types.CourseVersion, error)
	GetLatestPublished(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseVersion, error)
	MaxVersionNumber(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error)
	MarkPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseVersion, error)
}

type courseVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseVersionRepo(db *gorm.DB, baseLog *logger.Logger) CourseVersionRepo {
	return &courseVersionRepo{db: db, log: baseLog.With("repo", "CourseVersionRepo")}
}

func (r *courseVersionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.CourseVersion) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *courseVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.CourseVersion
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *courseVersionRepo) GetByCourseAndNumber(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, versionNumber int) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.CourseVersion
	if err := transaction.WithContext(ctx).
		Where("course_id = ? AND version_number = ?", courseID, versionNumber).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *courseVersionRepo) GetLatestPublished(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.CourseVersion
	if err := transaction.WithContext(ctx).
		Where("course_id = ? AND status = ?", courseID, types.VersionStatusPublished).
		Order("version_number desc").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *courseVersionRepo) MaxVersionNumber(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var max *int
	if err := transaction.WithContext(ctx).
		Model(&types.CourseVersion{}).
		Where("course_id = ?", courseID).
		Select("MAX(version_number)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// MarkPublished only transitions draft rows; publishing an already published
// or archived version affects zero rows and the caller decides what that means.
func (r *courseVersionRepo) MarkPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.CourseVersion{}).
		Where("id = ? AND status = ?", id, types.VersionStatusDraft).
		Updates(map[string]interface{}{
			"status":       types.VersionStatusPublished,
			"published_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *courseVersionRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CourseVersion
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("version_number asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
