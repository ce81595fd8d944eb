package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/types"
)

type CertificateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Certificate) (*types.Certificate, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certificate, error)
	GetBySerial(ctx context.Context, tx *gorm.DB, serial string) (*types.Certificate, error)
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Certificate) (*types.Certificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *certificateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Certificate
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *certificateRepo) GetBySerial(ctx context.Context, tx *gorm.DB, serial string) (*types.Certificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Certificate
	if err := transaction.WithContext(ctx).
		Where("serial = ?", serial).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *certificateRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Certificate
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at desc").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
