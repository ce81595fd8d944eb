package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/types"
)

type EntitlementRepo interface {
	// UpsertActive inserts the row unless an active entitlement for the same
	// (user, course) already exists. Returns true when a new row was created.
	UpsertActive(ctx context.Context, tx *gorm.DB, row *types.Entitlement) (bool, error)
	GetActive(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Entitlement, error)
	Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Entitlement, error)
	CountByPurchaseRef(ctx context.Context, tx *gorm.DB, purchaseRef string) (int64, error)
}

type entitlementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntitlementRepo(db *gorm.DB, baseLog *logger.Logger) EntitlementRepo {
	return &entitlementRepo{db: db, log: baseLog.With("repo", "EntitlementRepo")}
}

func (r *entitlementRepo) UpsertActive(ctx context.Context, tx *gorm.DB, row *types.Entitlement) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// Conflict target is the partial unique index on the active pair, so a
	// duplicate confirmation event lands on DO NOTHING instead of a second row.
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "course_id"},
			},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Name: "revoked"}, Value: false},
			}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetActive returns (nil, nil) when the user holds no active entitlement.
// Storage errors always propagate; "not purchased" must never be synthesized
// from a failed read.
func (r *entitlementRepo) GetActive(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Entitlement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Entitlement
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND revoked = false", userID, courseID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *entitlementRepo) Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Entitlement{}).
		Where("id = ? AND revoked = false", id).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *entitlementRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Entitlement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Entitlement
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entitlementRepo) CountByPurchaseRef(ctx context.Context, tx *gorm.DB, purchaseRef string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Entitlement{}).
		Where("purchase_ref = ?", purchaseRef).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
