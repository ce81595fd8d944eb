package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/repos"
	"github.com/coursevault/coursevault-backend/internal/types"
)

// PurchaseConfirmation is the normalized payload of a payment-gateway
// notification. EventID is the gateway's idempotency handle: replays of the
// same event must not create a second active entitlement.
type PurchaseConfirmation struct {
	EventID             string
	UserID              uuid.UUID
	CourseID            uuid.UUID
	VersionNumber       *int
	AllowVersionUpgrade bool
	ConfirmedAt         time.Time
}

type EntitlementService interface {
	// ActiveEntitlement returns (nil, nil) when the user holds no active
	// entitlement. A failing ledger read always comes back as an error
	// wrapping ErrLedgerUnavailable — never as a false "not purchased".
	ActiveEntitlement(ctx context.Context, userID, courseID uuid.UUID) (*types.Entitlement, error)
	// ConfirmPurchase is idempotent; the bool reports whether a new
	// entitlement was actually created by this call.
	ConfirmPurchase(ctx context.Context, conf PurchaseConfirmation) (*types.Entitlement, bool, error)
	RevokeEntitlement(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Entitlement, error)
}

type entitlementService struct {
	db              *gorm.DB
	log             *logger.Logger
	entitlementRepo repos.EntitlementRepo
	readTimeout     time.Duration
}

func NewEntitlementService(
	db *gorm.DB,
	log *logger.Logger,
	entitlementRepo repos.EntitlementRepo,
	readTimeout time.Duration,
) EntitlementService {
	if readTimeout <= 0 {
		readTimeout = 3 * time.Second
	}
	return &entitlementService{
		db:              db,
		log:             log.With("service", "EntitlementService"),
		entitlementRepo: entitlementRepo,
		readTimeout:     readTimeout,
	}
}

func (s *entitlementService) ActiveEntitlement(ctx context.Context, userID, courseID uuid.UUID) (*types.Entitlement, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	ent, err := s.entitlementRepo.GetActive(ctx, nil, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return ent, nil
}

func (s *entitlementService) ConfirmPurchase(ctx context.Context, conf PurchaseConfirmation) (*types.Entitlement, bool, error) {
	// The active-row upsert alone is not enough for replays: after a
	// revocation there is no active row left to conflict with, so a replayed
	// event would silently re-grant. The purchase ref closes that hole.
	if conf.EventID != "" {
		seen, err := s.entitlementRepo.CountByPurchaseRef(ctx, nil, conf.EventID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		if seen > 0 {
			s.log.Info("purchase event already applied",
				"event_id", conf.EventID,
				"user_id", conf.UserID,
				"course_id", conf.CourseID,
			)
			existing, err := s.entitlementRepo.GetActive(ctx, nil, conf.UserID, conf.CourseID)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
			}
			return existing, false, nil
		}
	}

	grantedAt := conf.ConfirmedAt
	if grantedAt.IsZero() {
		grantedAt = time.Now().UTC()
	}
	row := &types.Entitlement{
		ID:                  uuid.New(),
		UserID:              conf.UserID,
		CourseID:            conf.CourseID,
		BoundVersion:        conf.VersionNumber,
		AllowVersionUpgrade: conf.AllowVersionUpgrade,
		PurchaseRef:         conf.EventID,
		GrantedAt:           grantedAt,
	}

	created, err := s.entitlementRepo.UpsertActive(ctx, nil, row)
	if err != nil {
		return nil, false, fmt.Errorf("confirm purchase %q: %w", conf.EventID, err)
	}
	if !created {
		s.log.Info("duplicate purchase confirmation ignored",
			"event_id", conf.EventID,
			"user_id", conf.UserID,
			"course_id", conf.CourseID,
		)
		existing, err := s.entitlementRepo.GetActive(ctx, nil, conf.UserID, conf.CourseID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		return existing, false, nil
	}

	s.log.Info("entitlement granted",
		"event_id", conf.EventID,
		"user_id", conf.UserID,
		"course_id", conf.CourseID,
		"bound_version", conf.VersionNumber,
	)
	return row, true, nil
}

func (s *entitlementService) RevokeEntitlement(ctx context.Context, id uuid.UUID) error {
	affected, err := s.entitlementRepo.Revoke(ctx, nil, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke entitlement %s: %w", id, err)
	}
	if affected == 0 {
		s.log.Warn("revoke affected no rows (already revoked or unknown id)", "entitlement_id", id)
	}
	return nil
}

func (s *entitlementService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Entitlement, error) {
	rows, err := s.entitlementRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return rows, nil
}
