package types

import (
	"time"

	"github.com/google/uuid"
)

// Entitlement records that a user may access a course. Rows are append-only:
// a purchase creates one, revocation flips the flag, nothing is ever deleted.
// A partial unique index (created in db.AutoMigrateAll) guarantees at most one
// non-revoked row per (user_id, course_id).
type Entitlement struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;index:idx_entitlement_user_course,priority:1" json:"user_id"`
	User                *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID            uuid.UUID  `gorm:"type:uuid;not null;index:idx_entitlement_user_course,priority:2" json:"course_id"`
	Course              *Course    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	BoundVersion        *int       `gorm:"column:bound_version" json:"bound_version,omitempty"`
	AllowVersionUpgrade bool       `gorm:"column:allow_version_upgrade;not null;default:false" json:"allow_version_upgrade"`
	PurchaseRef         string     `gorm:"column:purchase_ref;index" json:"purchase_ref"`
	GrantedAt           time.Time  `gorm:"column:granted_at;not null;default:now()" json:"granted_at"`
	Revoked             bool       `gorm:"column:revoked;not null;default:false" json:"revoked"`
	RevokedAt           *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Entitlement) TableName() string { return "entitlement" }
