package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	VersionStatusDraft     = "draft"
	VersionStatusPublished = "published"
	VersionStatusArchived  = "archived"
)

// CourseVersion is an append-only snapshot of a course's content. Once
// published it is never mutated; corrections create a new version with a
// higher version number.
type CourseVersion struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_course_version,priority:1" json:"course_id"`
	Course        *Course    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	VersionNumber int        `gorm:"column:version_number;not null;uniqueIndex:idx_course_version,priority:2" json:"version_number"`
	Status        string     `gorm:"column:status;not null;default:'draft';index" json:"status"`
	Changelog     string     `gorm:"column:changelog" json:"changelog"`
	PublishedAt   *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (CourseVersion) TableName() string { return "course_version" }
