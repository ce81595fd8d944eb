package types

import (
	"time"

	"github.com/google/uuid"
)

// Video is one addressable unit of course content. Rows belong to exactly one
// course version and are immutable once that version is published; a new
// version gets its own rows rather than edits to these.
type Video struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	CourseVersionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_version_id"`
	CourseVersion   *CourseVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseVersionID;references:ID" json:"course_version,omitempty"`
	VersionNumber   int            `gorm:"column:version_number;not null" json:"version_number"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	StorageKey      string         `gorm:"column:storage_key;index" json:"-"`
	FreePreview     bool           `gorm:"column:free_preview;not null;default:false" json:"free_preview"`
	Position        int            `gorm:"column:position;not null" json:"position"`
	DurationSeconds int            `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Video) TableName() string { return "video" }
