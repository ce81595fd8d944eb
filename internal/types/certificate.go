package types

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is issued once on course completion. VerificationHash covers
// the displayed fields; the fields and the hash are co-owned, so any edit to
// the fields without regenerating the hash makes verification fail.
type Certificate struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Serial           string    `gorm:"column:serial;uniqueIndex;not null" json:"serial"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID         uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course           *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	StudentName      string    `gorm:"column:student_name;not null" json:"student_name"`
	CourseTitle      string    `gorm:"column:course_title;not null" json:"course_title"`
	CompletedAt      time.Time `gorm:"column:completed_at;not null" json:"completed_at"`
	CompletedLessons int       `gorm:"column:completed_lessons;not null" json:"completed_lessons"`
	TotalLessons     int       `gorm:"column:total_lessons;not null" json:"total_lessons"`
	PlatformName     string    `gorm:"column:platform_name;not null" json:"platform_name"`
	VerificationHash string    `gorm:"column:verification_hash;not null" json:"verification_hash"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Certificate) TableName() string { return "certificate" }
