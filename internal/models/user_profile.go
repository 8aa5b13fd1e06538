package models

import "time"

// UserProfile mirrors one identity-provider subject. Profiles are
// provisioned out of band by an owner; this subsystem only reads them and
// bumps LastLoginAt.
type UserProfile struct {
	SubjectID   string    `gorm:"primaryKey"`
	Email       string    `gorm:"uniqueIndex;not null"`
	Role        string    `gorm:"not null"`
	Name        string    `gorm:"not null;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
	LastLoginAt *time.Time
}
