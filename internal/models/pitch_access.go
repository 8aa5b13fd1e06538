package models

import "time"

// PitchAccess is one outbound sharing link for a confidential deck. The
// bearer token itself is never persisted; TokenHash holds its SHA-256.
// The record survives revocation and expiry so the audit trail stays
// complete.
type PitchAccess struct {
	ID           string `gorm:"primaryKey"`
	ResourceSlug string `gorm:"index;not null"`
	TokenHash    string `gorm:"uniqueIndex;not null"`
	// UsernameGateHash is empty when the link has no gate; otherwise it
	// holds a bcrypt hash of the shared secret handed to the recipient.
	UsernameGateHash string `gorm:"not null;default:''"`

	RecipientName    string `gorm:"not null;default:''"`
	RecipientCompany string `gorm:"not null;default:''"`
	Notes            string `gorm:"not null;default:''"`
	IssuedBy         string `gorm:"index;not null"`

	CreatedAt    time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null"`
	Revoked      bool      `gorm:"not null;default:false"`
	ViewCount    int       `gorm:"not null;default:0"`
	LastViewedAt *time.Time
}

func (access *PitchAccess) Expired(now time.Time) bool {
	return now.After(access.ExpiresAt)
}

func (access *PitchAccess) HasUsernameGate() bool {
	return access.UsernameGateHash != ""
}

// PitchAccessEvent is one row of the append-only access log. Events are
// written on every successful validation and never updated or deleted.
type PitchAccessEvent struct {
	ID            uint      `gorm:"primaryKey"`
	PitchAccessID string    `gorm:"index;not null"`
	ViewedAt      time.Time `gorm:"not null"`
	ClientIP      string    `gorm:"not null;default:''"`
	Username      string    `gorm:"not null;default:''"`
	UserAgent     string    `gorm:"not null;default:''"`
}
