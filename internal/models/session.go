package models

import "time"

// Session is the server-side record behind one auth cookie. Only the
// SHA-256 of the cookie secret is stored; deleting the row is revocation.
type Session struct {
	ID         uint      `gorm:"primaryKey"`
	SecretHash string    `gorm:"uniqueIndex;not null"`
	SubjectID  string    `gorm:"index;not null"`
	IssuedAt   time.Time `gorm:"not null"`
	// ExpiresAt is already capped at the backing identity token's own
	// expiry when the session is created.
	ExpiresAt time.Time `gorm:"not null"`
}

func (session *Session) Expired(now time.Time) bool {
	return now.After(session.ExpiresAt)
}
