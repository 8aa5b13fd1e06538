package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/creait/portal/internal/models"
	"github.com/creait/portal/internal/security"
	"gorm.io/gorm"
)

// DefaultSessionTTL bounds a session that the identity provider did not
// bound more tightly itself.
const DefaultSessionTTL = 7 * 24 * time.Hour

type SessionStore interface {
	Create(session *models.Session) error
	FindBySecretHash(secretHash string) (models.Session, error)
	DeleteBySecretHash(secretHash string) error
	DeleteBySubjectID(subjectID string) error
	DeleteExpiredBefore(cutoff time.Time) (int64, error)
}

type SessionProfileStore interface {
	FindBySubjectID(subjectID string) (models.UserProfile, error)
	TouchLastLogin(subjectID string, when time.Time) error
}

// SessionService turns a verified identity into a server-side session
// record and an opaque cookie secret, and validates that secret on later
// requests. The secret is stored only as a SHA-256 hash, so a copy of
// the store does not yield usable cookies.
type SessionService struct {
	sessions SessionStore
	profiles SessionProfileStore
	now      func() time.Time
}

func NewSessionService(sessions SessionStore, profiles SessionProfileStore) *SessionService {
	return &SessionService{
		sessions: sessions,
		profiles: profiles,
		now:      time.Now,
	}
}

// AuthenticatedSubject is what a valid session resolves to: the profile
// as stored right now, with the role re-read on every validation.
type AuthenticatedSubject struct {
	Profile models.UserProfile
	Role    models.Role
}

// Create issues a session for a subject the Identity Verifier already
// vouched for. identityExpiresAt caps the session at the backing
// identity token's own lifetime; a session never silently outlives the
// proof it was built on.
func (service *SessionService) Create(subjectID string, identityExpiresAt time.Time) (string, models.Session, error) {
	profile, err := service.profiles.FindBySubjectID(subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.Session{}, ErrNotProvisioned
		}
		return "", models.Session{}, fmt.Errorf("load profile: %w", err)
	}
	if _, err := models.ParseRole(profile.Role); err != nil {
		return "", models.Session{}, fmt.Errorf("%w: %v", ErrNotProvisioned, err)
	}

	secret, err := security.NewToken()
	if err != nil {
		return "", models.Session{}, fmt.Errorf("generate session secret: %w", err)
	}

	now := service.now()
	expiresAt := now.Add(DefaultSessionTTL)
	if !identityExpiresAt.IsZero() && identityExpiresAt.Before(expiresAt) {
		expiresAt = identityExpiresAt
	}
	if !expiresAt.After(now) {
		return "", models.Session{}, ErrAuthenticationFailed
	}

	session := models.Session{
		SecretHash: security.HashToken(secret),
		SubjectID:  subjectID,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
	}
	if err := service.sessions.Create(&session); err != nil {
		return "", models.Session{}, fmt.Errorf("persist session: %w", err)
	}

	if err := service.profiles.TouchLastLogin(subjectID, now); err != nil {
		return "", models.Session{}, fmt.Errorf("touch last login: %w", err)
	}

	return secret, session, nil
}

// Validate resolves a cookie secret back to a subject. The session
// record, its expiry, and the subject's current role are all re-derived
// from the store on every call; a deleted record or a deprovisioned
// profile fails immediately. Every failure is the same
// ErrAuthenticationFailed to the caller.
func (service *SessionService) Validate(secret string) (AuthenticatedSubject, error) {
	if secret == "" {
		return AuthenticatedSubject{}, ErrAuthenticationFailed
	}

	session, err := service.sessions.FindBySecretHash(security.HashToken(secret))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthenticatedSubject{}, ErrAuthenticationFailed
		}
		return AuthenticatedSubject{}, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(service.now()) {
		// Expired records are dead weight; drop them on sight.
		_ = service.sessions.DeleteBySecretHash(session.SecretHash)
		return AuthenticatedSubject{}, ErrAuthenticationFailed
	}

	profile, err := service.profiles.FindBySubjectID(session.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthenticatedSubject{}, ErrAuthenticationFailed
		}
		return AuthenticatedSubject{}, fmt.Errorf("load profile: %w", err)
	}

	role, err := models.ParseRole(profile.Role)
	if err != nil {
		return AuthenticatedSubject{}, ErrAuthenticationFailed
	}

	return AuthenticatedSubject{Profile: profile, Role: role}, nil
}

// Destroy deletes the server-side record for a cookie secret. It is
// idempotent and never reports whether the secret was valid; once it
// returns, the secret can never validate again.
func (service *SessionService) Destroy(secret string) error {
	if secret == "" {
		return nil
	}
	if err := service.sessions.DeleteBySecretHash(security.HashToken(secret)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DestroyAll deletes every session a subject holds, across all devices.
func (service *SessionService) DestroyAll(subjectID string) error {
	if subjectID == "" {
		return nil
	}
	if err := service.sessions.DeleteBySubjectID(subjectID); err != nil {
		return fmt.Errorf("delete sessions for subject: %w", err)
	}
	return nil
}

// PurgeExpired clears out session records whose expiry has passed.
// Validation never trusts a record's presence alone, so this is
// housekeeping, not enforcement.
func (service *SessionService) PurgeExpired() (int64, error) {
	purged, err := service.sessions.DeleteExpiredBefore(service.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return purged, nil
}
