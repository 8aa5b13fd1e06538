package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creait/portal/internal/db"
	"github.com/creait/portal/internal/models"
	"github.com/creait/portal/internal/security"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// Grants must be bounded: at least one day, at most a quarter.
	MinExpiryDays = 1
	MaxExpiryDays = 90
)

var (
	errResourceSlugRequired = errors.New("resource slug is required")
	errExpiryDaysOutOfRange = fmt.Errorf("expiry days must be between %d and %d", MinExpiryDays, MaxExpiryDays)
)

type PitchAccessStore interface {
	Create(access *models.PitchAccess) error
	FindByID(pitchAccessID string) (models.PitchAccess, error)
	ListByResourceSlug(resourceSlug string) ([]models.PitchAccess, error)
	List(filter db.PitchAccessFilter) ([]models.PitchAccess, error)
	Revoke(pitchAccessID string) error
	ExtendExpiry(pitchAccessID string, newExpiresAt time.Time) error
	RecordAccess(event *models.PitchAccessEvent) error
	ListEvents(pitchAccessID string) ([]models.PitchAccessEvent, error)
}

// PitchService issues and validates account-free sharing links for
// confidential decks, and exposes the owner-side audit surface. Sharing
// links and sessions are disjoint credential spaces: a Grant from here
// never carries any session-level privilege.
type PitchService struct {
	accesses PitchAccessStore
	now      func() time.Time
}

func NewPitchService(accesses PitchAccessStore) *PitchService {
	return &PitchService{
		accesses: accesses,
		now:      time.Now,
	}
}

type IssueInput struct {
	ResourceSlug     string
	ExpiryDays       int
	UsernameGate     string
	RecipientName    string
	RecipientCompany string
	Notes            string
}

// IssuedAccess carries the plaintext token exactly once. It is not
// stored anywhere; a lost link means issuing a new one.
type IssuedAccess struct {
	PitchAccessID string
	ResourceSlug  string
	Token         string
	ExpiresAt     time.Time
}

// Issue mints a new sharing link. Restricted to team and above; the
// issuer is recorded so team members can audit their own links later.
func (service *PitchService) Issue(issuerSubjectID string, issuerRole models.Role, input IssueInput) (IssuedAccess, error) {
	if !issuerRole.AtLeast(models.RoleTeam) {
		return IssuedAccess{}, ErrAuthorizationDenied
	}

	slug := strings.TrimSpace(input.ResourceSlug)
	if slug == "" {
		return IssuedAccess{}, errResourceSlugRequired
	}
	if input.ExpiryDays < MinExpiryDays || input.ExpiryDays > MaxExpiryDays {
		return IssuedAccess{}, errExpiryDaysOutOfRange
	}

	token, err := security.NewToken()
	if err != nil {
		return IssuedAccess{}, fmt.Errorf("generate pitch token: %w", err)
	}

	gateHash := ""
	if gate := strings.TrimSpace(input.UsernameGate); gate != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(gate), bcrypt.DefaultCost)
		if err != nil {
			return IssuedAccess{}, fmt.Errorf("hash username gate: %w", err)
		}
		gateHash = string(hashed)
	}

	now := service.now()
	access := models.PitchAccess{
		ID:               uuid.NewString(),
		ResourceSlug:     slug,
		TokenHash:        security.HashToken(token),
		UsernameGateHash: gateHash,
		RecipientName:    strings.TrimSpace(input.RecipientName),
		RecipientCompany: strings.TrimSpace(input.RecipientCompany),
		Notes:            strings.TrimSpace(input.Notes),
		IssuedBy:         issuerSubjectID,
		CreatedAt:        now,
		ExpiresAt:        now.AddDate(0, 0, input.ExpiryDays),
	}
	if err := service.accesses.Create(&access); err != nil {
		return IssuedAccess{}, fmt.Errorf("persist pitch access: %w", err)
	}

	return IssuedAccess{
		PitchAccessID: access.ID,
		ResourceSlug:  slug,
		Token:         token,
		ExpiresAt:     access.ExpiresAt,
	}, nil
}

// Grant is the result of a successful validation, scoped to exactly one
// resource.
type Grant struct {
	PitchAccessID string
	ResourceSlug  string
	RecipientName string
	ExpiresAt     time.Time
}

type AccessAttempt struct {
	ClientIP  string
	UserAgent string
}

// Validate checks a presented link against the store, freshly, on every
// attempt. Each step is a fail-closed exit with its own internal reason;
// callers surface all of them as one generic denial. On success the
// attempt is appended to the access log before the Grant is returned.
func (service *PitchService) Validate(resourceSlug string, presentedToken string, presentedUsername string, attempt AccessAttempt) (Grant, error) {
	slug := strings.TrimSpace(resourceSlug)
	presentedToken = strings.TrimSpace(presentedToken)
	if slug == "" || presentedToken == "" {
		return Grant{}, ErrTokenInvalid
	}

	candidates, err := service.accesses.ListByResourceSlug(slug)
	if err != nil {
		return Grant{}, fmt.Errorf("load pitch accesses: %w", err)
	}

	presentedHash := security.HashToken(presentedToken)
	var access *models.PitchAccess
	for index := range candidates {
		if security.HashEqual(candidates[index].TokenHash, presentedHash) {
			access = &candidates[index]
			break
		}
	}
	if access == nil {
		return Grant{}, ErrTokenInvalid
	}

	if access.Revoked {
		return Grant{}, ErrTokenRevoked
	}
	if access.Expired(service.now()) {
		return Grant{}, ErrTokenExpired
	}

	if access.HasUsernameGate() {
		// Case-sensitive by choice: the gate is a shared secret handed
		// to one recipient, not a display name.
		if err := bcrypt.CompareHashAndPassword([]byte(access.UsernameGateHash), []byte(presentedUsername)); err != nil {
			return Grant{}, ErrUsernameGateMismatch
		}
	}

	event := models.PitchAccessEvent{
		PitchAccessID: access.ID,
		ViewedAt:      service.now(),
		ClientIP:      attempt.ClientIP,
		Username:      presentedUsername,
		UserAgent:     attempt.UserAgent,
	}
	// The store re-checks revocation and expiry before appending, so a
	// revoke that committed after the candidate read above still denies.
	if err := service.accesses.RecordAccess(&event); err != nil {
		switch {
		case errors.Is(err, db.ErrAccessRevoked):
			return Grant{}, ErrTokenRevoked
		case errors.Is(err, db.ErrAccessExpired):
			return Grant{}, ErrTokenExpired
		case errors.Is(err, gorm.ErrRecordNotFound):
			return Grant{}, ErrTokenInvalid
		}
		return Grant{}, fmt.Errorf("record pitch access: %w", err)
	}

	return Grant{
		PitchAccessID: access.ID,
		ResourceSlug:  access.ResourceSlug,
		RecipientName: access.RecipientName,
		ExpiresAt:     access.ExpiresAt,
	}, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrAccessNotFound
	case errors.Is(err, db.ErrExtendNotForward):
		return ErrExtendNotForward
	case errors.Is(err, db.ErrAccessRevoked):
		return ErrTokenRevoked
	default:
		return err
	}
}
