package services

import (
	"errors"
	"fmt"

	"github.com/creait/portal/internal/models"
	"gorm.io/gorm"
)

type ProfileStore interface {
	FindBySubjectID(subjectID string) (models.UserProfile, error)
}

// Authorizer resolves a subject to its role. Every call reads the
// profile store fresh; a role change takes effect on the next check, not
// at the end of some cached session lifetime.
type Authorizer struct {
	profiles ProfileStore
}

func NewAuthorizer(profiles ProfileStore) *Authorizer {
	return &Authorizer{profiles: profiles}
}

// ResolveRole returns the stored role for a subject. Missing profiles
// and profiles carrying an unrecognized role value both come back as
// ErrNotProvisioned; neither ever falls back to a default role.
func (authorizer *Authorizer) ResolveRole(subjectID string) (models.Role, error) {
	profile, err := authorizer.profiles.FindBySubjectID(subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotProvisioned
		}
		return "", fmt.Errorf("resolve role for subject: %w", err)
	}

	role, err := models.ParseRole(profile.Role)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotProvisioned, err)
	}
	return role, nil
}

// RequireAtLeast resolves the subject's role and checks it against the
// gate in one step.
func (authorizer *Authorizer) RequireAtLeast(subjectID string, required models.Role) (models.Role, error) {
	role, err := authorizer.ResolveRole(subjectID)
	if err != nil {
		return "", err
	}
	if !role.AtLeast(required) {
		return role, ErrAuthorizationDenied
	}
	return role, nil
}
