package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/creait/portal/internal/db"
	"github.com/creait/portal/internal/models"
)

// Audit and revocation surface. Owners manage every link; team members
// manage only the links they issued themselves. Everyone else is denied
// outright.

func canManageAll(role models.Role) bool {
	return role.AtLeast(models.RoleOwner)
}

func canManageOwn(role models.Role) bool {
	return role.AtLeast(models.RoleTeam)
}

// loadManaged fetches a record and answers whether the subject may
// operate on it, in one step, so every admin operation shares the same
// authorization path.
func (service *PitchService) loadManaged(subjectID string, role models.Role, pitchAccessID string) (models.PitchAccess, error) {
	if !canManageOwn(role) {
		return models.PitchAccess{}, ErrAuthorizationDenied
	}

	access, err := service.accesses.FindByID(pitchAccessID)
	if err != nil {
		return models.PitchAccess{}, mapStoreError(err)
	}

	if !canManageAll(role) && access.IssuedBy != subjectID {
		return models.PitchAccess{}, ErrAuthorizationDenied
	}
	return access, nil
}

// List returns the links a subject is entitled to see: owners see all
// (optionally filtered by resource), team members see their own.
func (service *PitchService) List(subjectID string, role models.Role, resourceSlug string) ([]models.PitchAccess, error) {
	filter := db.PitchAccessFilter{ResourceSlug: strings.TrimSpace(resourceSlug)}
	switch {
	case canManageAll(role):
		// no issuer restriction
	case canManageOwn(role):
		filter.IssuedBy = subjectID
	default:
		return nil, ErrAuthorizationDenied
	}

	accesses, err := service.accesses.List(filter)
	if err != nil {
		return nil, fmt.Errorf("list pitch accesses: %w", err)
	}
	return accesses, nil
}

// Extend moves a link's expiry strictly forward, never past the issue
// cap, and never on a revoked link. Revocation wins over extension.
func (service *PitchService) Extend(subjectID string, role models.Role, pitchAccessID string, newExpiresAt time.Time) (models.PitchAccess, error) {
	if _, err := service.loadManaged(subjectID, role, pitchAccessID); err != nil {
		return models.PitchAccess{}, err
	}

	maxExpiresAt := service.now().AddDate(0, 0, MaxExpiryDays)
	if newExpiresAt.After(maxExpiresAt) {
		return models.PitchAccess{}, errExpiryDaysOutOfRange
	}

	if err := service.accesses.ExtendExpiry(pitchAccessID, newExpiresAt); err != nil {
		return models.PitchAccess{}, mapStoreError(err)
	}

	access, err := service.accesses.FindByID(pitchAccessID)
	if err != nil {
		return models.PitchAccess{}, mapStoreError(err)
	}
	return access, nil
}

// Revoke kills a link immediately and irreversibly. Validation always
// reads the store, so the next validate call after this returns already
// observes the flag; re-sharing means issuing a fresh link.
func (service *PitchService) Revoke(subjectID string, role models.Role, pitchAccessID string) error {
	if _, err := service.loadManaged(subjectID, role, pitchAccessID); err != nil {
		return err
	}
	if err := service.accesses.Revoke(pitchAccessID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// AccessLog returns the append-only view history for one link.
func (service *PitchService) AccessLog(subjectID string, role models.Role, pitchAccessID string) ([]models.PitchAccessEvent, error) {
	if _, err := service.loadManaged(subjectID, role, pitchAccessID); err != nil {
		return nil, err
	}
	events, err := service.accesses.ListEvents(pitchAccessID)
	if err != nil {
		return nil, fmt.Errorf("list pitch access events: %w", err)
	}
	return events, nil
}
