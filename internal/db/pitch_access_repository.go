package db

import (
	"errors"
	"time"

	"github.com/creait/portal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrExtendNotForward = errors.New("new expiry is not later than the current one")
	ErrAccessRevoked    = errors.New("pitch access is revoked")
	ErrAccessExpired    = errors.New("pitch access is expired")
)

type PitchAccessRepository struct {
	database *gorm.DB
}

func NewPitchAccessRepository(database *gorm.DB) *PitchAccessRepository {
	return &PitchAccessRepository{database: database}
}

func (repo *PitchAccessRepository) Create(access *models.PitchAccess) error {
	return repo.database.Create(access).Error
}

func (repo *PitchAccessRepository) FindByID(pitchAccessID string) (models.PitchAccess, error) {
	var access models.PitchAccess
	if err := repo.database.Where("id = ?", pitchAccessID).First(&access).Error; err != nil {
		return models.PitchAccess{}, err
	}
	return access, nil
}

// ListByResourceSlug returns every access record for one resource, newest
// first. The validator iterates these fresh on each attempt; nothing is
// cached between requests.
func (repo *PitchAccessRepository) ListByResourceSlug(resourceSlug string) ([]models.PitchAccess, error) {
	accesses := make([]models.PitchAccess, 0)
	if err := repo.database.
		Where("resource_slug = ?", resourceSlug).
		Order("created_at DESC, id DESC").
		Find(&accesses).Error; err != nil {
		return nil, err
	}
	return accesses, nil
}

type PitchAccessFilter struct {
	ResourceSlug string
	IssuedBy     string
}

func (repo *PitchAccessRepository) List(filter PitchAccessFilter) ([]models.PitchAccess, error) {
	query := repo.database.Model(&models.PitchAccess{})
	if filter.ResourceSlug != "" {
		query = query.Where("resource_slug = ?", filter.ResourceSlug)
	}
	if filter.IssuedBy != "" {
		query = query.Where("issued_by = ?", filter.IssuedBy)
	}

	accesses := make([]models.PitchAccess, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&accesses).Error; err != nil {
		return nil, err
	}
	return accesses, nil
}

// Revoke flips the revoked flag. The write is unconditional and
// idempotent; once committed, every later validation read observes it.
func (repo *PitchAccessRepository) Revoke(pitchAccessID string) error {
	result := repo.database.Model(&models.PitchAccess{}).
		Where("id = ?", pitchAccessID).
		Update("revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExtendExpiry moves a record's expiry strictly forward. The guard runs
// inside the update itself so a concurrent extend cannot slip an earlier
// deadline past a stale read, and a revoked record is never touched.
func (repo *PitchAccessRepository) ExtendExpiry(pitchAccessID string, newExpiresAt time.Time) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		var access models.PitchAccess
		if err := tx.Where("id = ?", pitchAccessID).First(&access).Error; err != nil {
			return err
		}
		if access.Revoked {
			return ErrAccessRevoked
		}
		if !newExpiresAt.After(access.ExpiresAt) {
			return ErrExtendNotForward
		}

		result := tx.Model(&models.PitchAccess{}).
			Where("id = ? AND revoked = ? AND expires_at < ?", pitchAccessID, false, newExpiresAt).
			Update("expires_at", newExpiresAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrExtendNotForward
		}
		return nil
	})
}

// RecordAccess appends one access-log event and bumps the view counters
// in the same transaction. The record is re-read inside the transaction
// and the write refused if it is revoked or expired, so a revoke that
// committed after the caller's own read still denies the grant. Events
// are append-only; nothing ever updates or deletes them.
func (repo *PitchAccessRepository) RecordAccess(event *models.PitchAccessEvent) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		var access models.PitchAccess
		if err := tx.Where("id = ?", event.PitchAccessID).First(&access).Error; err != nil {
			return err
		}
		if access.Revoked {
			return ErrAccessRevoked
		}
		if access.Expired(event.ViewedAt) {
			return ErrAccessExpired
		}

		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return tx.Model(&models.PitchAccess{}).
			Where("id = ?", event.PitchAccessID).
			Updates(map[string]any{
				"view_count":     gorm.Expr("view_count + 1"),
				"last_viewed_at": event.ViewedAt,
			}).Error
	})
}

func (repo *PitchAccessRepository) ListEvents(pitchAccessID string) ([]models.PitchAccessEvent, error) {
	events := make([]models.PitchAccessEvent, 0)
	if err := repo.database.
		Where("pitch_access_id = ?", pitchAccessID).
		Order("viewed_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
