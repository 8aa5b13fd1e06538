package db

import (
	"time"

	"github.com/creait/portal/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	database *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{database: database}
}

func (repo *ProfileRepository) FindBySubjectID(subjectID string) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := repo.database.Where("subject_id = ?", subjectID).First(&profile).Error; err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

func (repo *ProfileRepository) Create(profile *models.UserProfile) error {
	return repo.database.Create(profile).Error
}

// UpdateRole changes a subject's role. Role edits are an out-of-band
// owner action; validation picks the new value up on the next read.
func (repo *ProfileRepository) UpdateRole(subjectID string, role string) error {
	result := repo.database.Model(&models.UserProfile{}).
		Where("subject_id = ?", subjectID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *ProfileRepository) TouchLastLogin(subjectID string, when time.Time) error {
	return repo.database.Model(&models.UserProfile{}).
		Where("subject_id = ?", subjectID).
		Update("last_login_at", when).Error
}
