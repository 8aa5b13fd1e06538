package db

import (
	"time"

	"github.com/creait/portal/internal/models"
	"gorm.io/gorm"
)

type SessionRepository struct {
	database *gorm.DB
}

func NewSessionRepository(database *gorm.DB) *SessionRepository {
	return &SessionRepository{database: database}
}

func (repo *SessionRepository) Create(session *models.Session) error {
	return repo.database.Create(session).Error
}

func (repo *SessionRepository) FindBySecretHash(secretHash string) (models.Session, error) {
	var session models.Session
	if err := repo.database.Where("secret_hash = ?", secretHash).First(&session).Error; err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// DeleteBySecretHash removes a session record. Deleting a hash that no
// longer exists is not an error; logout is idempotent.
func (repo *SessionRepository) DeleteBySecretHash(secretHash string) error {
	return repo.database.Where("secret_hash = ?", secretHash).Delete(&models.Session{}).Error
}

func (repo *SessionRepository) DeleteBySubjectID(subjectID string) error {
	return repo.database.Where("subject_id = ?", subjectID).Delete(&models.Session{}).Error
}

// DeleteExpiredBefore clears out records whose expiry has already passed.
// Validation never trusts a record's presence alone, so this is purely a
// housekeeping call.
func (repo *SessionRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	result := repo.database.Where("expires_at < ?", cutoff).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
