package db

import "gorm.io/gorm"

type Repositories struct {
	Profiles    *ProfileRepository
	Sessions    *SessionRepository
	PitchAccess *PitchAccessRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Profiles:    NewProfileRepository(database),
		Sessions:    NewSessionRepository(database),
		PitchAccess: NewPitchAccessRepository(database),
	}
}
