package api

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/creait/portal/internal/db"
	"github.com/creait/portal/internal/identity"
	"github.com/creait/portal/internal/models"
	"github.com/creait/portal/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// fakeVerifier stands in for the identity provider in endpoint tests.
// Tokens and email/password pairs map straight to subject ids; Err, when
// set, is returned for every call.
type fakeVerifier struct {
	Tokens    map[string]identity.Verified
	Passwords map[string]identity.Verified
	Err       error
}

func (fake *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (identity.Verified, error) {
	if fake.Err != nil {
		return identity.Verified{}, fake.Err
	}
	verified, ok := fake.Tokens[idToken]
	if !ok {
		return identity.Verified{}, identity.ErrInvalidCredential
	}
	return verified, nil
}

func (fake *fakeVerifier) VerifyPassword(_ context.Context, email string, secret string) (identity.Verified, error) {
	if fake.Err != nil {
		return identity.Verified{}, fake.Err
	}
	verified, ok := fake.Passwords[email+":"+secret]
	if !ok {
		return identity.Verified{}, identity.ErrInvalidCredential
	}
	return verified, nil
}

func newTestApp(t *testing.T, verifier identity.Verifier) (*fiber.App, *db.Repositories) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "portal-api-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	repos := db.NewRepositories(database)
	sessions := services.NewSessionService(repos.Sessions, repos.Profiles)
	pitches := services.NewPitchService(repos.PitchAccess)
	authorizer := services.NewAuthorizer(repos.Profiles)

	handler := NewHandler(verifier, sessions, pitches, authorizer, zerolog.Nop(), false)

	app := fiber.New()
	RegisterRoutes(app, handler)
	return app, repos
}

func createTestProfile(t *testing.T, repos *db.Repositories, subjectID string, role models.Role) models.UserProfile {
	t.Helper()

	profile := models.UserProfile{
		SubjectID: subjectID,
		Email:     subjectID + "@example.com",
		Role:      string(role),
		CreatedAt: time.Now().UTC(),
	}
	if err := repos.Profiles.Create(&profile); err != nil {
		t.Fatalf("create profile %s: %v", subjectID, err)
	}
	return profile
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
