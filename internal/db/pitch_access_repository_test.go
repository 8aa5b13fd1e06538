package db

import (
	"errors"
	"testing"
	"time"

	"github.com/creait/portal/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedPitchAccess(t *testing.T, repo *PitchAccessRepository, slug string, expiresAt time.Time) models.PitchAccess {
	t.Helper()

	access := models.PitchAccess{
		ID:           uuid.NewString(),
		ResourceSlug: slug,
		TokenHash:    "hash-" + uuid.NewString(),
		IssuedBy:     "subject-issuer",
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    expiresAt,
	}
	if err := repo.Create(&access); err != nil {
		t.Fatalf("create pitch access: %v", err)
	}
	return access
}

func TestPitchAccessRepository_RevokeIsIdempotentAndSticky(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	access := seedPitchAccess(t, repos.PitchAccess, "series-a", time.Now().Add(24*time.Hour))

	if err := repos.PitchAccess.Revoke(access.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := repos.PitchAccess.Revoke(access.ID); err != nil {
		t.Fatalf("second revoke must succeed: %v", err)
	}

	reloaded, err := repos.PitchAccess.FindByID(access.ID)
	if err != nil {
		t.Fatalf("reload access: %v", err)
	}
	if !reloaded.Revoked {
		t.Fatal("expected access to stay revoked")
	}

	if err := repos.PitchAccess.Revoke("missing-id"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("revoke of unknown id error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestPitchAccessRepository_ExtendExpiryOnlyMovesForward(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	expiresAt := time.Now().Add(24 * time.Hour).UTC()
	access := seedPitchAccess(t, repos.PitchAccess, "series-a", expiresAt)

	if err := repos.PitchAccess.ExtendExpiry(access.ID, expiresAt.Add(-time.Hour)); !errors.Is(err, ErrExtendNotForward) {
		t.Fatalf("backward extend error = %v, want ErrExtendNotForward", err)
	}
	if err := repos.PitchAccess.ExtendExpiry(access.ID, expiresAt); !errors.Is(err, ErrExtendNotForward) {
		t.Fatalf("same-instant extend error = %v, want ErrExtendNotForward", err)
	}

	newExpiry := expiresAt.Add(72 * time.Hour)
	if err := repos.PitchAccess.ExtendExpiry(access.ID, newExpiry); err != nil {
		t.Fatalf("forward extend: %v", err)
	}

	reloaded, err := repos.PitchAccess.FindByID(access.ID)
	if err != nil {
		t.Fatalf("reload access: %v", err)
	}
	if reloaded.ExpiresAt.UTC().Unix() != newExpiry.Unix() {
		t.Fatalf("expires_at = %v, want %v", reloaded.ExpiresAt, newExpiry)
	}
}

func TestPitchAccessRepository_ExtendExpiryNeverRevivesRevokedAccess(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	access := seedPitchAccess(t, repos.PitchAccess, "series-a", time.Now().Add(24*time.Hour))

	if err := repos.PitchAccess.Revoke(access.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	err := repos.PitchAccess.ExtendExpiry(access.ID, time.Now().Add(30*24*time.Hour))
	if !errors.Is(err, ErrAccessRevoked) {
		t.Fatalf("extend of revoked access error = %v, want ErrAccessRevoked", err)
	}

	reloaded, err := repos.PitchAccess.FindByID(access.ID)
	if err != nil {
		t.Fatalf("reload access: %v", err)
	}
	if !reloaded.Revoked {
		t.Fatal("extend must not clear the revoked flag")
	}
}

func TestPitchAccessRepository_RecordAccessAppendsAndBumpsCounters(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	access := seedPitchAccess(t, repos.PitchAccess, "series-a", time.Now().Add(24*time.Hour))

	for index := 0; index < 3; index++ {
		event := models.PitchAccessEvent{
			PitchAccessID: access.ID,
			ViewedAt:      time.Now().UTC().Add(time.Duration(index) * time.Second),
			ClientIP:      "203.0.113.10",
			Username:      "avery",
			UserAgent:     "test-agent",
		}
		if err := repos.PitchAccess.RecordAccess(&event); err != nil {
			t.Fatalf("record access %d: %v", index, err)
		}
	}

	events, err := repos.PitchAccess.ListEvents(access.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("event count = %d, want 3", len(events))
	}
	for index := 1; index < len(events); index++ {
		if events[index].ViewedAt.Before(events[index-1].ViewedAt) {
			t.Fatal("events must come back in append order")
		}
	}

	reloaded, err := repos.PitchAccess.FindByID(access.ID)
	if err != nil {
		t.Fatalf("reload access: %v", err)
	}
	if reloaded.ViewCount != 3 {
		t.Fatalf("view count = %d, want 3", reloaded.ViewCount)
	}
	if reloaded.LastViewedAt == nil {
		t.Fatal("expected last_viewed_at to be set")
	}
}

func TestPitchAccessRepository_RecordAccessRefusesDeadRecords(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))

	revoked := seedPitchAccess(t, repos.PitchAccess, "series-a", time.Now().Add(24*time.Hour))
	if err := repos.PitchAccess.Revoke(revoked.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	err := repos.PitchAccess.RecordAccess(&models.PitchAccessEvent{
		PitchAccessID: revoked.ID,
		ViewedAt:      time.Now().UTC(),
	})
	if !errors.Is(err, ErrAccessRevoked) {
		t.Fatalf("record on revoked access error = %v, want ErrAccessRevoked", err)
	}

	expired := seedPitchAccess(t, repos.PitchAccess, "series-b", time.Now().Add(-time.Hour))
	err = repos.PitchAccess.RecordAccess(&models.PitchAccessEvent{
		PitchAccessID: expired.ID,
		ViewedAt:      time.Now().UTC(),
	})
	if !errors.Is(err, ErrAccessExpired) {
		t.Fatalf("record on expired access error = %v, want ErrAccessExpired", err)
	}

	for _, access := range []models.PitchAccess{revoked, expired} {
		events, err := repos.PitchAccess.ListEvents(access.ID)
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(events) != 0 {
			t.Fatalf("refused record must not append events, got %d", len(events))
		}
		reloaded, err := repos.PitchAccess.FindByID(access.ID)
		if err != nil {
			t.Fatalf("reload access: %v", err)
		}
		if reloaded.ViewCount != 0 {
			t.Fatalf("view count = %d, want 0 after refused record", reloaded.ViewCount)
		}
	}
}

func TestPitchAccessRepository_ListFiltersBySlugAndIssuer(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	first := seedPitchAccess(t, repos.PitchAccess, "series-a", time.Now().Add(24*time.Hour))
	seedPitchAccess(t, repos.PitchAccess, "series-b", time.Now().Add(24*time.Hour))

	bySlug, err := repos.PitchAccess.List(PitchAccessFilter{ResourceSlug: "series-a"})
	if err != nil {
		t.Fatalf("list by slug: %v", err)
	}
	if len(bySlug) != 1 || bySlug[0].ID != first.ID {
		t.Fatalf("list by slug returned %d records", len(bySlug))
	}

	byIssuer, err := repos.PitchAccess.List(PitchAccessFilter{IssuedBy: "subject-issuer"})
	if err != nil {
		t.Fatalf("list by issuer: %v", err)
	}
	if len(byIssuer) != 2 {
		t.Fatalf("list by issuer returned %d records, want 2", len(byIssuer))
	}

	byOther, err := repos.PitchAccess.List(PitchAccessFilter{IssuedBy: "someone-else"})
	if err != nil {
		t.Fatalf("list by other issuer: %v", err)
	}
	if len(byOther) != 0 {
		t.Fatalf("list by other issuer returned %d records, want 0", len(byOther))
	}
}
