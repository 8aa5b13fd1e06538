package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creait/portal/internal/identity"
	"github.com/creait/portal/internal/models"
)

func TestPitchAdmin_InvestorDeniedEverywhere(t *testing.T) {
	verifier := &fakeVerifier{
		Tokens: map[string]identity.Verified{
			"investor-token": {SubjectID: "subject-investor"},
		},
	}
	app, repos := newTestApp(t, verifier)
	createTestProfile(t, repos, "subject-investor", models.RoleInvestor)
	cookie := sessionCookieFor(t, app, "investor-token")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/pitch-access"},
		{http.MethodGet, "/api/pitch-access"},
		{http.MethodPost, "/api/pitch-access/some-id/extend"},
		{http.MethodPost, "/api/pitch-access/some-id/revoke"},
		{http.MethodGet, "/api/pitch-access/some-id/log"},
	}

	for _, route := range routes {
		request := httptest.NewRequest(route.method, route.path, strings.NewReader(`{}`))
		request.Header.Set("Content-Type", "application/json")
		request.AddCookie(cookie)
		response, err := app.Test(request, -1)
		if err != nil {
			t.Fatalf("%s %s request failed: %v", route.method, route.path, err)
		}
		response.Body.Close()
		if response.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s status = %d, want 403", route.method, route.path, response.StatusCode)
		}
	}
}

func TestPitchAdmin_AnonymousGets401(t *testing.T) {
	app, _ := newTestApp(t, &fakeVerifier{})

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/pitch-access", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", response.StatusCode)
	}
}

func TestPitchAdmin_OwnerManagesTeamIssuedLink(t *testing.T) {
	verifier := &fakeVerifier{
		Tokens: map[string]identity.Verified{
			"team-token":  {SubjectID: "subject-team"},
			"owner-token": {SubjectID: "subject-owner"},
		},
	}
	app, repos := newTestApp(t, verifier)
	createTestProfile(t, repos, "subject-team", models.RoleTeam)
	createTestProfile(t, repos, "subject-owner", models.RoleOwner)

	teamCookie := sessionCookieFor(t, app, "team-token")
	issued := issuePitchOverAPI(t, app, teamCookie,
		`{"resource_slug":"series-a-deck","expiry_days":7}`)
	accessID := fmt.Sprintf("%v", issued["pitch_access_id"])

	ownerCookie := sessionCookieFor(t, app, "owner-token")

	newExpiry := time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339)
	extend := httptest.NewRequest(http.MethodPost, "/api/pitch-access/"+accessID+"/extend",
		strings.NewReader(`{"expires_at":"`+newExpiry+`"}`))
	extend.Header.Set("Content-Type", "application/json")
	extend.AddCookie(ownerCookie)
	extendResponse, err := app.Test(extend, -1)
	if err != nil {
		t.Fatalf("extend request failed: %v", err)
	}
	if extendResponse.StatusCode != http.StatusOK {
		t.Fatalf("owner extend status = %d, want 200", extendResponse.StatusCode)
	}
	extended := decodeBody(t, extendResponse)
	if extended["pitch_access_id"] != accessID {
		t.Fatalf("extend returned access %v, want %v", extended["pitch_access_id"], accessID)
	}

	revoke := httptest.NewRequest(http.MethodPost, "/api/pitch-access/"+accessID+"/revoke", nil)
	revoke.AddCookie(ownerCookie)
	revokeResponse, err := app.Test(revoke, -1)
	if err != nil {
		t.Fatalf("revoke request failed: %v", err)
	}
	revokeResponse.Body.Close()
	if revokeResponse.StatusCode != http.StatusOK {
		t.Fatalf("owner revoke status = %d, want 200", revokeResponse.StatusCode)
	}
}

func TestPitchAdmin_TeamSeesOnlyOwnLinks(t *testing.T) {
	verifier := &fakeVerifier{
		Tokens: map[string]identity.Verified{
			"team-token":  {SubjectID: "subject-team"},
			"owner-token": {SubjectID: "subject-owner"},
		},
	}
	app, repos := newTestApp(t, verifier)
	createTestProfile(t, repos, "subject-team", models.RoleTeam)
	createTestProfile(t, repos, "subject-owner", models.RoleOwner)

	teamCookie := sessionCookieFor(t, app, "team-token")
	ownerCookie := sessionCookieFor(t, app, "owner-token")

	issuePitchOverAPI(t, app, teamCookie, `{"resource_slug":"deck-a","expiry_days":7}`)
	issuePitchOverAPI(t, app, ownerCookie, `{"resource_slug":"deck-b","expiry_days":7}`)

	listAs := func(cookie *http.Cookie) []any {
		request := httptest.NewRequest(http.MethodGet, "/api/pitch-access", nil)
		request.AddCookie(cookie)
		response, err := app.Test(request, -1)
		if err != nil {
			t.Fatalf("list request failed: %v", err)
		}
		if response.StatusCode != http.StatusOK {
			t.Fatalf("list status = %d, want 200", response.StatusCode)
		}
		body := decodeBody(t, response)
		items, _ := body["items"].([]any)
		return items
	}

	if teamItems := listAs(teamCookie); len(teamItems) != 1 {
		t.Fatalf("team sees %d links, want 1", len(teamItems))
	}
	if ownerItems := listAs(ownerCookie); len(ownerItems) != 2 {
		t.Fatalf("owner sees %d links, want 2", len(ownerItems))
	}
}

func TestPitchAdmin_ListNeverExposesToken(t *testing.T) {
	verifier := &fakeVerifier{
		Tokens: map[string]identity.Verified{
			"team-token": {SubjectID: "subject-team"},
		},
	}
	app, repos := newTestApp(t, verifier)
	createTestProfile(t, repos, "subject-team", models.RoleTeam)
	cookie := sessionCookieFor(t, app, "team-token")

	issued := issuePitchOverAPI(t, app, cookie, `{"resource_slug":"deck-a","expiry_days":7}`)
	token, _ := issued["token"].(string)

	request := httptest.NewRequest(http.MethodGet, "/api/pitch-access", nil)
	request.AddCookie(cookie)
	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	body := decodeBody(t, response)
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("list has %d items, want 1", len(items))
	}
	item, _ := items[0].(map[string]any)
	if _, present := item["token"]; present {
		t.Fatal("listing must not carry the plaintext token")
	}
	prefix, _ := item["token_hash_prefix"].(string)
	if len(prefix) != 8 {
		t.Fatalf("token_hash_prefix = %q, want 8 hex chars", prefix)
	}
	if strings.HasPrefix(token, prefix) {
		t.Fatal("token_hash_prefix must derive from the hash, not the token")
	}
}
