package settings

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features"
)

// ============================================================================
// Test Setup Helpers
// ============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.Deps(t)), fixture
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func testMembers() api.Page[api.Member] {
	return api.Page[api.Member]{
		Items: []api.Member{
			{
				ID:       "m-1",
				UserID:   "user-1",
				Name:     "Ada Lovelace",
				Email:    "ada@example.com",
				Role:     api.RoleAdmin,
				JoinedAt: time.Now().Add(-30 * 24 * time.Hour),
			},
			{
				ID:       "m-2",
				UserID:   "user-2",
				Name:     "Grace Hopper",
				Email:    "grace@example.com",
				Role:     api.RoleAnalyst,
				JoinedAt: time.Now().Add(-10 * 24 * time.Hour),
			},
		},
		Total: 2,
		Page:  1,
		Size:  100,
		Pages: 1,
	}
}

func testOrganizations() []api.OrganizationMembership {
	return []api.OrganizationMembership{
		{ID: "org-1", Name: "Acme Corp", Slug: "acme", Role: api.RoleAdmin},
		{ID: "org-2", Name: "Beta Inc", Slug: "beta", Role: api.RoleViewer},
	}
}

func stubSettingsBackend(b *features.Backend) {
	b.JSON("GET /auth/organizations", http.StatusOK, testOrganizations())
	b.JSON("GET /organizations/members", http.StatusOK, testMembers())
}

// ============================================================================
// Settings Page Tests
// ============================================================================

func TestSettingsPage(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		backend     func(b *features.Backend)
		wantBody    []string
		wantMissing []string
	}{
		{
			name:    "admins see members, orgs and the invite form",
			role:    api.RoleAdmin,
			backend: stubSettingsBackend,
			wantBody: []string{
				"Acme Corp", "Current", "Beta Inc", "Switch",
				"Grace Hopper", "(you)",
				"/settings/members/m-2/role", "/settings/members/m-2/remove",
				"/settings/invites",
			},
			wantMissing: []string{"/settings/members/m-1/remove"},
		},
		{
			name:     "analysts get a read-only member list",
			role:     api.RoleAnalyst,
			backend:  stubSettingsBackend,
			wantBody: []string{"Grace Hopper", "Analyst"},
			wantMissing: []string{
				"/settings/members/m-2/role", "/settings/members/m-2/remove", "/settings/invites",
			},
		},
		{
			name: "shows the backend detail when members fail",
			role: api.RoleAdmin,
			backend: func(b *features.Backend) {
				b.JSON("GET /auth/organizations", http.StatusOK, testOrganizations())
				b.Detail("GET /organizations/members", http.StatusInternalServerError, "Member directory offline")
			},
			wantBody: []string{"Member directory offline"},
		},
		{
			name: "an organization error leaves the member list up",
			role: api.RoleAdmin,
			backend: func(b *features.Backend) {
				b.Detail("GET /auth/organizations", http.StatusBadGateway, "Organization lookup failed")
				b.JSON("GET /organizations/members", http.StatusOK, testMembers())
			},
			wantBody: []string{"Organization lookup failed", "Grace Hopper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, fixture := setupTestHandlers(t)
			tt.backend(fixture.Backend)

			req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/settings", nil), tt.role)
			rec := httptest.NewRecorder()
			handlers.SettingsPage(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
			for _, miss := range tt.wantMissing {
				assert.NotContains(t, rec.Body.String(), miss)
			}
		})
	}
}

// ============================================================================
// Role Update Tests
// ============================================================================

func TestUpdateRole(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var gotRole string
	fixture.Backend.Handle("PATCH /organizations/members/m-2", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Role string `json:"role"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRole = body.Role
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Member{ID: "m-2", Role: body.Role})
	})

	form := url.Values{"role": {api.RoleAdmin}}
	req := features.SignedInRequest(postForm("/settings/members/m-2/role", form), api.RoleAdmin)
	req = features.RequestWithPathParam(req, "id", "m-2")
	rec := httptest.NewRecorder()
	handlers.UpdateRole(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))
	assert.Equal(t, api.RoleAdmin, gotRole)
}

func TestUpdateRoleRejectsUnknownRoles(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	form := url.Values{"role": {"superuser"}}
	req := features.SignedInRequest(postForm("/settings/members/m-2/role", form), api.RoleAdmin)
	req = features.RequestWithPathParam(req, "id", "m-2")
	rec := httptest.NewRecorder()
	handlers.UpdateRole(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, fixture.Backend.TotalCalls())
}

func TestUpdateRoleBlocksAnalysts(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	form := url.Values{"role": {api.RoleAdmin}}
	req := features.SignedInRequest(postForm("/settings/members/m-2/role", form), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "m-2")
	rec := httptest.NewRecorder()
	handlers.UpdateRole(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, fixture.Backend.TotalCalls())
}

// ============================================================================
// Member Removal Tests
// ============================================================================

func TestRemoveMember(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.Handle("DELETE /organizations/members/m-2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := features.SignedInRequest(postForm("/settings/members/m-2/remove", nil), api.RoleAdmin)
	req = features.RequestWithPathParam(req, "id", "m-2")
	rec := httptest.NewRecorder()
	handlers.Remove(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, fixture.Backend.Calls("DELETE /organizations/members/m-2"))
}

func TestRemoveMemberShowsBackendDetail(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.Detail("DELETE /organizations/members/m-1", http.StatusForbidden, "Owners cannot be removed")

	req := features.SignedInRequest(postForm("/settings/members/m-1/remove", nil), api.RoleAdmin)
	req = features.RequestWithPathParam(req, "id", "m-1")
	rec := httptest.NewRecorder()
	handlers.Remove(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))
	assert.Equal(t, 1, fixture.Backend.Calls("DELETE /organizations/members/m-1"))
}

// ============================================================================
// Invite Tests
// ============================================================================

func TestInvite(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var got api.InviteMemberRequest
	fixture.Backend.Handle("POST /organizations/invites", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Member{ID: "m-3", Email: got.Email, Role: got.Role})
	})

	form := url.Values{"email": {"grace@example.com"}, "role": {api.RoleAnalyst}}
	req := features.SignedInRequest(postForm("/settings/invites", form), api.RoleAdmin)
	rec := httptest.NewRecorder()
	handlers.Invite(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, api.InviteMemberRequest{Email: "grace@example.com", Role: api.RoleAnalyst}, got)
}

func TestInviteRequiresEmail(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	form := url.Values{"role": {api.RoleAnalyst}}
	req := features.SignedInRequest(postForm("/settings/invites", form), api.RoleAdmin)
	rec := httptest.NewRecorder()
	handlers.Invite(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, fixture.Backend.TotalCalls())
}

func TestInviteBlocksAnalysts(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	form := url.Values{"email": {"x@example.com"}, "role": {api.RoleViewer}}
	req := features.SignedInRequest(postForm("/settings/invites", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.Invite(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, fixture.Backend.TotalCalls())
}

// ============================================================================
// Settings SSE Tests
// ============================================================================

func TestSettingsPageUpdates(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubSettingsBackend(fixture.Backend)

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/settings/updates", nil), api.RoleAdmin)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.SettingsPageUpdates(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	scope := features.TestSession(api.RoleAdmin).Scope()
	fixture.Notifier.Broadcast(scope.Tag(query.TagMembers))
	<-done

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event:"))
	assert.Contains(t, body, `id="members-table"`)
	assert.Contains(t, body, "Grace Hopper")
}
