package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func testOverview() api.Overview {
	started := time.Now().Add(-10 * time.Minute)
	finished := started.Add(42 * time.Second)
	return api.Overview{
		Datasets:          12,
		Rules:             34,
		ExecutionsRunning: 2,
		OpenIssues:        1042,
		QualityScore:      92.5,
		IssuesBySeverity:  map[string]int{"critical": 3, "high": 19},
		RecentExecutions: []api.Execution{
			{
				ID:          "ex-1",
				DatasetName: "orders.csv",
				Status:      "succeeded",
				IssuesFound: 7,
				StartedAt:   &started,
				FinishedAt:  &finished,
			},
		},
	}
}

// ============================================================================
// Dashboard Page Tests
// ============================================================================

func TestDashboardPage(t *testing.T) {
	tests := []struct {
		name       string
		backend    func(b *features.Backend)
		wantStatus int
		wantBody   []string
	}{
		{
			name: "renders overview numbers",
			backend: func(b *features.Backend) {
				b.JSON("GET /advanced/overview", http.StatusOK, testOverview())
			},
			wantStatus: http.StatusOK,
			wantBody: []string{
				"1,042",
				"92.5",
				"orders.csv",
				"Critical: 3",
				"badge-success",
			},
		},
		{
			name: "shows the backend detail when the overview fails",
			backend: func(b *features.Backend) {
				b.Detail("GET /advanced/overview", http.StatusBadGateway, "Aggregation timed out")
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{"Aggregation timed out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, fixture := setupTestHandlers(t)
			tt.backend(fixture.Backend)

			req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/dashboard", nil), api.RoleAnalyst)
			rec := httptest.NewRecorder()
			handlers.DashboardPage(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestDashboardPageRestartsExpiredSessions(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.Detail("GET /advanced/overview", http.StatusUnauthorized, "Token expired")

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/dashboard", nil), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.DashboardPage(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

// ============================================================================
// Dashboard SSE Tests
// ============================================================================

func TestDashboardPageUpdates(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("GET /advanced/overview", http.StatusOK, testOverview())

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/dashboard/updates", nil), api.RoleAnalyst)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.DashboardPageUpdates(rec, req)
	}()

	// Give the handler time to subscribe, then fire the topic it waits on.
	time.Sleep(50 * time.Millisecond)
	scope := features.TestSession(api.RoleAnalyst).Scope()
	fixture.Notifier.Broadcast(scope.Tag(query.TagOverview))
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, strings.Count(body, "event:"))
	assert.Contains(t, body, `id="dashboard-main"`)
	assert.Contains(t, body, "orders.csv")
}

func TestDashboardPageUpdatesAfterMutation(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("GET /advanced/overview", http.StatusOK, testOverview())
	fixture.Backend.Handle("DELETE /datasets/ds-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/dashboard/updates", nil), api.RoleAnalyst)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.DashboardPageUpdates(rec, req)
	}()

	// Deleting a dataset invalidates the overview tag, which must wake
	// this stream through the cache's broadcaster.
	time.Sleep(50 * time.Millisecond)
	auth := features.TestSession(api.RoleAnalyst).Auth()
	require.NoError(t, fixture.Mutations.DeleteDataset(context.Background(), auth, "ds-1"))
	<-done

	assert.GreaterOrEqual(t, strings.Count(rec.Body.String(), "event:"), 1)
}

func TestDashboardPageUpdatesIgnoresOtherTenants(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("GET /advanced/overview", http.StatusOK, testOverview())

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/dashboard/updates", nil), api.RoleAnalyst)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.DashboardPageUpdates(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	other := query.Scope{OrgID: "org-9", UserID: "user-9"}
	fixture.Notifier.Broadcast(other.Tag(query.TagOverview))
	<-done

	assert.Zero(t, strings.Count(rec.Body.String(), "event:"), "another tenant's invalidation must not wake this stream")
}
