package reports

import (
	"context"
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

func testExportPage() api.Page[api.Export] {
	return api.Page[api.Export]{
		Items: []api.Export{
			{
				ID:        "e-1",
				Format:    "csv",
				Status:    "completed",
				DatasetID: "d1",
				CreatedAt: time.Now().Add(-time.Hour),
			},
			{
				ID:        "e-2",
				Format:    "pdf",
				Status:    "queued",
				CreatedAt: time.Now().Add(-time.Minute),
			},
		},
		Total: 2,
		Page:  1,
		Size:  20,
		Pages: 1,
	}
}

func stubReportsBackend(b *features.Backend) {
	b.JSON("GET /datasets", http.StatusOK, api.Page[api.Dataset]{
		Items: []api.Dataset{{ID: "d1", Name: "orders"}},
		Total: 1, Page: 1, Pages: 1,
	})
	b.JSON("GET /reports/exports", http.StatusOK, testExportPage())
}

// ============================================================================
// Report Page Tests
// ============================================================================

func TestReportsPage(t *testing.T) {
	tests := []struct {
		name        string
		backend     func(b *features.Backend)
		wantBody    []string
		wantMissing []string
	}{
		{
			name:    "offers downloads only for completed exports",
			backend: stubReportsBackend,
			wantBody: []string{
				"Request export", `value="csv"`, "orders",
				"/reports/exports/e-1/download", "Completed", "Queued",
				"Download as Markdown",
			},
			wantMissing: []string{"/reports/exports/e-2/download"},
		},
		{
			name: "shows the backend detail when the list fails",
			backend: func(b *features.Backend) {
				b.JSON("GET /datasets", http.StatusOK, api.Page[api.Dataset]{})
				b.Detail("GET /reports/exports", http.StatusServiceUnavailable, "Export service is restarting")
			},
			wantBody: []string{"Export service is restarting"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, fixture := setupTestHandlers(t)
			tt.backend(fixture.Backend)

			req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports", nil), api.RoleAnalyst)
			rec := httptest.NewRecorder()
			handlers.ReportsPage(rec, req)

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
// Create Export Tests
// ============================================================================

func TestCreateExport(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var got api.CreateExportRequest
	fixture.Backend.Handle("POST /reports/exports", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Export{ID: "e-9", Format: got.Format, Status: "queued"})
	})

	form := url.Values{"format": {"csv"}, "dataset_id": {"d1"}}
	req := features.SignedInRequest(postForm("/reports/exports", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.CreateExport(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/reports", rec.Header().Get("Location"))
	assert.Equal(t, api.CreateExportRequest{Format: "csv", DatasetID: "d1"}, got)
}

func TestCreateExportRemembersFormat(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubReportsBackend(fixture.Backend)
	fixture.Backend.JSON("POST /reports/exports", http.StatusCreated, api.Export{ID: "e-9", Format: "json", Status: "queued"})

	form := url.Values{"format": {"json"}}
	req := features.SignedInRequest(postForm("/reports/exports", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.CreateExport(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	last, err := fixture.Prefs.GetState("org-1", "user-1", "export_format")
	require.NoError(t, err)
	assert.Equal(t, "json", last)

	page := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports", nil), api.RoleAnalyst)
	rec = httptest.NewRecorder()
	handlers.ReportsPage(rec, page)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="json" selected`, "the form preselects the last-used format")
	assert.NotContains(t, rec.Body.String(), `value="csv" selected`)
}

func TestCreateExportValidatesFormat(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubReportsBackend(fixture.Backend)

	form := url.Values{"format": {"docx"}}
	req := features.SignedInRequest(postForm("/reports/exports", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.CreateExport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Choose an export format")
	assert.Zero(t, fixture.Backend.Calls("POST /reports/exports"))
}

func TestCreateExportShowsBackendDetail(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubReportsBackend(fixture.Backend)
	fixture.Backend.Detail("POST /reports/exports", http.StatusTooManyRequests, "Export queue is full")

	form := url.Values{"format": {"pdf"}}
	req := features.SignedInRequest(postForm("/reports/exports", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.CreateExport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Export queue is full")
}

// ============================================================================
// Download Tests
// ============================================================================

func TestDownload(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.Handle("GET /reports/exports/e-1/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="issues.csv"`)
		_, _ = w.Write([]byte("id,severity\ni-1,critical\n"))
	})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports/exports/e-1/download", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "e-1")
	rec := httptest.NewRecorder()
	handlers.Download(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "issues.csv")
	assert.Equal(t, "id,severity\ni-1,critical\n", rec.Body.String(), "export bytes pass through untouched")
}

func TestDownloadRedirectsOnError(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.Detail("GET /reports/exports/e-9/download", http.StatusNotFound, "Export not found")

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports/exports/e-9/download", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "e-9")
	rec := httptest.NewRecorder()
	handlers.Download(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/reports", rec.Header().Get("Location"))
}

// ============================================================================
// Markdown Report Tests
// ============================================================================

func TestDownloadMarkdown(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("GET /issues/summary", http.StatusOK, api.IssueSummary{
		Total:       128,
		Resolved:    16,
		BySeverity:  map[string]int{"critical": 7, "high": 40, "medium": 61, "low": 20},
		ByDimension: map[string]int{"validity": 58, "completeness": 70},
	})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports/markdown", nil), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.DownloadMarkdown(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")

	body := rec.Body.String()
	assert.Contains(t, body, "Data quality report")
	assert.Contains(t, body, "Acme Corp")
	assert.Contains(t, body, "Total issues: 128")
	assert.Contains(t, body, "Critical: 7")
	assert.NotContains(t, body, "<h1>", "the report is converted out of HTML")
}

func TestDownloadMarkdownScopedToDataset(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var summaryQuery url.Values
	fixture.Backend.Handle("GET /issues/summary", func(w http.ResponseWriter, r *http.Request) {
		summaryQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.IssueSummary{Total: 12, Resolved: 2})
	})
	fixture.Backend.JSON("GET /datasets/d1", http.StatusOK, api.Dataset{ID: "d1", Name: "orders"})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports/markdown?dataset_id=d1", nil), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.DownloadMarkdown(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "d1", summaryQuery.Get("dataset_id"))
	assert.Contains(t, rec.Body.String(), "Dataset: orders")
}

// ============================================================================
// Report SSE Tests
// ============================================================================

func TestReportsPageUpdatesAfterCreate(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubReportsBackend(fixture.Backend)
	fixture.Backend.JSON("POST /reports/exports", http.StatusCreated, api.Export{ID: "e-9", Format: "csv", Status: "queued"})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/reports/updates", nil), api.RoleAnalyst)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.ReportsPageUpdates(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	sess := features.TestSession(api.RoleAnalyst)
	_, err := fixture.Mutations.CreateExport(context.Background(), sess.Auth(), api.CreateExportRequest{Format: "csv"})
	require.NoError(t, err)
	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1, "requesting an export wakes the list stream")
	assert.Contains(t, body, `id="exports-table"`)
}
