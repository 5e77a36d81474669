package executions

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

func testExecutionPage() api.Page[api.Execution] {
	started := time.Now().Add(-5 * time.Minute)
	finished := time.Now().Add(-3 * time.Minute)
	return api.Page[api.Execution]{
		Items: []api.Execution{
			{
				ID:          "ex-1",
				DatasetID:   "d1",
				DatasetName: "orders",
				Status:      api.ExecutionRunning,
				RulesTotal:  12,
				IssuesFound: 1042,
				StartedAt:   &started,
				CreatedAt:   time.Now().Add(-6 * time.Minute),
			},
			{
				ID:          "ex-2",
				DatasetID:   "d2",
				DatasetName: "customers",
				Status:      api.ExecutionSucceeded,
				RulesTotal:  8,
				IssuesFound: 3,
				StartedAt:   &started,
				FinishedAt:  &finished,
				CreatedAt:   time.Now().Add(-30 * time.Minute),
			},
		},
		Total: 2,
		Page:  1,
		Size:  20,
		Pages: 1,
	}
}

// stubRunForm answers the dataset and rule lookups behind the run form.
func stubRunForm(b *features.Backend) {
	b.JSON("GET /datasets", http.StatusOK, api.Page[api.Dataset]{
		Items: []api.Dataset{{ID: "d1", Name: "orders"}, {ID: "d2", Name: "customers"}},
		Total: 2, Page: 1, Pages: 1,
	})
	b.JSON("GET /rules", http.StatusOK, api.Page[api.Rule]{
		Items: []api.Rule{
			{ID: "r1", Name: "email format", Severity: api.SeverityHigh, IsActive: true},
			{ID: "r2", Name: "order id present", Severity: api.SeverityCritical, IsActive: true},
		},
		Total: 2, Page: 1, Pages: 1,
	})
}

// ============================================================================
// Execution List Tests
// ============================================================================

func TestExecutionsPage(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		target      string
		backend     func(b *features.Backend)
		wantBody    []string
		wantMissing []string
	}{
		{
			name:   "shows the run form and the table for analysts",
			role:   api.RoleAnalyst,
			target: "/executions",
			backend: func(b *features.Backend) {
				stubRunForm(b)
				b.JSON("GET /executions", http.StatusOK, testExecutionPage())
			},
			wantBody: []string{
				"Run checks", "Run execution", `value="d1"`, "email format",
				"orders", "1,042", "/executions/ex-1", "/executions/ex-1/cancel",
			},
		},
		{
			name:   "hides the run form and cancel from viewers",
			role:   api.RoleViewer,
			target: "/executions",
			backend: func(b *features.Backend) {
				b.JSON("GET /executions", http.StatusOK, testExecutionPage())
			},
			wantBody:    []string{"orders", "customers"},
			wantMissing: []string{"Run execution", "/cancel"},
		},
		{
			name:   "marks the active status tab",
			role:   api.RoleViewer,
			target: "/executions?status=running",
			backend: func(b *features.Backend) {
				b.JSON("GET /executions", http.StatusOK, testExecutionPage())
			},
			wantBody: []string{`class="tab active">Running</a>`},
		},
		{
			name:   "shows the backend detail when the list fails",
			role:   api.RoleAnalyst,
			target: "/executions",
			backend: func(b *features.Backend) {
				stubRunForm(b)
				b.Detail("GET /executions", http.StatusInternalServerError, "Execution store unavailable")
			},
			wantBody: []string{"Execution store unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, fixture := setupTestHandlers(t)
			tt.backend(fixture.Backend)

			req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, tt.target, nil), tt.role)
			rec := httptest.NewRecorder()
			handlers.ExecutionsPage(rec, req)

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

func TestExecutionsPagePassesFiltersThrough(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var gotQuery url.Values
	stubRunForm(fixture.Backend)
	fixture.Backend.Handle("GET /executions", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testExecutionPage())
	})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions?status=failed&page=2", nil), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.ExecutionsPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", gotQuery.Get("status"))
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Contains(t, rec.Body.String(), "/executions/updates?page=2&amp;status=failed",
		"the stream keeps the list filters")
}

func TestExecutionsPageViewersSkipFormLookups(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("GET /executions", http.StatusOK, testExecutionPage())

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions", nil), api.RoleViewer)
	rec := httptest.NewRecorder()
	handlers.ExecutionsPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fixture.Backend.Calls("GET /datasets"))
	assert.Zero(t, fixture.Backend.Calls("GET /rules"))
}

// ============================================================================
// Create Execution Tests
// ============================================================================

func TestCreateExecution(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var got api.CreateExecutionRequest
	fixture.Backend.Handle("POST /executions", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Execution{ID: "ex-9", Status: api.ExecutionQueued})
	})

	form := url.Values{"dataset_id": {"d1"}, "rule_ids": {"r1", "r2"}}
	req := features.SignedInRequest(postForm("/executions", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.Create(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/executions/ex-9", rec.Header().Get("Location"))
	assert.Equal(t, api.CreateExecutionRequest{DatasetID: "d1", RuleIDs: []string{"r1", "r2"}}, got)
}

func TestCreateExecutionInvalidatesCachedList(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("GET /executions", http.StatusOK, testExecutionPage())
	fixture.Backend.JSON("POST /executions", http.StatusCreated, api.Execution{ID: "ex-9", Status: api.ExecutionQueued})

	sess := features.TestSession(api.RoleAnalyst)
	for i := 0; i < 2; i++ {
		_, err := fixture.Queries.Executions(context.Background(), sess.Auth(), api.ExecutionListOptions{})
		require.NoError(t, err)
	}
	require.Equal(t, 1, fixture.Backend.Calls("GET /executions"))

	form := url.Values{"dataset_id": {"d1"}, "rule_ids": {"r1"}}
	req := features.SignedInRequest(postForm("/executions", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.Create(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, err := fixture.Queries.Executions(context.Background(), sess.Auth(), api.ExecutionListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, fixture.Backend.Calls("GET /executions"), "queueing a run drops the cached list")
}

func TestCreateExecutionValidation(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		wantErr string
	}{
		{
			name:    "requires a dataset",
			form:    url.Values{"rule_ids": {"r1"}},
			wantErr: "Choose a dataset to check",
		},
		{
			name:    "requires at least one rule",
			form:    url.Values{"dataset_id": {"d1"}},
			wantErr: "Select at least one rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, fixture := setupTestHandlers(t)
			stubRunForm(fixture.Backend)
			fixture.Backend.JSON("GET /executions", http.StatusOK, testExecutionPage())

			req := features.SignedInRequest(postForm("/executions", tt.form), api.RoleAnalyst)
			rec := httptest.NewRecorder()
			handlers.Create(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
			assert.Zero(t, fixture.Backend.Calls("POST /executions"))
		})
	}
}

func TestCreateExecutionShowsBackendDetail(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubRunForm(fixture.Backend)
	fixture.Backend.JSON("GET /executions", http.StatusOK, testExecutionPage())
	fixture.Backend.Detail("POST /executions", http.StatusConflict, "Dataset is still profiling")

	form := url.Values{"dataset_id": {"d1"}, "rule_ids": {"r1"}}
	req := features.SignedInRequest(postForm("/executions", form), api.RoleAnalyst)
	rec := httptest.NewRecorder()
	handlers.Create(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dataset is still profiling")
	assert.Contains(t, rec.Body.String(), `value="d1" selected`, "the chosen dataset stays selected")
}

func TestCreateExecutionBlocksViewers(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	form := url.Values{"dataset_id": {"d1"}, "rule_ids": {"r1"}}
	req := features.SignedInRequest(postForm("/executions", form), api.RoleViewer)
	rec := httptest.NewRecorder()
	handlers.Create(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/executions", rec.Header().Get("Location"))
	assert.Zero(t, fixture.Backend.TotalCalls())
}

// ============================================================================
// Cancel Execution Tests
// ============================================================================

func TestCancelExecution(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("POST /executions/ex-1/cancel", http.StatusOK, api.Execution{ID: "ex-1", Status: api.ExecutionCancelled})

	req := features.SignedInRequest(postForm("/executions/ex-1/cancel", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "ex-1")
	req.Header.Set("Referer", "http://example.com/executions?status=running")
	rec := httptest.NewRecorder()
	handlers.Cancel(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/executions?status=running", rec.Header().Get("Location"), "cancel returns to the filtered list")
	assert.Equal(t, 1, fixture.Backend.Calls("POST /executions/ex-1/cancel"))
}

func TestCancelExecutionWithoutReferer(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.JSON("POST /executions/ex-1/cancel", http.StatusOK, api.Execution{ID: "ex-1", Status: api.ExecutionCancelled})

	req := features.SignedInRequest(postForm("/executions/ex-1/cancel", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "ex-1")
	rec := httptest.NewRecorder()
	handlers.Cancel(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/executions", rec.Header().Get("Location"))
}

func TestCancelExecutionBlocksViewers(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	req := features.SignedInRequest(postForm("/executions/ex-1/cancel", nil), api.RoleViewer)
	req = features.RequestWithPathParam(req, "id", "ex-1")
	rec := httptest.NewRecorder()
	handlers.Cancel(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, fixture.Backend.TotalCalls())
}

// ============================================================================
// Execution Detail Tests
// ============================================================================

func TestExecutionPage(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	var gotQuery url.Values
	fixture.Backend.JSON("GET /executions/ex-1", http.StatusOK, testExecutionPage().Items[0])
	fixture.Backend.Handle("GET /issues", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Page[api.Issue]{
			Items: []api.Issue{{
				ID:       "i-1",
				Severity: api.SeverityCritical,
				RuleName: "email format",
				RowIndex: 4,
				Column:   "email",
				Value:    "not-an-email",
				Message:  "Value does not match pattern",
			}},
			Total: 1, Page: 1, Pages: 1,
		})
	})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions/ex-1", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "ex-1")
	rec := httptest.NewRecorder()
	handlers.ExecutionPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ex-1", gotQuery.Get("execution_id"))
	body := rec.Body.String()
	assert.Contains(t, body, "orders")
	assert.Contains(t, body, "Running")
	assert.Contains(t, body, "email format")
	assert.Contains(t, body, "row 4")
	assert.Contains(t, body, "not-an-email")
	assert.Contains(t, body, "Value does not match pattern")
	assert.Contains(t, body, "/issues?execution_id=ex-1")
	assert.Contains(t, body, "Cancel execution", "a running execution offers cancel")
}

func TestExecutionPageRedirectsWhenMissing(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.Backend.Detail("GET /executions/nope", http.StatusNotFound, "Execution not found")

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions/nope", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "nope")
	rec := httptest.NewRecorder()
	handlers.ExecutionPage(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/executions", rec.Header().Get("Location"))
}

// ============================================================================
// Execution SSE Tests
// ============================================================================

func TestExecutionsPageUpdates(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubRunForm(fixture.Backend)
	fixture.Backend.JSON("GET /executions", http.StatusOK, testExecutionPage())

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions/updates", nil), api.RoleAnalyst)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.ExecutionsPageUpdates(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	scope := features.TestSession(api.RoleAnalyst).Scope()
	fixture.Notifier.Broadcast(scope.Tag(query.TagExecutions))
	<-done

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event:"))
	assert.Contains(t, body, `id="executions-table"`)
	assert.Contains(t, body, "orders")
}

func TestExecutionsPageUpdatesAfterCreate(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	stubRunForm(fixture.Backend)
	fixture.Backend.JSON("GET /executions", http.StatusOK, testExecutionPage())
	fixture.Backend.JSON("POST /executions", http.StatusCreated, api.Execution{ID: "ex-9", Status: api.ExecutionQueued})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions/updates", nil), api.RoleAnalyst)
	req = features.RequestWithTimeout(req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.ExecutionsPageUpdates(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	sess := features.TestSession(api.RoleAnalyst)
	_, err := fixture.Mutations.CreateExecution(context.Background(), sess.Auth(), api.CreateExecutionRequest{
		DatasetID: "d1",
		RuleIDs:   []string{"r1"},
	})
	require.NoError(t, err)
	<-done

	assert.GreaterOrEqual(t, strings.Count(rec.Body.String(), "event:"), 1,
		"queueing a run wakes the list stream")
}

func TestExecutionPageUpdatesPollsWhileRunning(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	old := pollInterval
	pollInterval = 30 * time.Millisecond
	defer func() { pollInterval = old }()

	fixture.Backend.JSON("GET /executions/ex-1", http.StatusOK, testExecutionPage().Items[0])
	fixture.Backend.JSON("GET /issues", http.StatusOK, api.Page[api.Issue]{})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions/ex-1/updates", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "ex-1")
	req = features.RequestWithTimeout(req, 250*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.ExecutionPageUpdates(rec, req)
	}()
	<-done

	assert.GreaterOrEqual(t, fixture.Backend.Calls("GET /executions/ex-1"), 3,
		"a running execution re-reads on every poll tick")
	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 2)
	assert.Contains(t, body, `id="execution-detail"`)
}

func TestExecutionPageUpdatesLeavesFinishedRunsAlone(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	old := pollInterval
	pollInterval = 30 * time.Millisecond
	defer func() { pollInterval = old }()

	fixture.Backend.JSON("GET /executions/ex-2", http.StatusOK, testExecutionPage().Items[1])
	fixture.Backend.JSON("GET /issues", http.StatusOK, api.Page[api.Issue]{})

	req := features.SignedInRequest(httptest.NewRequest(http.MethodGet, "/executions/ex-2/updates", nil), api.RoleAnalyst)
	req = features.RequestWithPathParam(req, "id", "ex-2")
	req = features.RequestWithTimeout(req, 250*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.ExecutionPageUpdates(rec, req)
	}()
	<-done

	assert.Equal(t, 1, fixture.Backend.Calls("GET /executions/ex-2"),
		"finished executions are read once and left alone")
	assert.Zero(t, strings.Count(rec.Body.String(), "event:"))
}
