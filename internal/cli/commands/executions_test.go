package commands

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// executions list
// ============================================================================

func TestExecutionsList(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /executions", jsonHandler(t, api.Page[api.Execution]{
		Items: []api.Execution{
			{ID: "ex-1", DatasetName: "orders", Status: api.ExecutionSucceeded, RulesTotal: 4, IssuesFound: 2, StartedAt: &started, FinishedAt: &finished},
			{ID: "ex-2", DatasetName: "customers", Status: api.ExecutionRunning, RulesTotal: 3, StartedAt: &started},
		},
		Total: 2, Page: 1, Size: 50, Pages: 1,
	}))
	srv := authedBackend(t, mux)
	signIn(t, srv.URL)

	out, err := executeCommand(t, NewExecutionsCommand(), srv.URL, "list")
	require.NoError(t, err)

	wantBody := []string{"ex-1", "ex-2", "orders", "customers", "succeeded", "running", "(2 of 2 executions)"}
	for _, want := range wantBody {
		assert.Contains(t, out, want)
	}
}

func TestExecutionsListPassesFilters(t *testing.T) {
	var gotDataset, gotStatus string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /executions", func(w http.ResponseWriter, r *http.Request) {
		gotDataset = r.URL.Query().Get("dataset_id")
		gotStatus = r.URL.Query().Get("status")
		jsonHandler(t, api.Page[api.Execution]{})(w, r)
	})
	srv := authedBackend(t, mux)
	signIn(t, srv.URL)

	out, err := executeCommand(t, NewExecutionsCommand(), srv.URL,
		"list", "--dataset", "ds-1", "--status", "running")
	require.NoError(t, err)

	assert.Equal(t, "ds-1", gotDataset)
	assert.Equal(t, "running", gotStatus)
	assert.Contains(t, out, "No executions found")
}

// ============================================================================
// watch model
// ============================================================================

func TestWatchModelFinishesOnTerminalStatus(t *testing.T) {
	m := newWatchModel(nil, "ex-1")

	updated, cmd := m.Update(execMsg(api.Execution{ID: "ex-1", Status: api.ExecutionSucceeded}))
	final, ok := updated.(watchModel)
	require.True(t, ok)

	assert.True(t, final.done)
	assert.Equal(t, api.ExecutionSucceeded, final.exec.Status)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchModelPollsWhileRunning(t *testing.T) {
	m := newWatchModel(nil, "ex-1")

	updated, cmd := m.Update(execMsg(api.Execution{ID: "ex-1", Status: api.ExecutionRunning}))
	final, ok := updated.(watchModel)
	require.True(t, ok)

	assert.False(t, final.done)
	assert.NotNil(t, cmd, "a running execution should schedule the next poll")
}

func TestWatchModelStopsOnError(t *testing.T) {
	m := newWatchModel(nil, "ex-1")

	updated, cmd := m.Update(execErrMsg{err: assert.AnError})
	final, ok := updated.(watchModel)
	require.True(t, ok)

	assert.True(t, final.done)
	assert.Equal(t, assert.AnError, final.err)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchModelQuitsOnKey(t *testing.T) {
	m := newWatchModel(nil, "ex-1")

	_, cmd := m.Update(tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune("q")}))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchModelView(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	m := newWatchModel(nil, "ex-1")

	view := m.View()
	assert.Contains(t, view, "Fetching execution")

	m.exec = api.Execution{ID: "ex-1", DatasetName: "orders", Status: api.ExecutionRunning, RulesTotal: 4, IssuesFound: 2, StartedAt: &started}
	view = m.View()
	assert.Contains(t, view, "orders")
	assert.Contains(t, view, "rules: 4  issues: 2")
	assert.Contains(t, view, "press q to stop watching")

	m.exec.Status = api.ExecutionSucceeded
	m.exec.FinishedAt = &finished
	m.done = true
	view = m.View()
	assert.Contains(t, view, "elapsed: 1m30s")
	assert.NotContains(t, view, "press q")

	m.err = assert.AnError
	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestLoadExecution(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /executions/ex-1", jsonHandler(t, api.Execution{
		ID: "ex-1", DatasetName: "orders", Status: api.ExecutionRunning, RulesTotal: 4, StartedAt: &started,
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := api.New(srv.URL)

	msg := loadExecution(client, "ex-1")
	exec, ok := msg.(execMsg)
	require.True(t, ok)
	assert.Equal(t, "ex-1", exec.ID)
	assert.Equal(t, api.ExecutionRunning, exec.Status)
}

func TestLoadExecutionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Execution not found"}`))
	}))
	t.Cleanup(srv.Close)
	client := api.New(srv.URL)

	msg := loadExecution(client, "ex-404")
	errMsg, ok := msg.(execErrMsg)
	require.True(t, ok)
	assert.True(t, api.IsNotFound(errMsg.err))
}

func TestExecutionDuration(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(45 * time.Second)

	_, ok := executionDuration(api.Execution{})
	assert.False(t, ok, "an execution that never started has no duration")

	d, ok := executionDuration(api.Execution{StartedAt: &started, FinishedAt: &finished})
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, d)

	d, ok = executionDuration(api.Execution{StartedAt: &started})
	require.True(t, ok)
	assert.Greater(t, d, time.Duration(0))
}
