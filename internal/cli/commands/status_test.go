package commands

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthBackend(t *testing.T, status string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", jsonHandler(t, api.Health{Status: status, Version: "1.4.2"}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusHealthy(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	srv := healthBackend(t, "ok")
	signIn(t, srv.URL)

	out, err := executeCommand(t, NewStatusCommand(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ backend ok at "+srv.URL)
	assert.Contains(t, out, "version: 1.4.2")
	assert.Contains(t, out, "signed in as ada@example.com")
}

func TestStatusDegraded(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	srv := healthBackend(t, "degraded")
	signOut(t)

	out, err := executeCommand(t, NewStatusCommand(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "! backend degraded at "+srv.URL)
	assert.Contains(t, out, "not signed in")
}

func TestStatusUnreachable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	signOut(t)

	out, err := executeCommand(t, NewStatusCommand(), url)
	require.Error(t, err)
	assert.Contains(t, out, "✗ backend unreachable at "+url)
}
