package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSessionRedirectsSignedOut(t *testing.T) {
	m := NewManager(testSecret, false)

	var reached bool
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		_, _ = w.Write([]byte("secret dashboard"))
	}))

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantRedirect string
	}{
		{
			name:         "dashboard redirects to login",
			path:         "/dashboard",
			wantStatus:   http.StatusFound,
			wantRedirect: "/auth/login",
		},
		{
			name:         "nested page redirects to login",
			path:         "/datasets/d1",
			wantStatus:   http.StatusFound,
			wantRedirect: "/auth/login",
		},
		{
			name:       "landing page is public",
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "login page is public",
			path:       "/auth/login",
			wantStatus: http.StatusOK,
		},
		{
			name:       "register page is public",
			path:       "/auth/register",
			wantStatus: http.StatusOK,
		},
		{
			name:       "static assets are public",
			path:       "/static/app.css",
			wantStatus: http.StatusOK,
		},
		{
			name:       "health endpoint is public",
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantRedirect != "" {
				assert.Equal(t, tt.wantRedirect, rec.Header().Get("Location"))
				assert.False(t, reached, "protected handler must not run")
				assert.NotContains(t, rec.Body.String(), "secret dashboard")
			} else {
				assert.True(t, reached, "public handler should run")
			}
		})
	}
}

func TestRequireSessionInjectsSession(t *testing.T) {
	m := NewManager(testSecret, false)

	var got *Session
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range signInCookies(t, m) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "tok-abc", got.Token)
	assert.Equal(t, "org-1", got.OrgID)
}

func TestFromContextWithoutSession(t *testing.T) {
	sess := FromContext(context.Background())
	require.NotNil(t, sess)
	assert.False(t, sess.SignedIn())
}

func TestPublicPaths(t *testing.T) {
	assert.True(t, Public("/"))
	assert.True(t, Public("/auth/login"))
	assert.True(t, Public("/static/js/app.js"))
	assert.False(t, Public("/dashboard"))
	assert.False(t, Public("/auth"))
	assert.False(t, Public("/issues"))
}
