// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/prefs"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ratelimit"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/testutil"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/notifier"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Backend is a scripted stand-in for the hygiene API. Tests register
// routes on it and assert how often each was hit.
type Backend struct {
	Server *httptest.Server

	mux   *http.ServeMux
	mu    sync.Mutex
	calls map[string]int
	total int
}

// NewBackend starts a fake API server that counts every request.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		mux:   http.NewServeMux(),
		calls: make(map[string]int),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.total++
		b.calls[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)
	return b
}

// Handle registers a raw handler, e.g. Handle("GET /datasets", ...).
func (b *Backend) Handle(pattern string, handler http.HandlerFunc) {
	b.mux.HandleFunc(pattern, handler)
}

// JSON registers a handler that always answers with the encoded body.
func (b *Backend) JSON(pattern string, status int, body any) {
	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

// Detail registers a handler that answers with a backend error payload.
func (b *Backend) Detail(pattern string, status int, detail string) {
	b.JSON(pattern, status, map[string]string{"detail": detail})
}

// Calls returns how often "METHOD /path" was requested.
func (b *Backend) Calls(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

// TotalCalls returns how many requests reached the backend at all.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Backend   *Backend
	API       *api.Client
	Cache     *query.Cache
	Queries   *query.Queries
	Mutations *query.Mutations
	Sessions  *session.Manager
	Notifier  *notifier.Notifier
	Views     *views.Engine
	Prefs     *prefs.Store
}

// SetupTestFixture wires a fake backend through the real query cache,
// session manager and template engine.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	backend := NewBackend(t)
	client := api.New(backend.Server.URL, api.WithLogger(logger))
	notif := notifier.New()
	cache := query.NewCache(query.WithBroadcaster(notif), query.WithLogger(logger))

	store, err := prefs.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	engine, err := views.NewEngine(false)
	require.NoError(t, err)

	return &TestFixture{
		Backend:   backend,
		API:       client,
		Cache:     cache,
		Queries:   query.NewQueries(client, cache),
		Mutations: query.NewMutations(client, cache),
		Sessions:  session.NewManager("test-secret-key-32-bytes-long!!", false),
		Notifier:  notif,
		Views:     engine,
		Prefs:     store,
	}
}

// Deps bundles the fixture into the dependency set feature handlers take.
func (f *TestFixture) Deps(t *testing.T) common.Deps {
	t.Helper()
	return common.Deps{
		Queries:   f.Queries,
		Mutations: f.Mutations,
		Sessions:  f.Sessions,
		Notifier:  f.Notifier,
		Views:     f.Views,
		Prefs:     f.Prefs,
		Limiter:   ratelimit.Noop{},
		Logger:    testutil.NewTestLogger(t),
	}
}

// AuthedRequest attaches a valid session cookie for role to r, as if the
// browser had signed in earlier.
func (f *TestFixture) AuthedRequest(t *testing.T, r *http.Request, role string) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, f.Sessions.SignIn(rec, seed, TestAuthPayload(role)))
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

// TestAuthPayload returns the identity the fake backend signs in with.
func TestAuthPayload(role string) api.AuthPayload {
	return api.AuthPayload{
		AccessToken: "test-token",
		TokenType:   "bearer",
		User:        api.User{ID: "user-1", Name: "Ada Lovelace", Email: "ada@example.com"},
		Organization: api.Organization{
			ID:   "org-1",
			Name: "Acme Corp",
			Slug: "acme",
		},
		Role: role,
	}
}

// TestSession returns a signed-in session matching TestAuthPayload.
func TestSession(role string) *session.Session {
	return &session.Session{
		Token:   "test-token",
		UserID:  "user-1",
		Email:   "ada@example.com",
		Name:    "Ada Lovelace",
		Role:    role,
		OrgID:   "org-1",
		OrgName: "Acme Corp",
		OrgSlug: "acme",
	}
}

// SignedInRequest injects a session into the request context the way the
// session middleware would.
func SignedInRequest(r *http.Request, role string) *http.Request {
	return r.WithContext(session.WithSession(r.Context(), TestSession(role)))
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout. The context
// is cancelled by its own deadline, which is all SSE tests need.
func RequestWithTimeout(r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	_ = cancel
	return r.WithContext(ctx)
}
