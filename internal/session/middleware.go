package session

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey struct{}

// publicPrefixes are reachable without a session. The landing page is
// matched exactly; everything else here is a prefix.
var publicPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/static/",
	"/healthz",
	"/favicon.ico",
	"/reload",
	"/hotreload",
}

// Public reports whether path is reachable without a session.
func Public(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequireSession gates every non-public route: signed-out requests are
// redirected to the login page and the protected handler never runs.
// Signed-in requests get their session injected into the context.
func (m *Manager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Public(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		sess := m.Current(r)
		if !sess.SignedIn() {
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// WithSession stores a session in the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session, or a signed-out session when
// none was injected.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{}
}
