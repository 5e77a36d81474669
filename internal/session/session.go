// Package session manages the console's signed cookie sessions: who is
// signed in, which organization is active, and one-shot flash messages.
// Credentials never live here, only the backend-issued bearer token and
// the identity it came with.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
)

const (
	cookieName = "hygiene_session"
	maxAge     = 86400 * 30 // 30 days
)

// Flash levels.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message rendered on the next page load.
type Flash struct {
	Level string
	Text  string
}

func init() {
	gob.Register(Flash{})
}

// Session is the typed view over the cookie values. A zero session is
// signed out.
type Session struct {
	Token   string
	UserID  string
	Email   string
	Name    string
	Role    string
	OrgID   string
	OrgName string
	OrgSlug string
}

// SignedIn reports whether the session holds a token.
func (s *Session) SignedIn() bool {
	return s != nil && s.Token != ""
}

// Auth returns the token and cache scope the query layer needs.
func (s *Session) Auth() query.Auth {
	return query.Auth{Token: s.Token, Scope: s.Scope()}
}

// Scope returns the session's cache scope.
func (s *Session) Scope() query.Scope {
	return query.Scope{OrgID: s.OrgID, UserID: s.UserID}
}

// Role predicates gate UI affordances only. The backend enforces
// authorization on every call regardless.

// CanEditData reports whether the session may upload datasets, run
// executions, resolve issues and apply fixes.
func (s *Session) CanEditData() bool {
	switch s.Role {
	case api.RoleOwner, api.RoleAdmin, api.RoleAnalyst:
		return true
	}
	return false
}

// CanManageRules reports whether the session may create, edit and delete
// rules.
func (s *Session) CanManageRules() bool {
	return s.Role == api.RoleOwner || s.Role == api.RoleAdmin
}

// CanManageMembers reports whether the session may change member roles and
// invites.
func (s *Session) CanManageMembers() bool {
	return s.Role == api.RoleOwner || s.Role == api.RoleAdmin
}

// IsViewer reports whether the session is read-only.
func (s *Session) IsViewer() bool {
	return s.Role == api.RoleViewer
}

// Manager wraps the cookie store.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager creates a session manager. secure controls the cookie's
// Secure flag and is on in production.
func NewManager(secret string, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Secure = secure
	return &Manager{store: store}
}

// Current returns the request's session. A missing or undecodable cookie
// yields a signed-out session.
func (m *Manager) Current(r *http.Request) *Session {
	sess, err := m.store.Get(r, cookieName)
	if err != nil {
		return &Session{}
	}
	get := func(key string) string {
		if v, ok := sess.Values[key].(string); ok {
			return v
		}
		return ""
	}
	return &Session{
		Token:   get("token"),
		UserID:  get("user_id"),
		Email:   get("email"),
		Name:    get("name"),
		Role:    get("role"),
		OrgID:   get("org_id"),
		OrgName: get("org_name"),
		OrgSlug: get("org_slug"),
	}
}

// SignIn persists a backend auth payload into the cookie.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, auth api.AuthPayload) error {
	sess, _ := m.store.Get(r, cookieName)
	sess.Values["token"] = auth.AccessToken
	sess.Values["user_id"] = auth.User.ID
	sess.Values["email"] = auth.User.Email
	sess.Values["name"] = auth.User.Name
	sess.Values["role"] = auth.Role
	sess.Values["org_id"] = auth.Organization.ID
	sess.Values["org_name"] = auth.Organization.Name
	sess.Values["org_slug"] = auth.Organization.Slug
	return sess.Save(r, w)
}

// SignOut expires the cookie.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, cookieName)
	sess.Values = make(map[any]any)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Flash queues a one-shot message for the next render.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, level, text string) {
	sess, _ := m.store.Get(r, cookieName)
	sess.AddFlash(Flash{Level: level, Text: text})
	_ = sess.Save(r, w)
}

// Flashes drains the queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess, err := m.store.Get(r, cookieName)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			out = append(out, flash)
		}
	}
	return out
}
