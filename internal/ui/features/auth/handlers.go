// Package auth provides sign-in, registration, sign-out and organization
// switching for the console.
package auth

import (
	"net/http"
	"strings"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ratelimit"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

const minPasswordLength = 6

// Handlers provides HTTP handlers for the auth feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// LandingPage renders the public landing page. Signed-in visitors go
// straight to their dashboard.
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sessions.Current(r).SignedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	data := landingData{
		BaseData: views.Base("Welcome", "", &session.Session{}, h.deps.Sessions.Flashes(w, r), h.deps.Dev),
	}
	common.RenderPage(w, r, h.deps, "landing", data)
}

// LoginPage renders the sign-in form.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sessions.Current(r).SignedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.renderLogin(w, r, "", "")
}

// Login exchanges the submitted credentials for a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderLogin(w, r, email, "Email and password are required")
		return
	}

	allowed, err := h.deps.Limiter.Allow(r.Context(), ratelimit.LoginKey(r.RemoteAddr, email))
	if err != nil {
		// A broken limiter must not lock everyone out.
		h.deps.Logger.Warn("rate limiter unavailable", "error", err)
	} else if !allowed {
		h.renderLogin(w, r, email, "Too many sign-in attempts. Try again in a minute.")
		return
	}

	auth, err := h.deps.Mutations.Login(r.Context(), email, password)
	if err != nil {
		h.renderLogin(w, r, email, common.ErrorText(err, "Sign in failed. Please try again."))
		return
	}

	if err := h.deps.Sessions.SignIn(w, r, auth); err != nil {
		h.deps.Logger.Error("failed to persist session", "error", err)
		h.renderLogin(w, r, email, "Sign in failed. Please try again.")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// RegisterPage renders the account creation form.
func (h *Handlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sessions.Current(r).SignedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.renderRegister(w, r, registerData{})
}

// Register validates the form locally, then creates the account and its
// first organization. Validation failures never reach the backend.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	form := registerData{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Email:        strings.TrimSpace(r.FormValue("email")),
		Organization: strings.TrimSpace(r.FormValue("organization")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	switch {
	case form.Name == "":
		form.Error = "Name is required"
	case form.Email == "":
		form.Error = "Email is required"
	case len(password) < minPasswordLength:
		form.Error = "Password must be at least 6 characters"
	case password != confirm:
		form.Error = "Passwords do not match"
	case form.Organization == "":
		form.Error = "Organization name is required"
	}
	if form.Error != "" {
		h.renderRegister(w, r, form)
		return
	}

	auth, err := h.deps.Mutations.Register(r.Context(), api.RegisterRequest{
		Name:             form.Name,
		Email:            form.Email,
		Password:         password,
		OrganizationName: form.Organization,
	})
	if err != nil {
		form.Error = common.ErrorText(err, "Registration failed. Please try again.")
		h.renderRegister(w, r, form)
		return
	}

	if err := h.deps.Sessions.SignIn(w, r, auth); err != nil {
		h.deps.Logger.Error("failed to persist session", "error", err)
		form.Error = "Registration succeeded but sign-in failed. Please sign in."
		h.renderRegister(w, r, form)
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Welcome to Hygiene! Upload your first dataset to get started.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout drops the session and everything cached for it.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.SignedIn() {
		h.deps.Mutations.SignOut(sess.Auth())
	}
	if err := h.deps.Sessions.SignOut(w, r); err != nil {
		h.deps.Logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SwitchOrganization exchanges the session for one scoped to the chosen
// organization.
func (h *Handlers) SwitchOrganization(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	orgID := r.FormValue("organization_id")
	if orgID == "" {
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	auth, err := h.deps.Mutations.SwitchOrganization(r.Context(), sess.Auth(), orgID)
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to switch organization")
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	if err := h.deps.Sessions.SignIn(w, r, auth); err != nil {
		h.deps.Logger.Error("failed to persist session", "error", err)
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Switched to "+auth.Organization.Name)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handlers) renderLogin(w http.ResponseWriter, r *http.Request, email, errText string) {
	data := loginData{
		BaseData: views.Base("Sign in", "", &session.Session{}, h.deps.Sessions.Flashes(w, r), h.deps.Dev),
		Email:    email,
		Error:    errText,
	}
	common.RenderPage(w, r, h.deps, "login", data)
}

func (h *Handlers) renderRegister(w http.ResponseWriter, r *http.Request, form registerData) {
	form.BaseData = views.Base("Create account", "", &session.Session{}, h.deps.Sessions.Flashes(w, r), h.deps.Dev)
	common.RenderPage(w, r, h.deps, "register", form)
}
