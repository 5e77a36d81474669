// Package settings manages the organization: memberships, roles and
// invitations.
package settings

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

type pageData struct {
	views.BaseData
	Organizations []api.OrganizationMembership
	OrgsErr       string
	Members       []api.Member
	SelfID        string
	Roles         []string
	CanManage     bool
	LoadErr       string
}

// Handlers provides HTTP handlers for the settings feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// SettingsPage renders organizations, members and the invite form.
func (h *Handlers) SettingsPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	data, err := h.buildPageData(r.Context(), sess)
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}

	data.BaseData = common.Base(w, r, h.deps, "Settings", "settings")
	common.RenderPage(w, r, h.deps, "settings", data)
}

// SettingsPageUpdates re-renders the member table on membership changes.
func (h *Handlers) SettingsPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	topics := []string{sess.Scope().Tag(query.TagMembers)}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildPageData(ctx, sess)
		return h.deps.Views.Fragment("members_table", data)
	})
}

// UpdateRole changes a member's role.
func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	id := chi.URLParam(r, "id")
	role := r.FormValue("role")
	if !knownRole(role) {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Choose a role")
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	if _, err := h.deps.Mutations.UpdateMemberRole(r.Context(), sess.Auth(), id, role); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to update role")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Role updated")
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// Remove takes a member out of the organization.
func (h *Handlers) Remove(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.deps.Mutations.RemoveMember(r.Context(), sess.Auth(), id); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to remove member")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Member removed")
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// Invite sends an organization invitation.
func (h *Handlers) Invite(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	email := r.FormValue("email")
	role := r.FormValue("role")
	switch {
	case email == "":
		h.deps.Sessions.Flash(w, r, session.FlashError, "Enter an email address")
	case !knownRole(role):
		h.deps.Sessions.Flash(w, r, session.FlashError, "Choose a role")
	default:
		req := api.InviteMemberRequest{Email: email, Role: role}
		if _, err := h.deps.Mutations.InviteMember(r.Context(), sess.Auth(), req); err != nil {
			if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
				return
			}
			common.FlashError(w, r, h.deps.Sessions, err, "Failed to send invite")
		} else {
			h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Invited "+email)
		}
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (h *Handlers) requireManage(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if sess.CanManageMembers() {
		return true
	}
	h.deps.Sessions.Flash(w, r, session.FlashError, "Only owners and admins can manage members")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
	return false
}

func (h *Handlers) buildPageData(ctx context.Context, sess *session.Session) (pageData, error) {
	data := pageData{
		SelfID:    sess.UserID,
		Roles:     api.Roles,
		CanManage: sess.CanManageMembers(),
	}

	if orgs, err := h.deps.Queries.Organizations(ctx, sess.Auth()); err != nil {
		if api.IsUnauthorized(err) {
			return data, err
		}
		data.OrgsErr = common.ErrorText(err, "Your organizations are unavailable right now.")
	} else {
		data.Organizations = orgs
	}

	members, err := h.deps.Queries.Members(ctx, sess.Auth(), api.PageOptions{Size: 100})
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load members.")
		return data, err
	}
	data.Members = members.Items
	return data, nil
}

func knownRole(role string) bool {
	for _, r := range api.Roles {
		if r == role {
			return true
		}
	}
	return false
}
