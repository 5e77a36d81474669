// Package dashboard renders the organization-wide quality overview.
package dashboard

import (
	"context"
	"net/http"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/prefs"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

type pageData struct {
	views.BaseData
	Overview   api.Overview
	Severities []string
	Recents    []prefs.RecentDataset
	LoadErr    string
}

// Handlers provides HTTP handlers for the dashboard feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// DashboardPage renders the overview with the latest numbers.
func (h *Handlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	data, err := h.buildDashboardData(r.Context(), sess)
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}

	data.BaseData = common.Base(w, r, h.deps, "Dashboard", "dashboard")
	common.RenderPage(w, r, h.deps, "dashboard", data)
}

// DashboardPageUpdates streams fresh overview fragments whenever a
// mutation invalidates the cached numbers.
func (h *Handlers) DashboardPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	topics := []string{sess.Scope().Tag(query.TagOverview)}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildDashboardData(ctx, sess)
		return h.deps.Views.Fragment("dashboard_main", data)
	})
}

func (h *Handlers) buildDashboardData(ctx context.Context, sess *session.Session) (pageData, error) {
	data := pageData{Severities: api.Severities}

	recents, err := h.deps.Prefs.RecentDatasets(sess.OrgID, sess.UserID, 5)
	if err != nil {
		h.deps.Logger.Warn("failed to load recent datasets", "error", err)
	}
	data.Recents = recents

	overview, err := h.deps.Queries.Overview(ctx, sess.Auth())
	if err != nil {
		data.LoadErr = common.ErrorText(err, "The overview is unavailable right now.")
		return data, err
	}
	data.Overview = overview
	return data, nil
}
