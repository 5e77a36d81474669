// Package issues triages the rule violations executions record, with
// filtering, resolution and one-off value fixes.
package issues

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Handlers provides HTTP handlers for the issues feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// IssuesPage renders the filterable issue list with its summary strip.
func (h *Handlers) IssuesPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	filters, page := parseFilters(r)

	data, err := h.buildListData(r.Context(), sess, filters, page)
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}

	data.BaseData = common.Base(w, r, h.deps, "Issues", "issues")
	common.RenderPage(w, r, h.deps, "issues", data)
}

// IssuesPageUpdates re-renders the table and summary on issue
// invalidations.
func (h *Handlers) IssuesPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	filters, page := parseFilters(r)
	topics := []string{
		sess.Scope().Tag(query.TagIssues),
		sess.Scope().Tag(query.TagIssueSummary),
	}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildListData(ctx, sess, filters, page)
		table, err := h.deps.Views.Fragment("issues_table", data)
		if err != nil || data.LoadErr != "" {
			return table, err
		}
		summary, err := h.deps.Views.Fragment("issue_summary", data)
		if err != nil {
			return "", err
		}
		return table + summary, nil
	})
}

// Resolve marks an issue resolved with an optional comment.
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.CanEditData() {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Viewers cannot modify issues")
		http.Redirect(w, r, "/issues", http.StatusSeeOther)
		return
	}

	id := chi.URLParam(r, "id")
	comment := r.FormValue("comment")
	if _, err := h.deps.Mutations.ResolveIssue(r.Context(), sess.Auth(), id, comment); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to resolve issue")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Issue resolved")
	}
	common.RedirectBack(w, r, "/issues")
}

// Fix records a corrected value for an issue. The backend resolves the
// issue as part of the fix.
func (h *Handlers) Fix(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.CanEditData() {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Viewers cannot modify issues")
		http.Redirect(w, r, "/issues", http.StatusSeeOther)
		return
	}

	id := chi.URLParam(r, "id")
	newValue := r.FormValue("new_value")
	if newValue == "" {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Enter the corrected value")
		common.RedirectBack(w, r, "/issues")
		return
	}

	req := api.ApplyFixRequest{NewValue: newValue, Comment: r.FormValue("comment")}
	if _, err := h.deps.Mutations.ApplyFix(r.Context(), sess.Auth(), id, req); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to apply fix")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Fix applied")
	}
	common.RedirectBack(w, r, "/issues")
}

// SaveFilter pins the submitted query string under a name.
func (h *Handlers) SaveFilter(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	name := r.FormValue("name")
	queryStr := r.FormValue("query")
	if name == "" {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Give the filter a name")
		http.Redirect(w, r, "/issues", http.StatusSeeOther)
		return
	}

	if _, err := h.deps.Prefs.SaveFilter(sess.OrgID, sess.UserID, name, queryStr); err != nil {
		h.deps.Logger.Warn("failed to save filter", "name", name, "error", err)
		h.deps.Sessions.Flash(w, r, session.FlashError, "Saving filters is unavailable right now")
		http.Redirect(w, r, "/issues", http.StatusSeeOther)
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Saved filter "+name)
	target := "/issues"
	if queryStr != "" {
		target += "?" + queryStr
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ExportFilters downloads the user's saved filters as a YAML file, so a
// filter set can move between browsers or teammates.
func (h *Handlers) ExportFilters(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	saved, err := h.deps.Prefs.ListFilters(sess.OrgID, sess.UserID)
	if err != nil {
		h.deps.Logger.Warn("failed to export filters", "error", err)
		h.deps.Sessions.Flash(w, r, session.FlashError, "Saved filters are unavailable right now")
		http.Redirect(w, r, "/issues", http.StatusSeeOther)
		return
	}

	doc := filterExport{Filters: make([]exportedFilter, 0, len(saved))}
	for _, f := range saved {
		doc.Filters = append(doc.Filters, exportedFilter{Name: f.Name, Query: f.Query})
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		http.Error(w, "failed to encode filters", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="saved-filters.yaml"`)
	_, _ = w.Write(body)
}

// DeleteFilter removes a saved filter.
func (h *Handlers) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	id := chi.URLParam(r, "id")
	if err := h.deps.Prefs.DeleteFilter(sess.OrgID, sess.UserID, id); err != nil {
		h.deps.Logger.Warn("failed to delete filter", "filter", id, "error", err)
		h.deps.Sessions.Flash(w, r, session.FlashError, "Failed to delete filter")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Filter deleted")
	}
	common.RedirectBack(w, r, "/issues")
}

func (h *Handlers) buildListData(ctx context.Context, sess *session.Session, filters issueFilters, page int) (listData, error) {
	data := listData{
		Severities: api.Severities,
		Dimensions: api.Dimensions,
		Filters:    filters,
		StreamURL:  common.StreamURL("/issues/updates", filters.Values(), page),
		CanEdit:    sess.CanEditData(),
	}

	if datasets, err := h.deps.Queries.Datasets(ctx, sess.Auth(), api.DatasetListOptions{Size: 100}); err != nil {
		h.deps.Logger.Warn("failed to load datasets for issue filters", "error", err)
	} else {
		data.Datasets = datasets.Items
	}

	if saved, err := h.deps.Prefs.ListFilters(sess.OrgID, sess.UserID); err != nil {
		h.deps.Logger.Warn("failed to load saved filters", "error", err)
	} else {
		data.SavedFilters = saved
	}

	if summary, err := h.deps.Queries.IssueSummary(ctx, sess.Auth(), api.IssueSummaryOptions{
		ExecutionID: filters.ExecutionID,
		DatasetID:   filters.DatasetID,
	}); err != nil {
		h.deps.Logger.Warn("failed to load issue summary", "error", err)
	} else {
		data.Summary = summary
	}

	issues, err := h.deps.Queries.Issues(ctx, sess.Auth(), listOptions(filters, page))
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load issues.")
		return data, err
	}
	data.Page = issues
	data.Pagination = views.Paginate(issues, "/issues", filters.Values())
	return data, nil
}

func listOptions(filters issueFilters, page int) api.IssueListOptions {
	opts := api.IssueListOptions{
		Page:        page,
		ExecutionID: filters.ExecutionID,
		DatasetID:   filters.DatasetID,
		Severity:    filters.Severity,
		Dimension:   filters.Dimension,
	}
	if resolved, err := strconv.ParseBool(filters.Resolved); filters.Resolved != "" && err == nil {
		opts.Resolved = &resolved
	}
	return opts
}

func parseFilters(r *http.Request) (issueFilters, int) {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	return issueFilters{
		ExecutionID: values.Get("execution_id"),
		DatasetID:   values.Get("dataset_id"),
		Severity:    values.Get("severity"),
		Dimension:   values.Get("dimension"),
		Resolved:    values.Get("resolved"),
	}, page
}
