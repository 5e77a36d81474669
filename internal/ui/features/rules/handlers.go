// Package rules manages the organization's quality rule catalog.
package rules

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Handlers provides HTTP handlers for the rules feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// RulesPage renders the filterable rule catalog.
func (h *Handlers) RulesPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	data, err := h.buildListData(r.Context(), sess, listOptions(r))
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}

	data.BaseData = common.Base(w, r, h.deps, "Rules", "rules")
	common.RenderPage(w, r, h.deps, "rules", data)
}

// RulesPageUpdates re-renders the table fragment on rule invalidations.
func (h *Handlers) RulesPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	opts := listOptions(r)
	topics := []string{sess.Scope().Tag(query.TagRules)}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildListData(ctx, sess, opts)
		return h.deps.Views.Fragment("rules_table", data)
	})
}

// NewRulePage renders an empty rule form.
func (h *Handlers) NewRulePage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	data := formData{
		IsNew:      true,
		Rule:       api.Rule{Dimension: api.DimensionCompleteness, Severity: api.SeverityMedium},
		Dimensions: api.Dimensions,
		Severities: api.Severities,
	}
	data.BaseData = common.Base(w, r, h.deps, "New rule", "rules")
	common.RenderPage(w, r, h.deps, "rule_form", data)
}

// EditRulePage renders the form pre-filled with an existing rule.
func (h *Handlers) EditRulePage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	rule, err := h.deps.Queries.Rule(r.Context(), sess.Auth(), chi.URLParam(r, "id"))
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to load rule")
		http.Redirect(w, r, "/rules", http.StatusSeeOther)
		return
	}

	data := formData{
		Rule:       rule,
		ParamsText: formatParams(rule.Params),
		Dimensions: api.Dimensions,
		Severities: api.Severities,
	}
	data.BaseData = common.Base(w, r, h.deps, "Edit "+rule.Name, "rules")
	common.RenderPage(w, r, h.deps, "rule_form", data)
}

// Create adds a rule from the submitted form.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	form := formData{
		IsNew: true,
		Rule: api.Rule{
			Name:        strings.TrimSpace(r.FormValue("name")),
			Description: strings.TrimSpace(r.FormValue("description")),
			Dimension:   r.FormValue("dimension"),
			Severity:    r.FormValue("severity"),
		},
		ParamsText: r.FormValue("params"),
		Dimensions: api.Dimensions,
		Severities: api.Severities,
	}

	params, paramsErr := parseParams(form.ParamsText)
	switch {
	case form.Rule.Name == "":
		form.Error = "Name is required"
	case paramsErr != "":
		form.Error = paramsErr
	}
	if form.Error != "" {
		form.BaseData = common.Base(w, r, h.deps, "New rule", "rules")
		common.RenderPage(w, r, h.deps, "rule_form", form)
		return
	}

	rule, err := h.deps.Mutations.CreateRule(r.Context(), sess.Auth(), api.CreateRuleRequest{
		Name:        form.Rule.Name,
		Description: form.Rule.Description,
		Dimension:   form.Rule.Dimension,
		Severity:    form.Rule.Severity,
		Params:      params,
	})
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		form.Error = common.ErrorText(err, "Failed to create rule")
		form.BaseData = common.Base(w, r, h.deps, "New rule", "rules")
		common.RenderPage(w, r, h.deps, "rule_form", form)
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Created rule "+rule.Name)
	http.Redirect(w, r, "/rules", http.StatusSeeOther)
}

// Update saves the full form over an existing rule.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}
	id := chi.URLParam(r, "id")

	form := formData{
		Rule: api.Rule{
			ID:          id,
			Name:        strings.TrimSpace(r.FormValue("name")),
			Description: strings.TrimSpace(r.FormValue("description")),
			Dimension:   r.FormValue("dimension"),
			Severity:    r.FormValue("severity"),
			IsActive:    r.FormValue("is_active") == "true",
		},
		ParamsText: r.FormValue("params"),
		Dimensions: api.Dimensions,
		Severities: api.Severities,
	}

	params, paramsErr := parseParams(form.ParamsText)
	switch {
	case form.Rule.Name == "":
		form.Error = "Name is required"
	case paramsErr != "":
		form.Error = paramsErr
	}
	if form.Error != "" {
		form.BaseData = common.Base(w, r, h.deps, "Edit rule", "rules")
		common.RenderPage(w, r, h.deps, "rule_form", form)
		return
	}

	if params == nil {
		params = map[string]string{}
	}
	req := api.UpdateRuleRequest{
		Name:        &form.Rule.Name,
		Description: &form.Rule.Description,
		Dimension:   &form.Rule.Dimension,
		Severity:    &form.Rule.Severity,
		IsActive:    &form.Rule.IsActive,
		Params:      &params,
	}
	rule, err := h.deps.Mutations.UpdateRule(r.Context(), sess.Auth(), id, req)
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		form.Error = common.ErrorText(err, "Failed to update rule")
		form.BaseData = common.Base(w, r, h.deps, "Edit rule", "rules")
		common.RenderPage(w, r, h.deps, "rule_form", form)
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Saved rule "+rule.Name)
	http.Redirect(w, r, "/rules", http.StatusSeeOther)
}

// Toggle flips a rule between active and disabled.
func (h *Handlers) Toggle(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}
	id := chi.URLParam(r, "id")

	rule, err := h.deps.Queries.Rule(r.Context(), sess.Auth(), id)
	if err == nil {
		_, err = h.deps.Mutations.ToggleRule(r.Context(), sess.Auth(), id, !rule.IsActive)
	}
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to toggle rule")
	}
	http.Redirect(w, r, "/rules", http.StatusSeeOther)
}

// Delete removes a rule from the catalog.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !h.requireManage(w, r, sess) {
		return
	}

	if err := h.deps.Mutations.DeleteRule(r.Context(), sess.Auth(), chi.URLParam(r, "id")); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to delete rule")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Rule deleted")
	}
	http.Redirect(w, r, "/rules", http.StatusSeeOther)
}

func (h *Handlers) requireManage(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if sess.CanManageRules() {
		return true
	}
	h.deps.Sessions.Flash(w, r, session.FlashError, "Only owners and admins can manage rules")
	http.Redirect(w, r, "/rules", http.StatusSeeOther)
	return false
}

func (h *Handlers) buildListData(ctx context.Context, sess *session.Session, opts api.RuleListOptions) (listData, error) {
	params := url.Values{}
	if opts.Dimension != "" {
		params.Set("dimension", opts.Dimension)
	}
	if opts.Severity != "" {
		params.Set("severity", opts.Severity)
	}
	filters := ruleFilters{Dimension: opts.Dimension, Severity: opts.Severity}
	if opts.Active != nil {
		filters.Active = strconv.FormatBool(*opts.Active)
		params.Set("active", filters.Active)
	}

	data := listData{
		Filters:    filters,
		Dimensions: api.Dimensions,
		Severities: api.Severities,
		StreamURL:  common.StreamURL("/rules/updates", params, opts.Page),
		CanManage:  sess.CanManageRules(),
	}

	page, err := h.deps.Queries.Rules(ctx, sess.Auth(), opts)
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load rules.")
		return data, err
	}
	data.Page = page
	data.Pagination = views.Paginate(page, "/rules", params)
	return data, nil
}

func listOptions(r *http.Request) api.RuleListOptions {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	opts := api.RuleListOptions{
		Page:      page,
		Dimension: values.Get("dimension"),
		Severity:  values.Get("severity"),
	}
	if active, err := strconv.ParseBool(values.Get("active")); err == nil {
		opts.Active = &active
	}
	return opts
}

// parseParams turns key=value lines into the rule's parameter map. Blank
// lines are skipped. The second return is the form error to show, empty
// when the input parsed.
func parseParams(text string) (map[string]string, string) {
	params := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Sprintf("Parameter line %q must be key=value", line)
		}
		params[key] = strings.TrimSpace(value)
	}
	if len(params) == 0 {
		return nil, ""
	}
	return params, ""
}

// formatParams renders a parameter map as sorted key=value lines for the
// form textarea.
func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+params[k])
	}
	return strings.Join(lines, "\n")
}
