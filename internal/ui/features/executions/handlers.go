// Package executions queues quality check runs and follows them to
// completion.
package executions

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// pollInterval drives the detail page refresh while an execution is
// queued or running. Backend transitions never broadcast, polling is the
// only way they reach the page.
var pollInterval = 3 * time.Second

const formListSize = 100

type listData struct {
	views.BaseData
	Page            api.Page[api.Execution]
	Pagination      views.Pagination
	Datasets        []api.Dataset
	Rules           []api.Rule
	SelectedDataset string
	Statuses        []string
	StatusFilter    string
	StreamURL       string
	CanRun          bool
	FormErr         string
	LoadErr         string
}

type detailData struct {
	views.BaseData
	Execution api.Execution
	Issues    api.Page[api.Issue]
	CanRun    bool
	LoadErr   string
}

// Handlers provides HTTP handlers for the executions feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// ExecutionsPage renders the execution list and the run form.
func (h *Handlers) ExecutionsPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	data, err := h.buildListData(r.Context(), sess, listOptions(r))
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}
	data.SelectedDataset = r.URL.Query().Get("dataset_id")

	data.BaseData = common.Base(w, r, h.deps, "Executions", "executions")
	common.RenderPage(w, r, h.deps, "executions", data)
}

// ExecutionsPageUpdates re-renders the table fragment on execution
// invalidations.
func (h *Handlers) ExecutionsPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	opts := listOptions(r)
	topics := []string{sess.Scope().Tag(query.TagExecutions)}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildListData(ctx, sess, opts)
		return h.deps.Views.Fragment("executions_table", data)
	})
}

// Create queues the selected rules against the selected dataset.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.CanEditData() {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Viewers cannot run executions")
		http.Redirect(w, r, "/executions", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Invalid form submission")
		http.Redirect(w, r, "/executions", http.StatusSeeOther)
		return
	}
	datasetID := r.PostForm.Get("dataset_id")
	ruleIDs := r.PostForm["rule_ids"]

	var formErr string
	switch {
	case datasetID == "":
		formErr = "Choose a dataset to check"
	case len(ruleIDs) == 0:
		formErr = "Select at least one rule"
	}
	if formErr != "" {
		h.renderListWithFormErr(w, r, sess, datasetID, formErr)
		return
	}

	exec, err := h.deps.Mutations.CreateExecution(r.Context(), sess.Auth(), api.CreateExecutionRequest{
		DatasetID: datasetID,
		RuleIDs:   ruleIDs,
	})
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		h.renderListWithFormErr(w, r, sess, datasetID, common.ErrorText(err, "Failed to queue execution"))
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Execution queued")
	http.Redirect(w, r, "/executions/"+exec.ID, http.StatusSeeOther)
}

// Cancel stops a queued or running execution and returns to the page the
// cancel came from.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.CanEditData() {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Viewers cannot cancel executions")
		http.Redirect(w, r, "/executions", http.StatusSeeOther)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.deps.Mutations.CancelExecution(r.Context(), sess.Auth(), id); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to cancel execution")
	} else {
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Execution cancelled")
	}
	common.RedirectBack(w, r, "/executions")
}

// ExecutionPage renders one execution with the issues it found so far.
func (h *Handlers) ExecutionPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	exec, err := h.deps.Queries.Execution(r.Context(), sess.Auth(), id)
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to load execution")
		http.Redirect(w, r, "/executions", http.StatusSeeOther)
		return
	}

	data := detailData{Execution: exec, CanRun: sess.CanEditData()}
	issues, err := h.deps.Queries.Issues(r.Context(), sess.Auth(), api.IssueListOptions{ExecutionID: id, Size: 20})
	if err != nil {
		h.deps.Logger.Warn("failed to load execution issues", "execution", id, "error", err)
	} else {
		data.Issues = issues
	}

	data.BaseData = common.Base(w, r, h.deps, "Execution "+exec.ID, "executions")
	common.RenderPage(w, r, h.deps, "execution_detail", data)
}

// ExecutionPageUpdates streams detail re-renders. Invalidations arrive
// through the notifier; while the execution is non-terminal a poll tick
// drops the cached state so backend transitions come through as well.
func (h *Handlers) ExecutionPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	auth := sess.Auth()
	scope := sess.Scope()
	id := chi.URLParam(r, "id")

	sse := datastar.NewSSE(w, r)
	updates := h.deps.Notifier.Subscribe(
		scope.Tag(query.TagExecution(id)),
		scope.Tag(query.TagExecutions),
	)
	defer h.deps.Notifier.Unsubscribe(updates)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	terminal := false
	if exec, err := h.deps.Queries.Execution(r.Context(), auth, id); err == nil {
		terminal = api.ExecutionTerminal(exec.Status)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if terminal {
				continue
			}
			// The invalidation broadcast loops back into the updates
			// branch, which re-reads and patches.
			h.deps.Queries.Refresh(auth, query.TagExecution(id), query.TagIssues)
		case <-updates:
			data, _ := h.buildDetailData(r.Context(), sess, id)
			html, err := h.deps.Views.Fragment("execution_status", data)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElements(html); err != nil {
				return
			}
			terminal = data.LoadErr == "" && api.ExecutionTerminal(data.Execution.Status)
		}
	}
}

func (h *Handlers) buildDetailData(ctx context.Context, sess *session.Session, id string) (detailData, error) {
	data := detailData{CanRun: sess.CanEditData()}

	exec, err := h.deps.Queries.Execution(ctx, sess.Auth(), id)
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load execution.")
		return data, err
	}
	data.Execution = exec

	if issues, err := h.deps.Queries.Issues(ctx, sess.Auth(), api.IssueListOptions{ExecutionID: id, Size: 20}); err == nil {
		data.Issues = issues
	}
	return data, nil
}

func (h *Handlers) renderListWithFormErr(w http.ResponseWriter, r *http.Request, sess *session.Session, datasetID, formErr string) {
	data, err := h.buildListData(r.Context(), sess, api.ExecutionListOptions{})
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}
	data.SelectedDataset = datasetID
	data.FormErr = formErr
	data.BaseData = common.Base(w, r, h.deps, "Executions", "executions")
	common.RenderPage(w, r, h.deps, "executions", data)
}

func (h *Handlers) buildListData(ctx context.Context, sess *session.Session, opts api.ExecutionListOptions) (listData, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	data := listData{
		Statuses:     api.ExecutionStatuses,
		StatusFilter: opts.Status,
		StreamURL:    common.StreamURL("/executions/updates", params, opts.Page),
		CanRun:       sess.CanEditData(),
	}

	if data.CanRun {
		h.loadRunForm(ctx, sess, &data)
	}

	page, err := h.deps.Queries.Executions(ctx, sess.Auth(), opts)
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load executions.")
		return data, err
	}
	data.Page = page
	data.Pagination = views.Paginate(page, "/executions", params)
	return data, nil
}

// loadRunForm fills the dataset and rule pickers. Failures degrade to an
// inline form error without taking down the list.
func (h *Handlers) loadRunForm(ctx context.Context, sess *session.Session, data *listData) {
	datasets, err := h.deps.Queries.Datasets(ctx, sess.Auth(), api.DatasetListOptions{Size: formListSize})
	if err != nil {
		data.FormErr = common.ErrorText(err, "Datasets are unavailable right now.")
		return
	}
	data.Datasets = datasets.Items

	rules, err := h.deps.Queries.Rules(ctx, sess.Auth(), api.RuleListOptions{Size: formListSize})
	if err != nil {
		data.FormErr = common.ErrorText(err, "Rules are unavailable right now.")
		return
	}
	data.Rules = rules.Items
}

func listOptions(r *http.Request) api.ExecutionListOptions {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	return api.ExecutionListOptions{
		Page:   page,
		Status: values.Get("status"),
	}
}
