// Package datasets lists, profiles, uploads and deletes the datasets
// under quality control.
package datasets

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Uploads are streamed through to the backend, but a runaway body should
// not tie up the proxy.
const maxUploadBytes = 512 << 20

type listData struct {
	views.BaseData
	Page       api.Page[api.Dataset]
	Pagination views.Pagination
	Query      string
	StreamURL  string
	CanEdit    bool
	LoadErr    string
}

type detailData struct {
	views.BaseData
	Dataset       api.Dataset
	Quality       *api.QualityScore
	Columns       []api.DatasetColumn
	ColumnsErr    string
	Executions    []api.Execution
	ExecutionsErr string
	CanEdit       bool
}

// Handlers provides HTTP handlers for the datasets feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// DatasetsPage renders the searchable dataset list.
func (h *Handlers) DatasetsPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	data, err := h.buildListData(r.Context(), sess, listOptions(r))
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}

	data.BaseData = common.Base(w, r, h.deps, "Datasets", "datasets")
	common.RenderPage(w, r, h.deps, "datasets", data)
}

// DatasetsPageUpdates re-renders the table fragment whenever the dataset
// list is invalidated. The stream carries the page's current filters.
func (h *Handlers) DatasetsPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	opts := listOptions(r)
	topics := []string{sess.Scope().Tag(query.TagDatasets)}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildListData(ctx, sess, opts)
		return h.deps.Views.Fragment("datasets_table", data)
	})
}

// DatasetPage renders one dataset's profile: columns, quality score and
// its latest executions. Viewing records the dataset in the user's
// recents.
func (h *Handlers) DatasetPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	auth := sess.Auth()
	id := chi.URLParam(r, "id")

	dataset, err := h.deps.Queries.Dataset(r.Context(), auth, id)
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to load dataset")
		http.Redirect(w, r, "/datasets", http.StatusSeeOther)
		return
	}

	data := detailData{Dataset: dataset, CanEdit: sess.CanEditData()}

	if cols, err := h.deps.Queries.DatasetColumns(r.Context(), auth, id); err != nil {
		data.ColumnsErr = common.ErrorText(err, "Column profile is unavailable.")
	} else {
		data.Columns = cols
	}

	// No score yet just hides the card; the dataset may never have been
	// checked.
	if quality, err := h.deps.Queries.QualityScore(r.Context(), auth, id); err == nil {
		data.Quality = &quality
	}

	execs, err := h.deps.Queries.Executions(r.Context(), auth, api.ExecutionListOptions{DatasetID: id, Size: 5})
	if err != nil {
		data.ExecutionsErr = common.ErrorText(err, "Executions are unavailable.")
	} else {
		data.Executions = execs.Items
	}

	if err := h.deps.Prefs.TouchDataset(sess.OrgID, sess.UserID, dataset.ID, dataset.Name); err != nil {
		h.deps.Logger.Warn("failed to record recent dataset", "error", err)
	}

	data.BaseData = common.Base(w, r, h.deps, dataset.Name, "datasets")
	common.RenderPage(w, r, h.deps, "dataset_detail", data)
}

// Upload streams the submitted file to the backend as a new dataset and
// lands on its profile page.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.CanEditData() {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Viewers cannot upload datasets")
		http.Redirect(w, r, "/datasets", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Choose a file to upload")
		http.Redirect(w, r, "/datasets", http.StatusSeeOther)
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	dataset, err := h.deps.Mutations.UploadDataset(r.Context(), sess.Auth(), name, header.Filename, file)
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Upload failed")
		http.Redirect(w, r, "/datasets", http.StatusSeeOther)
		return
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Uploaded "+dataset.Name)
	http.Redirect(w, r, "/datasets/"+dataset.ID, http.StatusSeeOther)
}

// Delete removes a dataset along with its executions and issues.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.CanEditData() {
		h.deps.Sessions.Flash(w, r, session.FlashError, "Viewers cannot delete datasets")
		http.Redirect(w, r, "/datasets", http.StatusSeeOther)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.deps.Mutations.DeleteDataset(r.Context(), sess.Auth(), id); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to delete dataset")
	} else {
		if err := h.deps.Prefs.ForgetDataset(sess.OrgID, id); err != nil {
			h.deps.Logger.Warn("failed to drop recent dataset", "error", err)
		}
		h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Dataset deleted")
	}
	http.Redirect(w, r, "/datasets", http.StatusSeeOther)
}

func (h *Handlers) buildListData(ctx context.Context, sess *session.Session, opts api.DatasetListOptions) (listData, error) {
	params := url.Values{}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}
	data := listData{
		Query:     opts.Query,
		CanEdit:   sess.CanEditData(),
		StreamURL: common.StreamURL("/datasets/updates", params, opts.Page),
	}

	page, err := h.deps.Queries.Datasets(ctx, sess.Auth(), opts)
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load datasets.")
		return data, err
	}
	data.Page = page
	data.Pagination = views.Paginate(page, "/datasets", params)
	return data, nil
}

func listOptions(r *http.Request) api.DatasetListOptions {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return api.DatasetListOptions{
		Page:  page,
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
	}
}
