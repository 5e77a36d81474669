// Package reports requests export jobs, proxies their downloads and
// renders the Markdown summary report.
package reports

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

type pageData struct {
	views.BaseData
	Page       api.Page[api.Export]
	Pagination views.Pagination
	Formats    []string
	LastFormat string
	Datasets   []api.Dataset
	StreamURL  string
	FormErr    string
	LoadErr    string
}

type reportData struct {
	OrgName     string
	DatasetName string
	GeneratedAt time.Time
	Summary     api.IssueSummary
	Open        int
	Severities  []string
	Dimensions  []string
}

// Handlers provides HTTP handlers for the reports feature.
type Handlers struct {
	deps common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// ReportsPage renders the export list and request forms.
func (h *Handlers) ReportsPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	data, err := h.buildPageData(r.Context(), sess, page)
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}

	data.BaseData = common.Base(w, r, h.deps, "Reports", "reports")
	common.RenderPage(w, r, h.deps, "reports", data)
}

// ReportsPageUpdates re-renders the export table when exports change.
func (h *Handlers) ReportsPageUpdates(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	topics := []string{sess.Scope().Tag(query.TagExports)}

	common.StreamUpdates(w, r, h.deps.Notifier, topics, func(ctx context.Context) (string, error) {
		data, _ := h.buildPageData(ctx, sess, page)
		return h.deps.Views.Fragment("exports_table", data)
	})
}

// CreateExport queues an export job.
func (h *Handlers) CreateExport(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	format := r.FormValue("format")
	known := false
	for _, f := range api.ExportFormats {
		if f == format {
			known = true
			break
		}
	}
	if !known {
		h.renderWithFormErr(w, r, sess, "Choose an export format")
		return
	}

	req := api.CreateExportRequest{
		Format:      format,
		DatasetID:   r.FormValue("dataset_id"),
		ExecutionID: r.FormValue("execution_id"),
	}
	if _, err := h.deps.Mutations.CreateExport(r.Context(), sess.Auth(), req); err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		h.renderWithFormErr(w, r, sess, common.ErrorText(err, "Failed to queue export"))
		return
	}

	if err := h.deps.Prefs.SetState(sess.OrgID, sess.UserID, "export_format", format); err != nil {
		h.deps.Logger.Warn("failed to remember export format", "error", err)
	}

	h.deps.Sessions.Flash(w, r, session.FlashSuccess, "Export queued")
	http.Redirect(w, r, "/reports", http.StatusSeeOther)
}

// Download streams a finished export through to the browser.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	dl, err := h.deps.Queries.DownloadExport(r.Context(), sess.Auth(), id)
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to download export")
		http.Redirect(w, r, "/reports", http.StatusSeeOther)
		return
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := dl.Filename
	if filename == "" {
		filename = "export-" + id
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.Copy(w, dl.Body); err != nil {
		h.deps.Logger.Warn("export download interrupted", "export", id, "error", err)
	}
}

// DownloadMarkdown renders the issue summary as a Markdown file.
func (h *Handlers) DownloadMarkdown(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	datasetID := r.URL.Query().Get("dataset_id")

	summary, err := h.deps.Queries.IssueSummary(r.Context(), sess.Auth(), api.IssueSummaryOptions{DatasetID: datasetID})
	if err != nil {
		if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
			return
		}
		common.FlashError(w, r, h.deps.Sessions, err, "Failed to build report")
		http.Redirect(w, r, "/reports", http.StatusSeeOther)
		return
	}

	data := reportData{
		OrgName:     sess.OrgName,
		GeneratedAt: time.Now(),
		Summary:     summary,
		Open:        summary.Total - summary.Resolved,
		Severities:  api.Severities,
		Dimensions:  api.Dimensions,
	}
	if datasetID != "" {
		if dataset, err := h.deps.Queries.Dataset(r.Context(), sess.Auth(), datasetID); err == nil {
			data.DatasetName = dataset.Name
		}
	}

	html, err := h.deps.Views.Fragment("report_html", data)
	if err != nil {
		h.deps.Logger.Error("failed to render report", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		h.deps.Logger.Error("failed to convert report", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	filename := "quality-report-" + time.Now().Format("2006-01-02") + ".md"
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = io.WriteString(w, markdown)
}

func (h *Handlers) renderWithFormErr(w http.ResponseWriter, r *http.Request, sess *session.Session, formErr string) {
	data, err := h.buildPageData(r.Context(), sess, 0)
	if common.HandleUnauthorized(w, r, h.deps.Sessions, err) {
		return
	}
	data.FormErr = formErr
	data.BaseData = common.Base(w, r, h.deps, "Reports", "reports")
	common.RenderPage(w, r, h.deps, "reports", data)
}

func (h *Handlers) buildPageData(ctx context.Context, sess *session.Session, page int) (pageData, error) {
	data := pageData{
		Formats:   api.ExportFormats,
		StreamURL: common.StreamURL("/reports/updates", url.Values{}, page),
	}

	if last, err := h.deps.Prefs.GetState(sess.OrgID, sess.UserID, "export_format"); err != nil {
		h.deps.Logger.Warn("failed to load export format preference", "error", err)
	} else {
		data.LastFormat = last
	}

	if datasets, err := h.deps.Queries.Datasets(ctx, sess.Auth(), api.DatasetListOptions{Size: 100}); err != nil {
		h.deps.Logger.Warn("failed to load datasets for report forms", "error", err)
	} else {
		data.Datasets = datasets.Items
	}

	exports, err := h.deps.Queries.Exports(ctx, sess.Auth(), api.PageOptions{Page: page})
	if err != nil {
		data.LoadErr = common.ErrorText(err, "Failed to load exports.")
		return data, err
	}
	data.Page = exports
	data.Pagination = views.Paginate(exports, "/reports", url.Values{})
	return data, nil
}
