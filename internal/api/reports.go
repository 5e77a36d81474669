package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// CreateExportRequest asks the backend to produce a report export.
type CreateExportRequest struct {
	Format      string `json:"format"`
	DatasetID   string `json:"dataset_id,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`
}

// Download is a streamed export body. The caller must close Body.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Exports lists requested report exports.
func (c *Client) Exports(ctx context.Context, opts PageOptions) (Page[Export], error) {
	var out Page[Export]
	err := c.do(ctx, http.MethodGet, "/reports/exports", pageQuery(opts.Page, opts.Size), nil, &out)
	return out, err
}

// CreateExport queues a report export.
func (c *Client) CreateExport(ctx context.Context, req CreateExportRequest) (Export, error) {
	var out Export
	err := c.do(ctx, http.MethodPost, "/reports/exports", nil, req, &out)
	return out, err
}

// DownloadExport streams a finished export's bytes.
func (c *Client) DownloadExport(ctx context.Context, id string) (Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathID("reports", "exports", id, "download"), nil)
	if err != nil {
		return Download{}, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.raw(req)
	if err != nil {
		return Download{}, err
	}
	return Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

func dispositionFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
