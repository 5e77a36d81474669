package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// DatasetListOptions filter the dataset list.
type DatasetListOptions struct {
	Page  int
	Size  int
	Query string
}

// Datasets lists the organization's datasets.
func (c *Client) Datasets(ctx context.Context, opts DatasetListOptions) (Page[Dataset], error) {
	q := pageQuery(opts.Page, opts.Size)
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	var out Page[Dataset]
	err := c.do(ctx, http.MethodGet, "/datasets", q, nil, &out)
	return out, err
}

// Dataset fetches a single dataset.
func (c *Client) Dataset(ctx context.Context, id string) (Dataset, error) {
	var out Dataset
	err := c.do(ctx, http.MethodGet, pathID("datasets", id), nil, nil, &out)
	return out, err
}

// DatasetColumns lists a dataset's columns with inferred types.
func (c *Client) DatasetColumns(ctx context.Context, id string) ([]DatasetColumn, error) {
	var out []DatasetColumn
	err := c.do(ctx, http.MethodGet, pathID("datasets", id, "columns"), nil, nil, &out)
	return out, err
}

// UploadDataset streams a file to the backend as a new dataset. The file
// contents pass through untouched.
func (c *Client) UploadDataset(ctx context.Context, name, filename string, file io.Reader) (Dataset, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("name", name); err != nil {
		return Dataset{}, fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Dataset{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Dataset{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/datasets", buf)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Dataset
	err = c.send(req, &out)
	return out, err
}

// DeleteDataset removes a dataset and its derived data.
func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("datasets", id), nil, nil, nil)
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	return q
}
