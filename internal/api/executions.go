package api

import (
	"context"
	"net/http"
)

// ExecutionListOptions filter the execution list.
type ExecutionListOptions struct {
	Page      int
	Size      int
	DatasetID string
	Status    string
}

// CreateExecutionRequest runs the given rules against a dataset.
type CreateExecutionRequest struct {
	DatasetID string   `json:"dataset_id"`
	RuleIDs   []string `json:"rule_ids"`
}

// Executions lists rule executions, newest first.
func (c *Client) Executions(ctx context.Context, opts ExecutionListOptions) (Page[Execution], error) {
	q := pageQuery(opts.Page, opts.Size)
	if opts.DatasetID != "" {
		q.Set("dataset_id", opts.DatasetID)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	var out Page[Execution]
	err := c.do(ctx, http.MethodGet, "/executions", q, nil, &out)
	return out, err
}

// Execution fetches a single execution.
func (c *Client) Execution(ctx context.Context, id string) (Execution, error) {
	var out Execution
	err := c.do(ctx, http.MethodGet, pathID("executions", id), nil, nil, &out)
	return out, err
}

// CreateExecution queues a new execution.
func (c *Client) CreateExecution(ctx context.Context, req CreateExecutionRequest) (Execution, error) {
	var out Execution
	err := c.do(ctx, http.MethodPost, "/executions", nil, req, &out)
	return out, err
}

// CancelExecution asks the backend to stop a queued or running execution.
func (c *Client) CancelExecution(ctx context.Context, id string) (Execution, error) {
	var out Execution
	err := c.do(ctx, http.MethodPost, pathID("executions", id, "cancel"), nil, nil, &out)
	return out, err
}
