package api

import (
	"context"
	"net/http"
	"strconv"
)

// IssueListOptions filter the issue list.
type IssueListOptions struct {
	Page        int
	Size        int
	ExecutionID string
	DatasetID   string
	Severity    string
	Dimension   string
	Resolved    *bool
}

// IssueSummaryOptions scope an issue summary to an execution or dataset.
type IssueSummaryOptions struct {
	ExecutionID string
	DatasetID   string
}

type resolveIssueRequest struct {
	Comment string `json:"comment,omitempty"`
}

// ApplyFixRequest records a corrected value for an issue.
type ApplyFixRequest struct {
	NewValue string `json:"new_value"`
	Comment  string `json:"comment,omitempty"`
}

// Issues lists rule violations.
func (c *Client) Issues(ctx context.Context, opts IssueListOptions) (Page[Issue], error) {
	q := pageQuery(opts.Page, opts.Size)
	if opts.ExecutionID != "" {
		q.Set("execution_id", opts.ExecutionID)
	}
	if opts.DatasetID != "" {
		q.Set("dataset_id", opts.DatasetID)
	}
	if opts.Severity != "" {
		q.Set("severity", opts.Severity)
	}
	if opts.Dimension != "" {
		q.Set("dimension", opts.Dimension)
	}
	if opts.Resolved != nil {
		q.Set("resolved", strconv.FormatBool(*opts.Resolved))
	}
	var out Page[Issue]
	err := c.do(ctx, http.MethodGet, "/issues", q, nil, &out)
	return out, err
}

// Issue fetches a single issue.
func (c *Client) Issue(ctx context.Context, id string) (Issue, error) {
	var out Issue
	err := c.do(ctx, http.MethodGet, pathID("issues", id), nil, nil, &out)
	return out, err
}

// ResolveIssue marks an issue resolved with an optional comment.
func (c *Client) ResolveIssue(ctx context.Context, id, comment string) (Issue, error) {
	var out Issue
	err := c.do(ctx, http.MethodPost, pathID("issues", id, "resolve"), nil, resolveIssueRequest{Comment: comment}, &out)
	return out, err
}

// IssueSummary aggregates issue counts for an execution or dataset.
func (c *Client) IssueSummary(ctx context.Context, opts IssueSummaryOptions) (IssueSummary, error) {
	q := pageQuery(0, 0)
	if opts.ExecutionID != "" {
		q.Set("execution_id", opts.ExecutionID)
	}
	if opts.DatasetID != "" {
		q.Set("dataset_id", opts.DatasetID)
	}
	var out IssueSummary
	err := c.do(ctx, http.MethodGet, "/issues/summary", q, nil, &out)
	return out, err
}

// ApplyFix records a fix for an issue. The backend resolves the issue as a
// side effect.
func (c *Client) ApplyFix(ctx context.Context, issueID string, req ApplyFixRequest) (Fix, error) {
	var out Fix
	err := c.do(ctx, http.MethodPost, pathID("issues", issueID, "fixes"), nil, req, &out)
	return out, err
}

// IssueFixes lists the fixes recorded for an issue.
func (c *Client) IssueFixes(ctx context.Context, issueID string) ([]Fix, error) {
	var out []Fix
	err := c.do(ctx, http.MethodGet, pathID("issues", issueID, "fixes"), nil, nil, &out)
	return out, err
}
