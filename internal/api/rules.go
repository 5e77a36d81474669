package api

import (
	"context"
	"net/http"
	"strconv"
)

// RuleListOptions filter the rule list.
type RuleListOptions struct {
	Page      int
	Size      int
	Query     string
	Dimension string
	Severity  string
	Active    *bool
}

// CreateRuleRequest configures a new quality rule.
type CreateRuleRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Dimension   string            `json:"dimension"`
	Severity    string            `json:"severity"`
	Params      map[string]string `json:"params,omitempty"`
}

// UpdateRuleRequest is a partial rule update. Nil fields are left unchanged.
type UpdateRuleRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Dimension   *string            `json:"dimension,omitempty"`
	Severity    *string            `json:"severity,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
	Params      *map[string]string `json:"params,omitempty"`
}

// Rules lists the organization's quality rules.
func (c *Client) Rules(ctx context.Context, opts RuleListOptions) (Page[Rule], error) {
	q := pageQuery(opts.Page, opts.Size)
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Dimension != "" {
		q.Set("dimension", opts.Dimension)
	}
	if opts.Severity != "" {
		q.Set("severity", opts.Severity)
	}
	if opts.Active != nil {
		q.Set("active", strconv.FormatBool(*opts.Active))
	}
	var out Page[Rule]
	err := c.do(ctx, http.MethodGet, "/rules", q, nil, &out)
	return out, err
}

// Rule fetches a single rule.
func (c *Client) Rule(ctx context.Context, id string) (Rule, error) {
	var out Rule
	err := c.do(ctx, http.MethodGet, pathID("rules", id), nil, nil, &out)
	return out, err
}

// CreateRule adds a rule to the organization's catalog.
func (c *Client) CreateRule(ctx context.Context, req CreateRuleRequest) (Rule, error) {
	var out Rule
	err := c.do(ctx, http.MethodPost, "/rules", nil, req, &out)
	return out, err
}

// UpdateRule applies a partial update to a rule.
func (c *Client) UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (Rule, error) {
	var out Rule
	err := c.do(ctx, http.MethodPatch, pathID("rules", id), nil, req, &out)
	return out, err
}

// DeleteRule removes a rule from the catalog.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("rules", id), nil, nil, nil)
}
