package api

import (
	"context"
	"net/http"
	"net/url"
)

// Overview fetches the dashboard aggregate for the active organization.
func (c *Client) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	err := c.do(ctx, http.MethodGet, "/advanced/overview", nil, nil, &out)
	return out, err
}

// QualityScore fetches the weighted quality score of a dataset.
func (c *Client) QualityScore(ctx context.Context, datasetID string) (QualityScore, error) {
	q := url.Values{}
	q.Set("dataset_id", datasetID)
	var out QualityScore
	err := c.do(ctx, http.MethodGet, "/advanced/quality-score", q, nil, &out)
	return out, err
}
