package query

import (
	"context"
	"strconv"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
)

// Auth carries what a read needs: the session's bearer token and its cache
// scope.
type Auth struct {
	Token string
	Scope Scope
}

// Queries are the typed read paths, one per backend resource, each reading
// through the cache with its tags declared.
type Queries struct {
	api   *api.Client
	cache *Cache
}

// NewQueries binds the API client to the cache.
func NewQueries(client *api.Client, cache *Cache) *Queries {
	return &Queries{api: client, cache: cache}
}

// Refresh drops cached entries for the tags so the next read refetches.
// Pages polling backend-driven state (execution status) use this between
// ticks.
func (q *Queries) Refresh(a Auth, tags ...string) {
	q.cache.InvalidateTags(a.Scope, tags...)
}

// Overview reads the dashboard aggregate.
func (q *Queries) Overview(ctx context.Context, a Auth) (api.Overview, error) {
	return Fetch(ctx, q.cache, a.Scope, "overview", []string{TagOverview}, func(ctx context.Context) (api.Overview, error) {
		return q.api.Bound(a.Token).Overview(ctx)
	})
}

// QualityScore reads a dataset's weighted quality score.
func (q *Queries) QualityScore(ctx context.Context, a Auth, datasetID string) (api.QualityScore, error) {
	key := Key("quality-score", "dataset_id", datasetID)
	tags := []string{TagQuality, TagDataset(datasetID)}
	return Fetch(ctx, q.cache, a.Scope, key, tags, func(ctx context.Context) (api.QualityScore, error) {
		return q.api.Bound(a.Token).QualityScore(ctx, datasetID)
	})
}

// Datasets reads a page of datasets.
func (q *Queries) Datasets(ctx context.Context, a Auth, opts api.DatasetListOptions) (api.Page[api.Dataset], error) {
	key := Key("datasets", "page", num(opts.Page), "size", num(opts.Size), "q", opts.Query)
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagDatasets}, func(ctx context.Context) (api.Page[api.Dataset], error) {
		return q.api.Bound(a.Token).Datasets(ctx, opts)
	})
}

// Dataset reads one dataset.
func (q *Queries) Dataset(ctx context.Context, a Auth, id string) (api.Dataset, error) {
	tags := []string{TagDatasets, TagDataset(id)}
	return Fetch(ctx, q.cache, a.Scope, "datasets/"+id, tags, func(ctx context.Context) (api.Dataset, error) {
		return q.api.Bound(a.Token).Dataset(ctx, id)
	})
}

// DatasetColumns reads a dataset's column profile.
func (q *Queries) DatasetColumns(ctx context.Context, a Auth, id string) ([]api.DatasetColumn, error) {
	tags := []string{TagDatasets, TagDataset(id)}
	return Fetch(ctx, q.cache, a.Scope, "datasets/"+id+"/columns", tags, func(ctx context.Context) ([]api.DatasetColumn, error) {
		return q.api.Bound(a.Token).DatasetColumns(ctx, id)
	})
}

// Rules reads a page of quality rules.
func (q *Queries) Rules(ctx context.Context, a Auth, opts api.RuleListOptions) (api.Page[api.Rule], error) {
	key := Key("rules",
		"page", num(opts.Page), "size", num(opts.Size), "q", opts.Query,
		"dimension", opts.Dimension, "severity", opts.Severity, "active", boolParam(opts.Active))
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagRules}, func(ctx context.Context) (api.Page[api.Rule], error) {
		return q.api.Bound(a.Token).Rules(ctx, opts)
	})
}

// Rule reads one rule.
func (q *Queries) Rule(ctx context.Context, a Auth, id string) (api.Rule, error) {
	tags := []string{TagRules, TagRule(id)}
	return Fetch(ctx, q.cache, a.Scope, "rules/"+id, tags, func(ctx context.Context) (api.Rule, error) {
		return q.api.Bound(a.Token).Rule(ctx, id)
	})
}

// Executions reads a page of executions.
func (q *Queries) Executions(ctx context.Context, a Auth, opts api.ExecutionListOptions) (api.Page[api.Execution], error) {
	key := Key("executions", "page", num(opts.Page), "size", num(opts.Size), "dataset_id", opts.DatasetID, "status", opts.Status)
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagExecutions}, func(ctx context.Context) (api.Page[api.Execution], error) {
		return q.api.Bound(a.Token).Executions(ctx, opts)
	})
}

// Execution reads one execution.
func (q *Queries) Execution(ctx context.Context, a Auth, id string) (api.Execution, error) {
	tags := []string{TagExecutions, TagExecution(id)}
	return Fetch(ctx, q.cache, a.Scope, "executions/"+id, tags, func(ctx context.Context) (api.Execution, error) {
		return q.api.Bound(a.Token).Execution(ctx, id)
	})
}

// Issues reads a page of issues.
func (q *Queries) Issues(ctx context.Context, a Auth, opts api.IssueListOptions) (api.Page[api.Issue], error) {
	key := Key("issues",
		"page", num(opts.Page),
		"size", num(opts.Size),
		"execution_id", opts.ExecutionID,
		"dataset_id", opts.DatasetID,
		"severity", opts.Severity,
		"dimension", opts.Dimension,
		"resolved", boolParam(opts.Resolved))
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagIssues}, func(ctx context.Context) (api.Page[api.Issue], error) {
		return q.api.Bound(a.Token).Issues(ctx, opts)
	})
}

// Issue reads one issue.
func (q *Queries) Issue(ctx context.Context, a Auth, id string) (api.Issue, error) {
	tags := []string{TagIssues, TagIssue(id)}
	return Fetch(ctx, q.cache, a.Scope, "issues/"+id, tags, func(ctx context.Context) (api.Issue, error) {
		return q.api.Bound(a.Token).Issue(ctx, id)
	})
}

// IssueSummary reads aggregate issue counts.
func (q *Queries) IssueSummary(ctx context.Context, a Auth, opts api.IssueSummaryOptions) (api.IssueSummary, error) {
	key := Key("issues/summary", "execution_id", opts.ExecutionID, "dataset_id", opts.DatasetID)
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagIssueSummary}, func(ctx context.Context) (api.IssueSummary, error) {
		return q.api.Bound(a.Token).IssueSummary(ctx, opts)
	})
}

// IssueFixes reads the fixes recorded for an issue.
func (q *Queries) IssueFixes(ctx context.Context, a Auth, issueID string) ([]api.Fix, error) {
	tags := []string{TagIssues, TagIssue(issueID)}
	return Fetch(ctx, q.cache, a.Scope, "issues/"+issueID+"/fixes", tags, func(ctx context.Context) ([]api.Fix, error) {
		return q.api.Bound(a.Token).IssueFixes(ctx, issueID)
	})
}

// Exports reads a page of report exports.
func (q *Queries) Exports(ctx context.Context, a Auth, opts api.PageOptions) (api.Page[api.Export], error) {
	key := Key("exports", "page", num(opts.Page), "size", num(opts.Size))
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagExports}, func(ctx context.Context) (api.Page[api.Export], error) {
		return q.api.Bound(a.Token).Exports(ctx, opts)
	})
}

// DownloadExport streams a finished export. Downloads are never cached,
// the body is consumed once.
func (q *Queries) DownloadExport(ctx context.Context, a Auth, id string) (api.Download, error) {
	return q.api.Bound(a.Token).DownloadExport(ctx, id)
}

// Members reads a page of the organization's members.
func (q *Queries) Members(ctx context.Context, a Auth, opts api.PageOptions) (api.Page[api.Member], error) {
	key := Key("members", "page", num(opts.Page), "size", num(opts.Size))
	return Fetch(ctx, q.cache, a.Scope, key, []string{TagMembers}, func(ctx context.Context) (api.Page[api.Member], error) {
		return q.api.Bound(a.Token).Members(ctx, opts)
	})
}

// Organizations reads the user's organization memberships.
func (q *Queries) Organizations(ctx context.Context, a Auth) ([]api.OrganizationMembership, error) {
	return Fetch(ctx, q.cache, a.Scope, "organizations", []string{TagOrgs}, func(ctx context.Context) ([]api.OrganizationMembership, error) {
		return q.api.Bound(a.Token).Organizations(ctx)
	})
}

func num(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func boolParam(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
