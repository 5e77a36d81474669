package query

import "net/url"

// Cache tags. Every read declares the tags it belongs to; every mutation
// invalidates by tag. List and detail reads of a resource share the broad
// tag so invalidating it refetches both.
const (
	TagOverview     = "overview"
	TagDatasets     = "datasets"
	TagRules        = "rules"
	TagExecutions   = "executions"
	TagIssues       = "issues"
	TagIssueSummary = "issue-summary"
	TagQuality      = "quality"
	TagExports      = "exports"
	TagMembers      = "members"
	TagOrgs         = "organizations"
)

// TagDataset narrows invalidation to one dataset's detail reads.
func TagDataset(id string) string { return "dataset:" + id }

// TagRule narrows invalidation to one rule's detail reads.
func TagRule(id string) string { return "rule:" + id }

// TagExecution narrows invalidation to one execution's detail reads.
func TagExecution(id string) string { return "execution:" + id }

// TagIssue narrows invalidation to one issue's detail reads.
func TagIssue(id string) string { return "issue:" + id }

// Key builds a canonical cache key from a resource and key/value parameter
// pairs. Empty values are skipped and parameters are sorted, so equivalent
// requests share a key.
func Key(resource string, kv ...string) string {
	params := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			params.Set(kv[i], kv[i+1])
		}
	}
	if len(params) == 0 {
		return resource
	}
	return resource + "?" + params.Encode()
}
