package issues

import (
	"net/url"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/prefs"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// issueFilters carries the list filters through templates, the stream URL
// and saved filter queries.
type issueFilters struct {
	ExecutionID string
	DatasetID   string
	Severity    string
	Dimension   string
	Resolved    string
}

// Values returns the filters as query parameters, empty ones omitted.
func (f issueFilters) Values() url.Values {
	v := url.Values{}
	if f.ExecutionID != "" {
		v.Set("execution_id", f.ExecutionID)
	}
	if f.DatasetID != "" {
		v.Set("dataset_id", f.DatasetID)
	}
	if f.Severity != "" {
		v.Set("severity", f.Severity)
	}
	if f.Dimension != "" {
		v.Set("dimension", f.Dimension)
	}
	if f.Resolved != "" {
		v.Set("resolved", f.Resolved)
	}
	return v
}

// Encode renders the filters as a query string for saved filters.
func (f issueFilters) Encode() string {
	return f.Values().Encode()
}

// filterExport is the YAML document written by the filter export.
type filterExport struct {
	Filters []exportedFilter `yaml:"filters"`
}

type exportedFilter struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

type listData struct {
	views.BaseData
	Page         api.Page[api.Issue]
	Pagination   views.Pagination
	Summary      api.IssueSummary
	Severities   []string
	Dimensions   []string
	Datasets     []api.Dataset
	Filters      issueFilters
	SavedFilters []prefs.SavedFilter
	StreamURL    string
	CanEdit      bool
	LoadErr      string
}
