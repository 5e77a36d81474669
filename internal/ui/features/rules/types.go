package rules

import (
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// ruleFilters holds the list filters as submitted, including the
// three-state active select.
type ruleFilters struct {
	Dimension string
	Severity  string
	Active    string
}

type listData struct {
	views.BaseData
	Page       api.Page[api.Rule]
	Pagination views.Pagination
	Filters    ruleFilters
	Dimensions []string
	Severities []string
	StreamURL  string
	CanManage  bool
	LoadErr    string
}

type formData struct {
	views.BaseData
	IsNew      bool
	Rule       api.Rule
	ParamsText string
	Dimensions []string
	Severities []string
	Error      string
}
