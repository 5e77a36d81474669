package api

import "time"

// Page is the backend pagination envelope shared by every list endpoint.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// PageOptions selects a page of a list endpoint. Zero values are omitted so
// the backend applies its defaults.
type PageOptions struct {
	Page int
	Size int
}

// Membership roles, least to most privileged.
const (
	RoleViewer  = "viewer"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
)

// Roles lists the assignable membership roles in display order.
var Roles = []string{RoleOwner, RoleAdmin, RoleAnalyst, RoleViewer}

// Issue and rule severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Severities lists severities from most to least severe.
var Severities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Data quality dimensions a rule checks.
const (
	DimensionCompleteness = "completeness"
	DimensionValidity     = "validity"
	DimensionConsistency  = "consistency"
	DimensionUniqueness   = "uniqueness"
	DimensionTimeliness   = "timeliness"
)

// Dimensions lists the quality dimensions in display order.
var Dimensions = []string{
	DimensionCompleteness,
	DimensionValidity,
	DimensionConsistency,
	DimensionUniqueness,
	DimensionTimeliness,
}

// Execution statuses. The backend advances queued through running to one of
// the terminal states.
const (
	ExecutionQueued             = "queued"
	ExecutionRunning            = "running"
	ExecutionSucceeded          = "succeeded"
	ExecutionFailed             = "failed"
	ExecutionPartiallySucceeded = "partially_succeeded"
	ExecutionCancelled          = "cancelled"
)

// ExecutionStatuses lists execution states in lifecycle order.
var ExecutionStatuses = []string{
	ExecutionQueued,
	ExecutionRunning,
	ExecutionSucceeded,
	ExecutionPartiallySucceeded,
	ExecutionFailed,
	ExecutionCancelled,
}

// ExecutionTerminal reports whether status is a final execution state.
func ExecutionTerminal(status string) bool {
	switch status {
	case ExecutionSucceeded, ExecutionFailed, ExecutionPartiallySucceeded, ExecutionCancelled:
		return true
	}
	return false
}

// User is an authenticated account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Organization is a tenant.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// OrganizationMembership is an organization the current user belongs to.
type OrganizationMembership struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Role string `json:"role"`
}

// AuthPayload is the response to login, register and organization switch.
type AuthPayload struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	User         User         `json:"user"`
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
}

// Identity describes the authenticated user within the active organization.
type Identity struct {
	User         User         `json:"user"`
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
}

// Member is a user's membership in the active organization.
type Member struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Dataset is an uploaded tabular file tracked by the backend.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
	Status      string    `json:"status"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// DatasetColumn describes one column of a dataset.
type DatasetColumn struct {
	Name         string `json:"name"`
	InferredType string `json:"inferred_type"`
	NullCount    int    `json:"null_count"`
}

// Rule is a data quality check configured for the organization.
type Rule struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Dimension   string            `json:"dimension"`
	Severity    string            `json:"severity"`
	IsActive    bool              `json:"is_active"`
	Params      map[string]string `json:"params"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Execution is one run of a set of rules against a dataset.
type Execution struct {
	ID          string     `json:"id"`
	DatasetID   string     `json:"dataset_id"`
	DatasetName string     `json:"dataset_name"`
	Status      string     `json:"status"`
	RulesTotal  int        `json:"rules_total"`
	IssuesFound int        `json:"issues_found"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Issue is a single rule violation found by an execution.
type Issue struct {
	ID          string    `json:"id"`
	ExecutionID string    `json:"execution_id"`
	DatasetID   string    `json:"dataset_id"`
	RuleID      string    `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	Dimension   string    `json:"dimension"`
	Severity    string    `json:"severity"`
	RowIndex    int       `json:"row_index"`
	Column      string    `json:"column"`
	Value       string    `json:"value"`
	Message     string    `json:"message"`
	Resolved    bool      `json:"resolved"`
	ResolvedBy  string    `json:"resolved_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// IssueSummary aggregates issue counts for a dataset or execution.
type IssueSummary struct {
	Total       int            `json:"total"`
	Resolved    int            `json:"resolved"`
	BySeverity  map[string]int `json:"by_severity"`
	ByDimension map[string]int `json:"by_dimension"`
}

// Fix is a recorded correction applied to an issue.
type Fix struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue_id"`
	NewValue  string    `json:"new_value"`
	Comment   string    `json:"comment"`
	AppliedBy string    `json:"applied_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Overview is the dashboard aggregate served by the backend.
type Overview struct {
	Datasets          int            `json:"datasets"`
	Rules             int            `json:"rules"`
	ExecutionsRunning int            `json:"executions_running"`
	OpenIssues        int            `json:"open_issues"`
	QualityScore      float64        `json:"quality_score"`
	IssuesBySeverity  map[string]int `json:"issues_by_severity"`
	RecentExecutions  []Execution    `json:"recent_executions"`
}

// DimensionScore is one quality dimension's contribution to a score.
type DimensionScore struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
}

// QualityScore is the weighted quality score of a dataset.
type QualityScore struct {
	Score      float64          `json:"score"`
	Dimensions []DimensionScore `json:"dimensions"`
}

// Export is a requested report export.
type Export struct {
	ID          string    `json:"id"`
	Format      string    `json:"format"`
	Status      string    `json:"status"`
	DatasetID   string    `json:"dataset_id"`
	ExecutionID string    `json:"execution_id"`
	RequestedBy string    `json:"requested_by"`
	CreatedAt   time.Time `json:"created_at"`
	DownloadURL string    `json:"download_url"`
}

// Export formats the backend can produce.
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
	ExportPDF  = "pdf"
)

// ExportFormats lists the supported export formats.
var ExportFormats = []string{ExportCSV, ExportJSON, ExportPDF}

// Health is the backend health report.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
