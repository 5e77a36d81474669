package query

import (
	"context"
	"io"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
)

// Mutations are the typed write paths. Each calls the backend and, only on
// success, invalidates the affected tags so stale reads refetch and
// subscribed pages re-render. A failed mutation leaves the cache untouched.
type Mutations struct {
	api   *api.Client
	cache *Cache
}

// NewMutations binds the API client to the cache.
func NewMutations(client *api.Client, cache *Cache) *Mutations {
	return &Mutations{api: client, cache: cache}
}

// Login exchanges credentials for a token. The fresh scope is cleared so a
// previous session of the same user leaves nothing stale behind.
func (m *Mutations) Login(ctx context.Context, email, password string) (api.AuthPayload, error) {
	auth, err := m.api.Login(ctx, email, password)
	if err != nil {
		return api.AuthPayload{}, err
	}
	m.cache.InvalidateScope(Scope{OrgID: auth.Organization.ID, UserID: auth.User.ID})
	return auth, nil
}

// Register creates an account and signs it in.
func (m *Mutations) Register(ctx context.Context, req api.RegisterRequest) (api.AuthPayload, error) {
	auth, err := m.api.Register(ctx, req)
	if err != nil {
		return api.AuthPayload{}, err
	}
	m.cache.InvalidateScope(Scope{OrgID: auth.Organization.ID, UserID: auth.User.ID})
	return auth, nil
}

// SignOut drops everything cached for the session's scope. The token is
// discarded by the session layer; there is no backend call.
func (m *Mutations) SignOut(a Auth) {
	m.cache.InvalidateScope(a.Scope)
}

// SwitchOrganization exchanges the token for one scoped to orgID and drops
// the old tenant's cache entirely.
func (m *Mutations) SwitchOrganization(ctx context.Context, a Auth, orgID string) (api.AuthPayload, error) {
	auth, err := m.api.Bound(a.Token).SwitchOrganization(ctx, orgID)
	if err != nil {
		return api.AuthPayload{}, err
	}
	m.cache.InvalidateScope(a.Scope)
	return auth, nil
}

// UploadDataset creates a dataset from an uploaded file.
func (m *Mutations) UploadDataset(ctx context.Context, a Auth, name, filename string, file io.Reader) (api.Dataset, error) {
	ds, err := m.api.Bound(a.Token).UploadDataset(ctx, name, filename, file)
	if err != nil {
		return api.Dataset{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagDatasets, TagOverview)
	return ds, nil
}

// DeleteDataset removes a dataset.
func (m *Mutations) DeleteDataset(ctx context.Context, a Auth, id string) error {
	if err := m.api.Bound(a.Token).DeleteDataset(ctx, id); err != nil {
		return err
	}
	m.cache.InvalidateTags(a.Scope, TagDatasets, TagDataset(id), TagOverview)
	return nil
}

// CreateRule adds a rule to the catalog.
func (m *Mutations) CreateRule(ctx context.Context, a Auth, req api.CreateRuleRequest) (api.Rule, error) {
	rule, err := m.api.Bound(a.Token).CreateRule(ctx, req)
	if err != nil {
		return api.Rule{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagRules, TagOverview)
	return rule, nil
}

// UpdateRule applies a partial rule update.
func (m *Mutations) UpdateRule(ctx context.Context, a Auth, id string, req api.UpdateRuleRequest) (api.Rule, error) {
	rule, err := m.api.Bound(a.Token).UpdateRule(ctx, id, req)
	if err != nil {
		return api.Rule{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagRules, TagRule(id))
	return rule, nil
}

// ToggleRule activates or deactivates a rule.
func (m *Mutations) ToggleRule(ctx context.Context, a Auth, id string, active bool) (api.Rule, error) {
	return m.UpdateRule(ctx, a, id, api.UpdateRuleRequest{IsActive: &active})
}

// DeleteRule removes a rule.
func (m *Mutations) DeleteRule(ctx context.Context, a Auth, id string) error {
	if err := m.api.Bound(a.Token).DeleteRule(ctx, id); err != nil {
		return err
	}
	m.cache.InvalidateTags(a.Scope, TagRules, TagRule(id), TagOverview)
	return nil
}

// CreateExecution queues a run of the selected rules against a dataset.
func (m *Mutations) CreateExecution(ctx context.Context, a Auth, req api.CreateExecutionRequest) (api.Execution, error) {
	exec, err := m.api.Bound(a.Token).CreateExecution(ctx, req)
	if err != nil {
		return api.Execution{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagExecutions, TagOverview)
	return exec, nil
}

// CancelExecution stops a queued or running execution.
func (m *Mutations) CancelExecution(ctx context.Context, a Auth, id string) (api.Execution, error) {
	exec, err := m.api.Bound(a.Token).CancelExecution(ctx, id)
	if err != nil {
		return api.Execution{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagExecutions, TagExecution(id), TagOverview)
	return exec, nil
}

// ResolveIssue marks an issue resolved.
func (m *Mutations) ResolveIssue(ctx context.Context, a Auth, id, comment string) (api.Issue, error) {
	issue, err := m.api.Bound(a.Token).ResolveIssue(ctx, id, comment)
	if err != nil {
		return api.Issue{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagIssues, TagIssue(id), TagIssueSummary, TagQuality, TagOverview)
	return issue, nil
}

// ApplyFix records a corrected value for an issue.
func (m *Mutations) ApplyFix(ctx context.Context, a Auth, issueID string, req api.ApplyFixRequest) (api.Fix, error) {
	fix, err := m.api.Bound(a.Token).ApplyFix(ctx, issueID, req)
	if err != nil {
		return api.Fix{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagIssues, TagIssue(issueID), TagIssueSummary, TagQuality, TagOverview)
	return fix, nil
}

// CreateExport queues a report export.
func (m *Mutations) CreateExport(ctx context.Context, a Auth, req api.CreateExportRequest) (api.Export, error) {
	export, err := m.api.Bound(a.Token).CreateExport(ctx, req)
	if err != nil {
		return api.Export{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagExports)
	return export, nil
}

// UpdateMemberRole changes a member's role.
func (m *Mutations) UpdateMemberRole(ctx context.Context, a Auth, memberID, role string) (api.Member, error) {
	member, err := m.api.Bound(a.Token).UpdateMemberRole(ctx, memberID, role)
	if err != nil {
		return api.Member{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagMembers)
	return member, nil
}

// RemoveMember removes a member from the organization.
func (m *Mutations) RemoveMember(ctx context.Context, a Auth, memberID string) error {
	if err := m.api.Bound(a.Token).RemoveMember(ctx, memberID); err != nil {
		return err
	}
	m.cache.InvalidateTags(a.Scope, TagMembers)
	return nil
}

// InviteMember invites an email address into the organization.
func (m *Mutations) InviteMember(ctx context.Context, a Auth, req api.InviteMemberRequest) (api.Member, error) {
	member, err := m.api.Bound(a.Token).InviteMember(ctx, req)
	if err != nil {
		return api.Member{}, err
	}
	m.cache.InvalidateTags(a.Scope, TagMembers)
	return member, nil
}
