package api

import (
	"context"
	"net/http"
)

type updateMemberRequest struct {
	Role string `json:"role"`
}

// InviteMemberRequest invites an email address into the organization.
type InviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Members lists the active organization's members.
func (c *Client) Members(ctx context.Context, opts PageOptions) (Page[Member], error) {
	var out Page[Member]
	err := c.do(ctx, http.MethodGet, "/organizations/members", pageQuery(opts.Page, opts.Size), nil, &out)
	return out, err
}

// UpdateMemberRole changes a member's role.
func (c *Client) UpdateMemberRole(ctx context.Context, memberID, role string) (Member, error) {
	var out Member
	err := c.do(ctx, http.MethodPatch, pathID("organizations", "members", memberID), nil, updateMemberRequest{Role: role}, &out)
	return out, err
}

// RemoveMember removes a member from the organization.
func (c *Client) RemoveMember(ctx context.Context, memberID string) error {
	return c.do(ctx, http.MethodDelete, pathID("organizations", "members", memberID), nil, nil, nil)
}

// InviteMember invites a user into the organization with a role.
func (c *Client) InviteMember(ctx context.Context, req InviteMemberRequest) (Member, error) {
	var out Member
	err := c.do(ctx, http.MethodPost, "/organizations/invites", nil, req, &out)
	return out, err
}

// Health checks backend availability. It requires no authentication.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out)
	return out, err
}
