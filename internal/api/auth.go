package api

import (
	"context"
	"net/http"
)

// LoginRequest are the credentials exchanged for a bearer token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates an account and its first organization.
type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

type switchOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

// Login exchanges credentials for a token and the signed-in identity.
func (c *Client) Login(ctx context.Context, email, password string) (AuthPayload, error) {
	var out AuthPayload
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthPayload, error) {
	var out AuthPayload
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out)
	return out, err
}

// Me returns the authenticated identity for the bound token.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	var out Identity
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}

// Organizations lists the organizations the authenticated user belongs to.
func (c *Client) Organizations(ctx context.Context) ([]OrganizationMembership, error) {
	var out []OrganizationMembership
	err := c.do(ctx, http.MethodGet, "/auth/organizations", nil, nil, &out)
	return out, err
}

// SwitchOrganization exchanges the bound token for one scoped to orgID.
func (c *Client) SwitchOrganization(ctx context.Context, orgID string) (AuthPayload, error) {
	var out AuthPayload
	err := c.do(ctx, http.MethodPost, "/auth/switch-organization", nil, switchOrganizationRequest{OrganizationID: orgID}, &out)
	return out, err
}
