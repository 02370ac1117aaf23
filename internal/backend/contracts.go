package backend

import (
	"context"
	"net/http"
)

// SessionUser is the user projection the API returns whenever it issues a
// token. The console caches it in the `user` cookie as a display hint; it is
// never the authorization source of truth for sensitive actions.
type SessionUser struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	IsSuperuser       bool   `json:"isSuperuser"`
	MustResetPassword bool   `json:"mustResetPassword"`
}

// SessionPayload is the response of login and first-access consumption.
type SessionPayload struct {
	AccessToken string      `json:"access_token"`
	User        SessionUser `json:"user"`
}

// CompanyMembership is one entry of GET /api/v1/me/empresas.
type CompanyMembership struct {
	CompanyID string `json:"companyId"`
	LegalName string `json:"legalName"`
	Role      string `json:"role"`
}

// Company-scoped roles.
const (
	RoleAdmin          = "admin"
	RoleWorkspaceAdmin = "workspace_admin"
	RoleMember         = "member"
)

// MyCompanies fetches the caller's company memberships. The gate re-fetches
// this on every company-scoped render rather than trusting the cached user
// snapshot, so removal from a company takes effect on the next navigation.
func (c *Client) MyCompanies(ctx context.Context, token string) ([]CompanyMembership, error) {
	var companies []CompanyMembership
	err := c.Do(ctx, Request{
		Operation: "my_companies",
		Method:    http.MethodGet,
		Path:      "/api/v1/me/empresas",
		Token:     token,
	}, &companies)
	if err != nil {
		return nil, err
	}
	return companies, nil
}
