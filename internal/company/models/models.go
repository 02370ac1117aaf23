package models

import (
	"taskstation/pkg/platform/validation"
)

// Workspace is one row of a company's workspace list.
type Workspace struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
}

// WorkspaceList is the paginated workspace read model.
type WorkspaceList struct {
	Data  []Workspace `json:"data"`
	Total int         `json:"total"`
}

// MemberUser is the user projection nested in a member row.
type MemberUser struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             *string `json:"phone"`
	IsActive          bool    `json:"isActive"`
	MustResetPassword bool    `json:"mustResetPassword"`
}

// MemberWorkspaceRole is one workspace-scoped role held by a member.
type MemberWorkspaceRole struct {
	WorkspaceID   string `json:"workspaceId"`
	WorkspaceName string `json:"workspaceName"`
	Role          string `json:"role"`
	MembershipID  string `json:"membershipId"`
}

// Member is one row of a company's members list.
type Member struct {
	MembershipID   string                `json:"membershipId"`
	Role           string                `json:"role"`
	MemberSince    string                `json:"memberSince"`
	WorkspaceRoles []MemberWorkspaceRole `json:"workspaceRoles"`
	User           MemberUser            `json:"user"`
}

// MemberList is the paginated member read model.
type MemberList struct {
	Data  []Member `json:"data"`
	Total int      `json:"total"`
}

// RoleUser identifies the member in a roles lookup.
type RoleUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WorkspaceRole is one row of the roles modal: every workspace of the
// company, with the member's role when one exists.
type WorkspaceRole struct {
	WorkspaceID   string  `json:"workspaceId"`
	WorkspaceName string  `json:"workspaceName"`
	IsActive      bool    `json:"isActive"`
	MembershipID  *string `json:"membershipId"`
	Role          *string `json:"role"`
}

// MemberRoles is the full role breakdown for one member.
type MemberRoles struct {
	User                RoleUser        `json:"user"`
	CompanyRole         *string         `json:"companyRole"`
	CompanyMembershipID *string         `json:"companyMembershipId"`
	WorkspaceRoles      []WorkspaceRole `json:"workspaceRoles"`
}

// CreateWorkspaceRequest carries the create-workspace form payload. The admin
// email designates the workspace's first workspace_admin.
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AdminEmail  string `json:"adminEmail"`
}

func (r *CreateWorkspaceRequest) Validate() error {
	if err := validation.CheckRequired(r.Name, "Obrigatório"); err != nil {
		return err
	}
	return validation.CheckEmail(r.AdminEmail, "Email inválido")
}

// UpdateWorkspaceRequest is a sparse patch: empty fields are omitted.
type UpdateWorkspaceRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// PromoteAdminRequest names the user gaining the company admin role.
type PromoteAdminRequest struct {
	UserID string `json:"userId"`
}

// UpdateMemberRequest toggles a member's active flag.
type UpdateMemberRequest struct {
	IsActive bool `json:"isActive"`
}
