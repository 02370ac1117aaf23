// Package models defines the view and request shapes of the superadmin panel.
package models

import (
	"taskstation/pkg/platform/validation"
)

// Company is a tenant as listed in the superadmin console.
type Company struct {
	ID         string  `json:"id"`
	LegalName  string  `json:"legalName"`
	TradeName  *string `json:"tradeName"`
	Document   string  `json:"document"`
	IsActive   bool    `json:"isActive"`
	CreatedAt  string  `json:"createdAt"`
	AdminCount int     `json:"adminCount"`
}

// CompanyList is the paginated envelope returned by the companies listing.
type CompanyList struct {
	Data  []Company `json:"data"`
	Total int       `json:"total"`
}

// CompanyAdmin is an admin membership shown on the company detail page.
type CompanyAdmin struct {
	MembershipID string `json:"membershipId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	IsActive     bool   `json:"isActive"`
}

// CompanyDetail is the company detail view, admins included.
type CompanyDetail struct {
	Company
	Admins []CompanyAdmin `json:"admins"`
}

// User is a platform user as listed in the superadmin console.
type User struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	IsActive    bool    `json:"isActive"`
	IsSuperuser bool    `json:"isSuperuser"`
	CreatedAt   string  `json:"createdAt"`
}

// UserList is the paginated envelope returned by the users listing.
type UserList struct {
	Data  []User `json:"data"`
	Total int    `json:"total"`
}

// CreateCompanyRequest creates a tenant together with its first admin.
type CreateCompanyRequest struct {
	LegalName  string `json:"legalName"`
	TradeName  string `json:"tradeName,omitempty"`
	Document   string `json:"document"`
	AdminName  string `json:"adminName"`
	AdminEmail string `json:"adminEmail"`
}

func (r *CreateCompanyRequest) Validate() error {
	if err := validation.CheckRequired(r.LegalName, "Obrigatório"); err != nil {
		return err
	}
	if err := validation.CheckRequired(r.Document, "Obrigatório"); err != nil {
		return err
	}
	if err := validation.CheckMinLength(r.AdminName, validation.MinNameLength, "Mínimo 2 caracteres"); err != nil {
		return err
	}
	return validation.CheckEmail(r.AdminEmail, "Email inválido")
}

// UpdateCompanyRequest patches company fields; empty strings are omitted from
// the payload so untouched fields stay as they are.
type UpdateCompanyRequest struct {
	LegalName string `json:"legalName,omitempty"`
	TradeName string `json:"tradeName,omitempty"`
	Document  string `json:"document,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (r *UpdateCompanyRequest) Empty() bool {
	return r.LegalName == "" && r.TradeName == "" && r.Document == ""
}

// UpdateUserRequest is the sparse patch behind the user edit form. Only the
// fields the operator filled in are sent.
type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Name != "" {
		if err := validation.CheckMinLength(r.Name, validation.MinNameLength, "Mínimo 2 caracteres"); err != nil {
			return err
		}
	}
	if r.Email != "" {
		if err := validation.CheckEmail(r.Email, "Email inválido"); err != nil {
			return err
		}
	}
	if r.Password != "" {
		if err := validation.CheckMinLength(r.Password, validation.MinStrongPasswordLength, "A senha deve ter no mínimo 8 caracteres"); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch would change nothing.
func (r *UpdateUserRequest) Empty() bool {
	return r.Name == "" && r.Email == "" && r.Phone == "" && r.Password == ""
}

// UpdateUserStatusRequest toggles a user's active flag.
type UpdateUserStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// UpdateProfileRequest patches the superadmin's own profile. The new password
// travels under the plain "password" key the user resource expects.
type UpdateProfileRequest struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	NewPassword string `json:"password,omitempty"`

	ConfirmPassword string `json:"-"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name != "" {
		if err := validation.CheckMinLength(r.Name, validation.MinNameLength, "Nome deve ter no mínimo 2 caracteres"); err != nil {
			return err
		}
	}
	if r.Email != "" {
		if err := validation.CheckEmail(r.Email, "Email inválido"); err != nil {
			return err
		}
	}
	if r.NewPassword != "" {
		if err := validation.CheckMinLength(r.NewPassword, validation.MinStrongPasswordLength, "A nova senha deve ter no mínimo 8 caracteres"); err != nil {
			return err
		}
		if err := validation.CheckMatch(r.NewPassword, r.ConfirmPassword, "As senhas não coincidem"); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch would change nothing.
func (r *UpdateProfileRequest) Empty() bool {
	return r.Name == "" && r.Email == "" && r.Phone == "" && r.NewPassword == ""
}

// MagicLinkResult carries the credential link returned by the API.
type MagicLinkResult struct {
	MagicLink *string `json:"magicLink"`
}
