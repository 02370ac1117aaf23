package models

import (
	"taskstation/pkg/platform/validation"
)

// LoginRequest carries the login form payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if err := validation.CheckEmail(r.Email, "Email inválido"); err != nil {
		return err
	}
	return validation.CheckMinLength(r.Password, validation.MinPasswordLength, "Mínimo 6 caracteres")
}

// ForgotPasswordRequest carries the forgot-password form payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	return validation.CheckEmail(r.Email, "Email inválido")
}

// ResetPasswordRequest is the authenticated reset used by the forced
// first-access flow. Name is optional; an empty value is omitted from the API
// payload entirely.
type ResetPasswordRequest struct {
	Name            string `json:"name,omitempty"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r *ResetPasswordRequest) Validate() error {
	if r.Name != "" {
		if err := validation.CheckMinLength(r.Name, validation.MinNameLength, "Mínimo 2 caracteres"); err != nil {
			return err
		}
	}
	if err := validation.CheckMinLength(r.NewPassword, validation.MinPasswordLength, "Mínimo 6 caracteres"); err != nil {
		return err
	}
	return validation.CheckMatch(r.NewPassword, r.ConfirmPassword, "As senhas não coincidem")
}

// ConfirmResetPasswordRequest is the unauthenticated reset reached from the
// emailed link; the single-use token travels in the URL, not here.
type ConfirmResetPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r *ConfirmResetPasswordRequest) Validate() error {
	if err := validation.CheckMinLength(r.NewPassword, validation.MinPasswordLength, "Mínimo 6 caracteres"); err != nil {
		return err
	}
	return validation.CheckMatch(r.NewPassword, r.ConfirmPassword, "As senhas não coincidem")
}

// FirstAccessRequest completes a magic link: full name plus the first
// password. The stricter password floor applies here.
type FirstAccessRequest struct {
	Name            string `json:"name"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r *FirstAccessRequest) Validate() error {
	if err := validation.CheckMinLength(r.Name, validation.MinNameLength, "Nome deve ter pelo menos 2 caracteres"); err != nil {
		return err
	}
	if err := validation.CheckMinLength(r.NewPassword, validation.MinStrongPasswordLength, "A senha deve ter pelo menos 8 caracteres"); err != nil {
		return err
	}
	if err := validation.CheckRequired(r.ConfirmPassword, "Confirme a senha"); err != nil {
		return err
	}
	return validation.CheckMatch(r.NewPassword, r.ConfirmPassword, "As senhas não coincidem")
}

// FirstAccessProbe is the read-only answer to a magic-link token lookup.
type FirstAccessProbe struct {
	Email string `json:"email"`
}
