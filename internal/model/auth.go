package model

import "github.com/golang-jwt/jwt/v5"

// OrganizationClaims are JWT claims for organization sessions
type OrganizationClaims struct {
	OrganizationID string `json:"sub_org"`
	AccessCode     string `json:"access_code"`
	jwt.RegisteredClaims
}

// RegisterRequest is the request body for organization registration
type RegisterRequest struct {
	Name       string           `json:"name"`
	Type       OrganizationType `json:"type"`
	Sector     string           `json:"sector"`
	Size       string           `json:"size"`
	Email      string           `json:"email"`
	FiscalCode string           `json:"fiscal_code"`
	Phone      string           `json:"phone"`
	AdminName  string           `json:"admin_name"`
	Password   string           `json:"password"`
}

// LoginRequest is the request body for access-code login
type LoginRequest struct {
	AccessCode string `json:"access_code"`
	Password   string `json:"password"`
}

// TokenResponse is returned after register and login
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	AccessCode   string        `json:"access_code"`
	Organization *Organization `json:"organization"`
}

// UpdateOrganizationRequest changes editable organization fields; nil keeps the current value
type UpdateOrganizationRequest struct {
	Sector     *string `json:"sector,omitempty"`
	Size       *string `json:"size,omitempty"`
	FiscalCode *string `json:"fiscal_code,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	AdminName  *string `json:"admin_name,omitempty"`
}

// ResetPasswordRequest is the admin request to set a new organization password
type ResetPasswordRequest struct {
	OrganizationID string `json:"organization_id"`
	NewPassword    string `json:"new_password"`
}

// ResetPasswordResponse confirms a password reset
type ResetPasswordResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	OrganizationID string `json:"organization_id"`
	AccessCode     string `json:"access_code"`
}
