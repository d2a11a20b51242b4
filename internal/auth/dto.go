package auth

import (
	"github.com/google/uuid"

	"github.com/birrflow/birrflow-backend/pkg/enums"
)

// LoginRequest carries the credentials posted by the client.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountSummary is the caller-facing shape of the authenticated account.
type AccountSummary struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Role     enums.AccountRole `json:"role"`
	IsActive bool              `json:"is_active"`
}

// LoginResponse returns the token pair and the account it belongs to.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Account      AccountSummary `json:"account"`
}

// RefreshRequest rotates an expired or near-expiry token pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the replacement token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest revokes the refresh session behind an access token.
type LogoutRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}
