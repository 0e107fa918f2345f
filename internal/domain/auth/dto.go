package auth

import (
	"strings"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
)

// RoleAdmin is the only role issued today; every protected route accepts it.
const RoleAdmin = "admin"

type TokenRequest struct {
	APIKey  string `json:"api_key" validate:"required"`
	Subject string `json:"subject,omitempty" validate:"omitempty,max=64"`
}

func (r *TokenRequest) Validate() error {
	r.APIKey = strings.TrimSpace(r.APIKey)
	r.Subject = strings.TrimSpace(r.Subject)
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.Subject == "" {
		r.Subject = "hrms-admin"
	}
	return nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
