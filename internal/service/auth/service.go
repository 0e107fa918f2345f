package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	jwt.Service
	apiKeyHash []byte
}

// NewAuthService issues tokens to callers presenting the key whose bcrypt
// hash is apiKeyHash. An empty hash disables issuance.
func NewAuthService(jwtService jwt.Service, apiKeyHash string) auth.AuthService {
	return &AuthServiceImpl{
		Service:    jwtService,
		apiKeyHash: []byte(apiKeyHash),
	}
}

// HashAPIKey returns the bcrypt hash to store in AUTH_API_KEY_HASH.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IssueToken implements auth.AuthService.
func (a *AuthServiceImpl) IssueToken(ctx context.Context, req auth.TokenRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}
	if len(a.apiKeyHash) == 0 {
		return auth.TokenResponse{}, auth.ErrTokenIssuanceOff
	}

	if err := bcrypt.CompareHashAndPassword(a.apiKeyHash, []byte(req.APIKey)); err != nil {
		slog.Warn("Token request rejected", "subject", req.Subject)
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := a.Service.GenerateAccessToken(req.Subject, auth.RoleAdmin)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	slog.Info("audit", "action", "auth.token_issued", "entity_type", "token", "subject", req.Subject)
	return auth.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// IssueSSEToken implements auth.AuthService.
func (a *AuthServiceImpl) IssueSSEToken(ctx context.Context, subject string) (auth.SSETokenResponse, error) {
	if subject == "" {
		return auth.SSETokenResponse{}, auth.ErrInvalidToken
	}
	token, expiresIn, err := a.Service.GenerateSSEToken(subject)
	if err != nil {
		return auth.SSETokenResponse{}, fmt.Errorf("failed to create sse token: %w", err)
	}
	return auth.SSETokenResponse{Token: token, ExpiresIn: expiresIn}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	return a.Service.RevokeToken(ctx, token)
}
