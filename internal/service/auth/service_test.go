package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret = "test-secret-key-for-jwt"
	testAPIKey = "correct horse battery staple"
)

func newTestAuthService(t *testing.T) (auth.AuthService, *jwt.JWTService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	require.NoError(t, err)
	jwtService := jwt.NewJWTService(testSecret, time.Hour)
	return NewAuthService(jwtService, string(hash)), jwtService
}

func TestAuthService_IssueToken_Success(t *testing.T) {
	svc, jwtService := newTestAuthService(t)

	resp, err := svc.IssueToken(context.Background(), auth.TokenRequest{APIKey: testAPIKey, Subject: "payroll-sync"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	token, err := jwtauth.VerifyToken(jwtService.JWTAuth(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "payroll-sync", token.Subject())
}

func TestAuthService_IssueToken_DefaultSubject(t *testing.T) {
	svc, jwtService := newTestAuthService(t)

	resp, err := svc.IssueToken(context.Background(), auth.TokenRequest{APIKey: testAPIKey})
	require.NoError(t, err)

	token, err := jwtauth.VerifyToken(jwtService.JWTAuth(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "hrms-admin", token.Subject())
}

func TestAuthService_IssueToken_Rejections(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.IssueToken(ctx, auth.TokenRequest{APIKey: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.IssueToken(ctx, auth.TokenRequest{APIKey: "  "})
	assert.ErrorIs(t, err, validator.ErrValidation)

	disabled := NewAuthService(jwt.NewJWTService(testSecret, time.Hour), "")
	_, err = disabled.IssueToken(ctx, auth.TokenRequest{APIKey: testAPIKey})
	assert.ErrorIs(t, err, auth.ErrTokenIssuanceOff)
}

func TestAuthService_SSETokenAndLogout(t *testing.T) {
	svc, jwtService := newTestAuthService(t)
	ctx := context.Background()

	sse, err := svc.IssueSSEToken(ctx, "hrms-admin")
	require.NoError(t, err)
	subject, err := jwtService.ValidateSSEToken(ctx, sse.Token)
	require.NoError(t, err)
	assert.Equal(t, "hrms-admin", subject)

	_, err = svc.IssueSSEToken(ctx, "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, sse.Token))
	revoked, err := jwtService.IsTokenRevoked(ctx, sse.Token)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.ErrorIs(t, svc.Logout(ctx, ""), auth.ErrInvalidToken)
}

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey(testAPIKey)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(testAPIKey)))
}
