package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TypeAccess = "access"
	TypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

var ErrInvalidTokenType = errors.New("token has the wrong type")

type Service interface {
	GenerateAccessToken(subject string, role string) (token string, expiresAt int64, err error)
	GenerateSSEToken(subject string) (token string, expiresIn int, err error)
	ValidateSSEToken(ctx context.Context, tokenString string) (subject string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(ctx context.Context, token string) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	revocations           RevocationStore
	now                   func() time.Time
}

type Option func(*JWTService)

// WithRevocationStore replaces the in-process revocation list.
func WithRevocationStore(store RevocationStore) Option {
	return func(j *JWTService) {
		j.revocations = store
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration, opts ...Option) *JWTService {
	j := &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.revocations == nil {
		j.revocations = NewMemoryRevocationStore(func() time.Time { return j.now() })
	}
	return j
}

func (j *JWTService) GenerateAccessToken(subject string, role string) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":  subject,
		"role": role,
		"type": TypeAccess,
		"iat":  j.now().Unix(),
		"exp":  expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token that EventSource clients pass
// as a query parameter.
func (j *JWTService) GenerateSSEToken(subject string) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":  subject,
		"type": TypeSSE,
		"exp":  expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenLifetime / time.Second), nil
}

// ValidateSSEToken validates an SSE token and returns its subject
func (j *JWTService) ValidateSSEToken(ctx context.Context, tokenString string) (subject string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TypeSSE {
		return "", ErrInvalidTokenType
	}

	if token.Subject() == "" {
		return "", jwt.ErrInvalidJWT()
	}

	revoked, err := j.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", jwt.ErrInvalidJWT()
	}
	return token.Subject(), nil
}

// RevokeToken remembers token until it would have expired anyway. Tokens
// that no longer parse are kept for one access token lifetime.
func (j *JWTService) RevokeToken(ctx context.Context, token string) error {
	expiresAt := j.now().Add(j.accessTokenExpiration)
	if parsed, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false)); err == nil && !parsed.Expiration().IsZero() {
		expiresAt = parsed.Expiration()
	}

	if err := j.revocations.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (j *JWTService) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := j.revocations.IsRevoked(ctx, token)
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return revoked, nil
}
