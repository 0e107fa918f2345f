package auth

import "context"

type AuthService interface {
	// IssueToken exchanges the configured API key for an access token
	IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error)

	// IssueSSEToken returns a short-lived token for the event stream
	IssueSSEToken(ctx context.Context, subject string) (SSETokenResponse, error)

	// Logout revokes an access token before it expires
	Logout(ctx context.Context, token string) error
}
