package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid api key")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenIssuanceOff   = errors.New("token issuance is not configured")
)
