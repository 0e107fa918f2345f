package postgresql

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/jwt"
)

type tokenRevocationRepositoryImpl struct {
	db *database.DB
}

// NewTokenRevocationRepository keeps logged-out tokens in revoked_tokens so
// revocation survives restarts and is shared between replicas.
func NewTokenRevocationRepository(db *database.DB) jwt.RevocationStore {
	return &tokenRevocationRepositoryImpl{db: db}
}

// hashToken hashes the input string using SHA256 and encodes the result in base64.
func (r *tokenRevocationRepositoryImpl) hashToken(input string) string {
	hash := sha256.Sum256([]byte(input))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// Revoke implements jwt.RevocationStore. Expired rows are purged on the way.
func (r *tokenRevocationRepositoryImpl) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return InTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= NOW()`); err != nil {
			return fmt.Errorf("purge revoked tokens: %w", err)
		}

		query := `
			INSERT INTO revoked_tokens (token_hash, expires_at)
			VALUES ($1, $2)
			ON CONFLICT (token_hash) DO NOTHING
		`
		if _, err := q.Exec(ctx, query, r.hashToken(token), expiresAt.UTC()); err != nil {
			return fmt.Errorf("insert revoked token: %w", err)
		}
		return nil
	})
}

// IsRevoked implements jwt.RevocationStore.
func (r *tokenRevocationRepositoryImpl) IsRevoked(ctx context.Context, token string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var revoked bool
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_hash = $1)`
	if err := q.QueryRow(ctx, query, r.hashToken(token)).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}
