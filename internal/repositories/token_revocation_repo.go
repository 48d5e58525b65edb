package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/tradepost/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRevocationRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRevocationRepository(db *database.DB) *TokenRevocationRepository {
	return &TokenRevocationRepository{pool: db.Pool}
}

// RevokeToken adds a token to the revocation list until it would have expired anyway.
// Revoking the same token twice is not an error.
func (r *TokenRevocationRepository) RevokeToken(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error {
	query := `
		INSERT INTO token_revocations (jti, user_id, reason, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, jti, userID, reason, expiresAt); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// RevokeUserSessions revokes every session of a user issued so far. The entry
// must outlive the longest session the user could hold.
func (r *TokenRevocationRepository) RevokeUserSessions(ctx context.Context, userID string, until time.Time, reason string) error {
	query := `
		INSERT INTO token_revocations (jti, user_id, reason, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO UPDATE SET expires_at = GREATEST(token_revocations.expires_at, EXCLUDED.expires_at)
	`

	if _, err := r.pool.Exec(ctx, query, userRevocationKey(userID), userID, reason, until); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// IsTokenRevoked reports whether the token itself or every session of its user was revoked
func (r *TokenRevocationRepository) IsTokenRevoked(ctx context.Context, jti, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM token_revocations WHERE jti IN ($1, $2))`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, jti, userRevocationKey(userID)).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// CleanupExpiredTokens removes revocations whose tokens have expired (call periodically)
func (r *TokenRevocationRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM token_revocations WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

func userRevocationKey(userID string) string {
	return "user:" + userID
}
