package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/domain/auth"
	"aurum/internal/infrastructure/storage/postgres"
)

const refreshTokensTable = "sys_refresh_tokens"

var tokenColumns = []string{
	"id", "user_id", "token_hash", "expires_at",
	"revoked_at", "revoked_reason", "user_agent", "ip_address",
	"created_at",
}

// Ensure interface compliance.
var _ auth.TokenRepository = (*TokenRepo)(nil)

// TokenRepo implements auth.TokenRepository. Only token hashes are
// stored; the plaintext refresh token never touches the database.
type TokenRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTokenRepo creates a new refresh token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TokenRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// SaveRefreshToken stores a new refresh token record.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	q := r.builder.Insert(refreshTokensTable).
		Columns(tokenColumns...).
		Values(
			token.ID, token.UserID, token.TokenHash, token.ExpiresAt,
			token.RevokedAt, token.RevokedReason, token.UserAgent, token.IPAddress,
			token.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken looks a token up by its hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	q := r.builder.Select(tokenColumns...).
		From(refreshTokensTable).
		Where(squirrel.Eq{"token_hash": tokenHash})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var token auth.RefreshToken
	if err := pgxscan.Get(ctx, r.querier(ctx), &token, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewUnauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken marks one token revoked.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	q := r.builder.Update(refreshTokensTable).
		Set("revoked_at", time.Now().UTC()).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"id": tokenID, "revoked_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes every live token for a user, e.g. on
// password change or account deactivation.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	q := r.builder.Update(refreshTokensTable).
		Set("revoked_at", time.Now().UTC()).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"user_id": userID, "revoked_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes tokens past their expiry. Returns how
// many rows were deleted.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) {
	q := r.builder.Delete(refreshTokensTable).
		Where(squirrel.Lt{"expires_at": time.Now().UTC()})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return int(result.RowsAffected()), nil
}
