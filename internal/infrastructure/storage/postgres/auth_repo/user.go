// Package auth_repo provides PostgreSQL implementations for the auth
// repositories.
package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/domain/auth"
	"aurum/internal/infrastructure/storage/postgres"
)

const usersTable = "sys_users"

var userColumns = []string{
	"id", "email", "password_hash", "full_name", "roles",
	"is_active", "is_admin", "last_login_at",
	"failed_login_attempts", "locked_until",
	"created_at", "updated_at", "deleted_at", "version",
}

// Ensure interface compliance.
var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID, user.Email, user.PasswordHash, user.FullName, user.Roles,
			user.IsActive, user.IsAdmin, user.LastLoginAt,
			user.FailedLoginAttempts, user.LockedUntil,
			user.CreatedAt, user.UpdatedAt, user.DeletedAt, user.Version,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(fmt.Sprintf("user with email %s already exists", user.Email))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID returns a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID)
}

// GetByEmail returns a user by email. Lookup is case-insensitive.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email), email)
}

func (r *UserRepo) getOne(ctx context.Context, where any, ident any) (*auth.User, error) {
	q := r.builder.Select(userColumns...).
		From(usersTable).
		Where(where).
		Where(squirrel.Eq{"deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.querier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", ident)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Update saves the user with optimistic version check.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	q := r.builder.Update(usersTable).
		Set("email", user.Email).
		Set("password_hash", user.PasswordHash).
		Set("full_name", user.FullName).
		Set("roles", user.Roles).
		Set("is_active", user.IsActive).
		Set("is_admin", user.IsAdmin).
		Set("last_login_at", user.LastLoginAt).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version}).
		Where(squirrel.Eq{"deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}

	user.Version++
	return nil
}

// Delete soft-deletes a user.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	q := r.builder.Update(usersTable).
		Set("deleted_at", time.Now().UTC()).
		Set("is_active", false).
		Where(squirrel.Eq{"id": userID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID)
	}
	return nil
}

// List returns users matching the filter plus the total count.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	base := r.builder.Select(userColumns...).
		From(usersTable).
		Where(squirrel.Eq{"deleted_at": nil})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where(squirrel.Or{
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"full_name": pattern},
		})
	}
	if filter.IsActive != nil {
		base = base.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.Role != "" {
		base = base.Where(squirrel.Expr("? = ANY(roles)", filter.Role))
	}

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		FromSelect(base, "filtered").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	var total int
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q := base.OrderBy("email")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, r.querier(ctx), &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}
	return users, total, nil
}

// Exists reports whether a user with the email exists.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	q := r.builder.Select("1").
		From(usersTable).
		Where(squirrel.Expr("LOWER(email) = LOWER(?)", email)).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return true, nil
}
