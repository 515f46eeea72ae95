// Package register_repo provides PostgreSQL implementations for the
// stock accumulation registers.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/domain/registers/metalstock"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	metalMovementsTable = "reg_metal_movements"
	metalAccountsTable  = "reg_metal_accounts"
)

// Ensure interface compliance.
var _ metalstock.Repository = (*MetalStockRepo)(nil)

// MetalStockRepo implements metalstock.Repository.
type MetalStockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMetalStockRepo creates a new metal stock register repository.
func NewMetalStockRepo(txManager *postgres.TxManager) *MetalStockRepo {
	return &MetalStockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MetalStockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// CreateMovement appends one movement row to the log.
func (r *MetalStockRepo) CreateMovement(ctx context.Context, m entity.MetalMovement) error {
	q := r.builder.Insert(metalMovementsTable).
		Columns(
			"line_id", "source_type", "source_id", "period", "record_type",
			"metal_type", "fineness", "weight", "created_at",
		).
		Values(
			m.LineID, m.Source.Type, m.Source.ID, m.Period, m.RecordType,
			m.MetalType, m.Fineness, m.Weight, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert metal movement: %w", err)
	}
	return nil
}

// MovementExists reports whether a movement for (source, key, recordType)
// was already written. This is the per-step idempotence guard.
func (r *MetalStockRepo) MovementExists(ctx context.Context, source entity.SourceRef, key metalstock.Key, recordType entity.RecordType) (bool, error) {
	q := r.builder.Select("1").
		From(metalMovementsTable).
		Where(squirrel.Eq{
			"source_type": source.Type,
			"source_id":   source.ID,
			"metal_type":  key.MetalType,
			"fineness":    key.Fineness,
			"record_type": recordType,
		}).
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
		return false, fmt.Errorf("movement exists: %w", err)
	}
	return true, nil
}

// GetMovementsBySource returns all movements written for one business event.
func (r *MetalStockRepo) GetMovementsBySource(ctx context.Context, source entity.SourceRef) ([]entity.MetalMovement, error) {
	q := r.movementSelect().
		Where(squirrel.Eq{"source_type": source.Type, "source_id": source.ID}).
		OrderBy("created_at")

	return r.selectMovements(ctx, q)
}

// GetMovementHistory returns the movement log for one account key.
func (r *MetalStockRepo) GetMovementHistory(ctx context.Context, key metalstock.Key, filter metalstock.MovementFilter) ([]entity.MetalMovement, error) {
	q := r.movementSelect().
		Where(squirrel.Eq{"metal_type": key.MetalType, "fineness": key.Fineness})

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMovements(ctx, q)
}

// GetAccount returns the balance row for a key, or a zero account when
// the key has never been credited.
func (r *MetalStockRepo) GetAccount(ctx context.Context, key metalstock.Key) (entity.MetalStockAccount, error) {
	return r.getAccount(ctx, key, false)
}

// GetAccountForUpdate locks the balance row. Requires transaction context.
func (r *MetalStockRepo) GetAccountForUpdate(ctx context.Context, key metalstock.Key) (entity.MetalStockAccount, error) {
	return r.getAccount(ctx, key, true)
}

func (r *MetalStockRepo) getAccount(ctx context.Context, key metalstock.Key, forUpdate bool) (entity.MetalStockAccount, error) {
	var account entity.MetalStockAccount

	q := r.builder.Select(
		"metal_type", "fineness",
		"total_weight", "available_weight", "used_weight",
		"version", "last_updated",
	).From(metalAccountsTable).
		Where(squirrel.Eq{"metal_type": key.MetalType, "fineness": key.Fineness})

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return account, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), &account, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.MetalStockAccount{
				MetalType: key.MetalType,
				Fineness:  key.Fineness,
			}, nil
		}
		return account, fmt.Errorf("get metal account: %w", err)
	}

	return account, nil
}

// SaveAccount upserts the balance row guarded by expectedVersion.
// expectedVersion 0 means the account does not exist yet.
func (r *MetalStockRepo) SaveAccount(ctx context.Context, account entity.MetalStockAccount, expectedVersion int) error {
	key := metalstock.Key{MetalType: account.MetalType, Fineness: account.Fineness}

	if expectedVersion == 0 {
		q := r.builder.Insert(metalAccountsTable).
			Columns(
				"metal_type", "fineness",
				"total_weight", "available_weight", "used_weight",
				"version", "last_updated",
			).
			Values(
				account.MetalType, account.Fineness,
				account.TotalWeight, account.AvailableWeight, account.UsedWeight,
				account.Version, time.Now().UTC(),
			).
			Suffix("ON CONFLICT (metal_type, fineness) DO NOTHING")

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		result, err := r.querier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("insert metal account: %w", err)
		}
		if result.RowsAffected() == 0 {
			// Someone created it first.
			return apperror.NewConcurrentModification(metalAccountsTable, key.String())
		}
		return nil
	}

	q := r.builder.Update(metalAccountsTable).
		Set("total_weight", account.TotalWeight).
		Set("available_weight", account.AvailableWeight).
		Set("used_weight", account.UsedWeight).
		Set("version", account.Version).
		Set("last_updated", time.Now().UTC()).
		Where(squirrel.Eq{
			"metal_type": account.MetalType,
			"fineness":   account.Fineness,
			"version":    expectedVersion,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update metal account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(metalAccountsTable, key.String())
	}
	return nil
}

// ListAccounts returns balance rows matching the filter.
func (r *MetalStockRepo) ListAccounts(ctx context.Context, filter metalstock.AccountFilter) ([]entity.MetalStockAccount, error) {
	q := r.builder.Select(
		"metal_type", "fineness",
		"total_weight", "available_weight", "used_weight",
		"version", "last_updated",
	).From(metalAccountsTable)

	if filter.MetalType != "" {
		q = q.Where(squirrel.Eq{"metal_type": filter.MetalType})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"total_weight": int64(0)})
	}

	q = q.OrderBy("metal_type", "fineness")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var accounts []entity.MetalStockAccount
	if err := pgxscan.Select(ctx, r.querier(ctx), &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("select metal accounts: %w", err)
	}
	return accounts, nil
}

// GetWeightAtDate replays the movement log to compute total weight as of date.
func (r *MetalStockRepo) GetWeightAtDate(ctx context.Context, key metalstock.Key, date time.Time) (int64, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN record_type = 'credit' THEN weight
			         WHEN record_type = 'debit' THEN 0
			         ELSE 0 END),
			0
		)
		FROM reg_metal_movements
		WHERE metal_type = $1
		  AND fineness = $2
		  AND period <= $3
	`

	var total int64
	err := r.querier(ctx).QueryRow(ctx, sql, key.MetalType, key.Fineness, date).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("weight at date: %w", err)
	}
	return total, nil
}

func (r *MetalStockRepo) movementSelect() squirrel.SelectBuilder {
	return r.builder.Select(
		"line_id", "source_type", "source_id", "period", "record_type",
		"metal_type", "fineness", "weight", "created_at",
	).From(metalMovementsTable)
}

// selectMovements scans movement rows by hand: Source is a nested
// struct, which scany cannot map from flat columns.
func (r *MetalStockRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]entity.MetalMovement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	defer rows.Close()

	var movements []entity.MetalMovement
	for rows.Next() {
		var m entity.MetalMovement
		if err := rows.Scan(
			&m.LineID, &m.Source.Type, &m.Source.ID, &m.Period, &m.RecordType,
			&m.MetalType, &m.Fineness, &m.Weight, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
