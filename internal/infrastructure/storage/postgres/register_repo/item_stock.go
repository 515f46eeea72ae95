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
	"aurum/internal/domain/registers/itemstock"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	itemMovementsTable = "reg_item_movements"
	itemAccountsTable  = "reg_item_accounts"
)

// Ensure interface compliance.
var _ itemstock.Repository = (*ItemStockRepo)(nil)

// ItemStockRepo implements itemstock.Repository. It is the piece-count
// mirror of MetalStockRepo.
type ItemStockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewItemStockRepo creates a new item stock register repository.
func NewItemStockRepo(txManager *postgres.TxManager) *ItemStockRepo {
	return &ItemStockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ItemStockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// CreateMovement appends one movement row to the log.
func (r *ItemStockRepo) CreateMovement(ctx context.Context, m entity.ItemMovement) error {
	q := r.builder.Insert(itemMovementsTable).
		Columns(
			"line_id", "source_type", "source_id", "period", "record_type",
			"item_code", "quantity", "created_at",
		).
		Values(
			m.LineID, m.Source.Type, m.Source.ID, m.Period, m.RecordType,
			m.ItemCode, m.Quantity, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert item movement: %w", err)
	}
	return nil
}

// MovementExists reports whether a movement for (source, itemCode, recordType)
// was already written.
func (r *ItemStockRepo) MovementExists(ctx context.Context, source entity.SourceRef, itemCode string, recordType entity.RecordType) (bool, error) {
	q := r.builder.Select("1").
		From(itemMovementsTable).
		Where(squirrel.Eq{
			"source_type": source.Type,
			"source_id":   source.ID,
			"item_code":   itemCode,
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
func (r *ItemStockRepo) GetMovementsBySource(ctx context.Context, source entity.SourceRef) ([]entity.ItemMovement, error) {
	q := r.movementSelect().
		Where(squirrel.Eq{"source_type": source.Type, "source_id": source.ID}).
		OrderBy("created_at")

	return r.selectMovements(ctx, q)
}

// GetMovementHistory returns the movement log for one item code.
func (r *ItemStockRepo) GetMovementHistory(ctx context.Context, itemCode string, filter itemstock.MovementFilter) ([]entity.ItemMovement, error) {
	q := r.movementSelect().
		Where(squirrel.Eq{"item_code": itemCode})

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

// GetAccount returns the balance row for an item code, or a zero account
// when the code has never been credited.
func (r *ItemStockRepo) GetAccount(ctx context.Context, itemCode string) (entity.ItemStockAccount, error) {
	return r.getAccount(ctx, itemCode, false)
}

// GetAccountForUpdate locks the balance row. Requires transaction context.
func (r *ItemStockRepo) GetAccountForUpdate(ctx context.Context, itemCode string) (entity.ItemStockAccount, error) {
	return r.getAccount(ctx, itemCode, true)
}

func (r *ItemStockRepo) getAccount(ctx context.Context, itemCode string, forUpdate bool) (entity.ItemStockAccount, error) {
	var account entity.ItemStockAccount

	q := r.builder.Select(
		"item_code", "total_qty", "available_qty", "sold_qty",
		"version", "last_updated",
	).From(itemAccountsTable).
		Where(squirrel.Eq{"item_code": itemCode})

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return account, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), &account, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.ItemStockAccount{ItemCode: itemCode}, nil
		}
		return account, fmt.Errorf("get item account: %w", err)
	}

	return account, nil
}

// SaveAccount upserts the balance row guarded by expectedVersion.
// expectedVersion 0 means the account does not exist yet.
func (r *ItemStockRepo) SaveAccount(ctx context.Context, account entity.ItemStockAccount, expectedVersion int) error {
	if expectedVersion == 0 {
		q := r.builder.Insert(itemAccountsTable).
			Columns(
				"item_code", "total_qty", "available_qty", "sold_qty",
				"version", "last_updated",
			).
			Values(
				account.ItemCode, account.TotalQty, account.AvailableQty, account.SoldQty,
				account.Version, time.Now().UTC(),
			).
			Suffix("ON CONFLICT (item_code) DO NOTHING")

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		result, err := r.querier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("insert item account: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperror.NewConcurrentModification(itemAccountsTable, account.ItemCode)
		}
		return nil
	}

	q := r.builder.Update(itemAccountsTable).
		Set("total_qty", account.TotalQty).
		Set("available_qty", account.AvailableQty).
		Set("sold_qty", account.SoldQty).
		Set("version", account.Version).
		Set("last_updated", time.Now().UTC()).
		Where(squirrel.Eq{
			"item_code": account.ItemCode,
			"version":   expectedVersion,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update item account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(itemAccountsTable, account.ItemCode)
	}
	return nil
}

// ListAccounts returns balance rows matching the filter.
func (r *ItemStockRepo) ListAccounts(ctx context.Context, filter itemstock.AccountFilter) ([]entity.ItemStockAccount, error) {
	q := r.builder.Select(
		"item_code", "total_qty", "available_qty", "sold_qty",
		"version", "last_updated",
	).From(itemAccountsTable)

	if len(filter.ItemCodes) > 0 {
		q = q.Where(squirrel.Eq{"item_code": filter.ItemCodes})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"total_qty": int64(0)})
	}

	q = q.OrderBy("item_code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var accounts []entity.ItemStockAccount
	if err := pgxscan.Select(ctx, r.querier(ctx), &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("select item accounts: %w", err)
	}
	return accounts, nil
}

func (r *ItemStockRepo) movementSelect() squirrel.SelectBuilder {
	return r.builder.Select(
		"line_id", "source_type", "source_id", "period", "record_type",
		"item_code", "quantity", "created_at",
	).From(itemMovementsTable)
}

func (r *ItemStockRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]entity.ItemMovement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	defer rows.Close()

	var movements []entity.ItemMovement
	for rows.Next() {
		var m entity.ItemMovement
		if err := rows.Scan(
			&m.LineID, &m.Source.Type, &m.Source.ID, &m.Period, &m.RecordType,
			&m.ItemCode, &m.Quantity, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
