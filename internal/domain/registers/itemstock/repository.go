// Package itemstock provides the catalogue-item stock accumulation
// register. It mirrors the metal register but counts pieces, not weight.
package itemstock

import (
	"context"
	"time"

	"aurum/internal/core/entity"
)

// Repository defines storage operations for the item stock register.
type Repository interface {
	CreateMovement(ctx context.Context, movement entity.ItemMovement) error

	// MovementExists is the per-step idempotence guard, same contract
	// as the metal register.
	MovementExists(ctx context.Context, source entity.SourceRef, itemCode string, recordType entity.RecordType) (bool, error)

	GetMovementsBySource(ctx context.Context, source entity.SourceRef) ([]entity.ItemMovement, error)

	GetMovementHistory(ctx context.Context, itemCode string, filter MovementFilter) ([]entity.ItemMovement, error)

	// GetAccount returns a zero account for unknown item codes.
	GetAccount(ctx context.Context, itemCode string) (entity.ItemStockAccount, error)

	// GetAccountForUpdate locks the balance row; transaction required.
	GetAccountForUpdate(ctx context.Context, itemCode string) (entity.ItemStockAccount, error)

	// SaveAccount upserts balances, guarded by expectedVersion.
	SaveAccount(ctx context.Context, account entity.ItemStockAccount, expectedVersion int) error

	ListAccounts(ctx context.Context, filter AccountFilter) ([]entity.ItemStockAccount, error)
}

// AccountFilter for filtering account queries.
type AccountFilter struct {
	ItemCodes   []string
	ExcludeZero bool
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
