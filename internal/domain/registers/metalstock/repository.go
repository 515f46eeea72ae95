// Package metalstock provides the precious-metal stock accumulation
// register. Balances are tracked per (metal type, fineness) key in
// milligram-precise weights.
package metalstock

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/entity"
)

// Key identifies one ledger account. The same metal at different
// fineness is a different account: 916 gold and 750 gold never mix.
type Key struct {
	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`
}

// String renders the canonical METAL/fineness form used in logs and errors.
func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.MetalType, k.Fineness)
}

// Repository defines storage operations for the metal stock register.
type Repository interface {
	// Movement operations

	// CreateMovement appends one movement row. Movements are immutable.
	CreateMovement(ctx context.Context, movement entity.MetalMovement) error

	// MovementExists reports whether a movement with the same source,
	// key and record type was already written. Used as the per-step
	// idempotence guard under at-least-once event delivery.
	MovementExists(ctx context.Context, source entity.SourceRef, key Key, recordType entity.RecordType) (bool, error)

	// GetMovementsBySource retrieves all movements attributed to one
	// business event, for audit and compensation.
	GetMovementsBySource(ctx context.Context, source entity.SourceRef) ([]entity.MetalMovement, error)

	// GetMovementHistory returns the movement log for one account.
	GetMovementHistory(ctx context.Context, key Key, filter MovementFilter) ([]entity.MetalMovement, error)

	// Account operations

	// GetAccount returns the current balance for a key. A key with no
	// movements yet yields a zero account, not an error.
	GetAccount(ctx context.Context, key Key) (entity.MetalStockAccount, error)

	// GetAccountForUpdate returns the balance with a row lock.
	// Must be called within a transaction.
	GetAccountForUpdate(ctx context.Context, key Key) (entity.MetalStockAccount, error)

	// SaveAccount upserts balances, guarded by expectedVersion.
	// Returns CONCURRENT_MODIFICATION when the version moved underneath.
	SaveAccount(ctx context.Context, account entity.MetalStockAccount, expectedVersion int) error

	// ListAccounts returns accounts matching the filter, for stock reports.
	ListAccounts(ctx context.Context, filter AccountFilter) ([]entity.MetalStockAccount, error)

	// GetWeightAtDate replays the movement log to compute total weight
	// held as of a date (reporting only, bypasses the balance table).
	GetWeightAtDate(ctx context.Context, key Key, date time.Time) (int64, error)
}

// AccountFilter for filtering account queries.
type AccountFilter struct {
	MetalType   string
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
