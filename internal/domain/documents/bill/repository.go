package bill

import (
	"context"
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// Repository defines storage operations for bills.
type Repository interface {
	// Create inserts the document header.
	Create(ctx context.Context, doc *Bill) error

	// Update saves the header with optimistic version check.
	Update(ctx context.Context, doc *Bill) error

	// SaveLines replaces both table parts for a draft.
	SaveLines(ctx context.Context, billID id.ID, sale []SaleLine, exchange []ExchangeLine) error

	// GetByID returns the header only; lines are loaded separately.
	GetByID(ctx context.Context, billID id.ID) (*Bill, error)

	// GetByIDForUpdate returns the header locked until the surrounding
	// transaction ends. Requires transaction context.
	GetByIDForUpdate(ctx context.Context, billID id.ID) (*Bill, error)

	// GetLines returns both table parts ordered by line number.
	GetLines(ctx context.Context, billID id.ID) ([]SaleLine, []ExchangeLine, error)

	// List returns headers matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Bill, error)

	// Delete soft-deletes a draft.
	Delete(ctx context.Context, billID id.ID) error

	// AddPayment appends a payment row.
	AddPayment(ctx context.Context, payment Payment) error

	// GetPayments returns payments ordered by paid_at.
	GetPayments(ctx context.Context, billID id.ID) ([]Payment, error)

	// UpdatePaidAmounts persists recomputed paid/pending after a payment.
	UpdatePaidAmounts(ctx context.Context, billID id.ID, paid, pending types.Money) error

	// SetReconcileState records reconciliation progress. Runs in its own
	// statement so a failed state survives the rolled-back processing tx.
	SetReconcileState(ctx context.Context, billID id.ID, state entity.ReconcileState, reason string) error
}

// Filter for bill list queries.
type Filter struct {
	CustomerID     *id.ID
	Status         *entity.DocumentStatus
	ReconcileState *entity.ReconcileState
	FromDate       *time.Time
	ToDate         *time.Time
	Limit          int
	Offset         int
}
