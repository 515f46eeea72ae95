package purchase

import (
	"context"
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
)

// Repository defines storage operations for purchase invoices.
type Repository interface {
	Create(ctx context.Context, doc *PurchaseInvoice) error

	// Update saves the header with optimistic version check.
	Update(ctx context.Context, doc *PurchaseInvoice) error

	// SaveLines replaces the table part for a draft.
	SaveLines(ctx context.Context, invoiceID id.ID, lines []Line) error

	GetByID(ctx context.Context, invoiceID id.ID) (*PurchaseInvoice, error)

	// GetByIDForUpdate returns the header locked until the surrounding
	// transaction ends. Requires transaction context.
	GetByIDForUpdate(ctx context.Context, invoiceID id.ID) (*PurchaseInvoice, error)

	GetLines(ctx context.Context, invoiceID id.ID) ([]Line, error)

	List(ctx context.Context, filter Filter) ([]PurchaseInvoice, error)

	// Delete soft-deletes a draft.
	Delete(ctx context.Context, invoiceID id.ID) error

	// SetReconcileState records reconciliation progress outside the
	// processing transaction.
	SetReconcileState(ctx context.Context, invoiceID id.ID, state entity.ReconcileState, reason string) error
}

// Filter for purchase invoice list queries.
type Filter struct {
	SupplierID     *id.ID
	Status         *entity.DocumentStatus
	ReconcileState *entity.ReconcileState
	FromDate       *time.Time
	ToDate         *time.Time
	Limit          int
	Offset         int
}
