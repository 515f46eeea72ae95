package entity

import (
	"context"
	"time"

	"aurum/internal/core/apperror"
)

// DocumentStatus is the lifecycle state of a business document.
type DocumentStatus string

const (
	// StatusDraft allows free editing; totals are recomputed on every change.
	StatusDraft DocumentStatus = "draft"
	// StatusConfirmed freezes lines and totals; only payments may follow.
	StatusConfirmed DocumentStatus = "confirmed"
	// StatusCancelled is terminal. Confirmed documents that were already
	// reconciled get a compensating reversal.
	StatusCancelled DocumentStatus = "cancelled"
)

// ReconcileState tracks stock reconciliation of a confirmed document.
type ReconcileState string

const (
	ReconcilePending   ReconcileState = "pending"
	ReconcileProcessed ReconcileState = "processed"
	ReconcileFailed    ReconcileState = "failed"
)

// Document is the base type for business transactions.
// Examples: Bill, PurchaseInvoice.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status drives the DRAFT -> CONFIRMED -> CANCELLED lifecycle
	Status DocumentStatus `db:"status" json:"status"`

	// ReconcileState reflects stock reconciliation progress for confirmed docs
	ReconcileState ReconcileState `db:"reconcile_state" json:"reconcileState,omitempty"`

	// ReconcileError stores the reason when reconciliation failed
	ReconcileError string `db:"reconcile_error" json:"reconcileError,omitempty"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new draft Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       StatusDraft,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// CanModify checks if document can be modified.
// Only drafts are editable; confirmed documents are frozen.
func (d *Document) CanModify() error {
	switch d.Status {
	case StatusConfirmed:
		return apperror.NewBusinessRule(
			apperror.CodeDocumentConfirmed,
			"Cannot modify confirmed document.",
		).WithDetail("document_id", d.ID.String())
	case StatusCancelled:
		return apperror.NewBusinessRule(
			apperror.CodeDocumentCancelled,
			"Cannot modify cancelled document.",
		).WithDetail("document_id", d.ID.String())
	}
	return nil
}

// IsDraft returns true while the document is editable.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}

// IsConfirmed returns true once totals are frozen.
func (d *Document) IsConfirmed() bool {
	return d.Status == StatusConfirmed
}

// IsCancelled returns true for terminally cancelled documents.
func (d *Document) IsCancelled() bool {
	return d.Status == StatusCancelled
}

// MarkConfirmed freezes the document and queues it for reconciliation.
func (d *Document) MarkConfirmed() {
	d.Status = StatusConfirmed
	d.ReconcileState = ReconcilePending
	d.Touch()
}

// MarkCancelled transitions the document to its terminal state.
func (d *Document) MarkCancelled() {
	d.Status = StatusCancelled
	d.Touch()
}

// IsBackdated checks if document date is in the past.
func (d *Document) IsBackdated() bool {
	return d.Date.Before(time.Now().UTC().Truncate(24 * time.Hour))
}
