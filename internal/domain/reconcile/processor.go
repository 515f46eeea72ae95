// Package reconcile applies the stock effects of confirmed documents.
// It consumes outbox events with at-least-once delivery, so every step
// is guarded twice: an event-level processed-marker and the registers'
// own per-movement idempotence checks.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/tx"
	"aurum/internal/domain/documents/bill"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/events"
	"aurum/internal/domain/registers/itemstock"
	"aurum/internal/domain/registers/metalstock"
	"aurum/pkg/logger"
)

// ProcessedEventStore records which events have been fully applied.
// MarkProcessed returns a DUPLICATE_EVENT error when the event was
// already recorded; callers treat that as success.
type ProcessedEventStore interface {
	MarkProcessed(ctx context.Context, eventID id.ID, eventType string) error
}

// Processor turns outbox events into register movements. All effects of
// one event apply in a single transaction together with the processed
// marker, so a crash mid-way leaves nothing half-applied.
type Processor struct {
	bills     bill.Repository
	purchases purchase.Repository
	metal     *metalstock.Service
	items     *itemstock.Service
	processed ProcessedEventStore
	txManager tx.Manager
}

// NewProcessor creates a reconciliation processor.
func NewProcessor(
	bills bill.Repository,
	purchases purchase.Repository,
	metal *metalstock.Service,
	items *itemstock.Service,
	processed ProcessedEventStore,
	txManager tx.Manager,
) *Processor {
	return &Processor{
		bills:     bills,
		purchases: purchases,
		metal:     metal,
		items:     items,
		processed: processed,
		txManager: txManager,
	}
}

// HandleEvent dispatches one outbox event. A nil return acknowledges
// the event; an error leaves it for the relay's retry/backoff cycle.
func (p *Processor) HandleEvent(ctx context.Context, eventID id.ID, eventType string, payload []byte) error {
	var err error
	switch eventType {
	case events.TypeBillConfirmed:
		err = p.processBillConfirmed(ctx, eventID, payload)
	case events.TypeBillCancelled:
		err = p.processBillCancelled(ctx, eventID, payload)
	case events.TypePurchaseConfirmed:
		err = p.processPurchaseConfirmed(ctx, eventID, payload)
	case events.TypePurchaseCancelled:
		err = p.processPurchaseCancelled(ctx, eventID, payload)
	default:
		logger.Warn(ctx, "unknown event type, acknowledging", "event_type", eventType)
		return nil
	}

	if apperror.IsDuplicateEvent(err) {
		logger.Info(ctx, "event already processed, acknowledging",
			"event_id", eventID, "event_type", eventType)
		return nil
	}
	return err
}

// processBillConfirmed debits sold items and credits exchanged metal.
func (p *Processor) processBillConfirmed(ctx context.Context, eventID id.ID, raw []byte) error {
	var payload bill.ReconcilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperror.NewInternal(fmt.Errorf("unmarshal bill payload: %w", err))
	}

	source := entity.SourceRef{Type: entity.SourceBill, ID: payload.BillID}

	var skipped bool
	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// The row lock orders this transaction against a concurrent
		// cancel: whichever side commits first, the other sees it.
		doc, err := p.bills.GetByIDForUpdate(ctx, payload.BillID)
		if err != nil {
			return fmt.Errorf("load bill %s: %w", payload.BillID, err)
		}
		if doc.IsCancelled() {
			// Cancelled between confirmation and processing: no stock
			// effects were applied yet, so only the marker is recorded.
			skipped = true
			return p.processed.MarkProcessed(ctx, eventID, events.TypeBillConfirmed)
		}

		if err := p.processed.MarkProcessed(ctx, eventID, events.TypeBillConfirmed); err != nil {
			return err
		}

		for _, it := range payload.Items {
			if err := p.items.Debit(ctx, it.ItemCode, it.Quantity, source, payload.Date); err != nil {
				return fmt.Errorf("debit item %s: %w", it.ItemCode, err)
			}
		}

		for _, m := range payload.Metal {
			key := metalstock.Key{MetalType: m.MetalType, Fineness: m.Fineness}
			if err := p.metal.Credit(ctx, key, m.Weight, source, payload.Date); err != nil {
				return fmt.Errorf("credit metal %s: %w", key, err)
			}
		}

		return p.bills.SetReconcileState(ctx, payload.BillID, entity.ReconcileProcessed, "")
	})
	if err != nil {
		p.recordBillFailure(ctx, payload.BillID, err)
		return err
	}

	if skipped {
		logger.Info(ctx, "bill cancelled before reconciliation, skipping",
			"bill_id", payload.BillID, "number", payload.Number)
		return nil
	}

	logger.Info(ctx, "bill reconciled",
		"bill_id", payload.BillID,
		"number", payload.Number,
		"items", len(payload.Items),
		"metal_entries", len(payload.Metal),
	)
	return nil
}

// processBillCancelled compensates a reconciled bill: sold items return
// to available, exchanged metal leaves the available pool.
func (p *Processor) processBillCancelled(ctx context.Context, eventID id.ID, raw []byte) error {
	var payload bill.ReconcilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperror.NewInternal(fmt.Errorf("unmarshal bill payload: %w", err))
	}

	source := entity.SourceRef{Type: entity.SourceCancel, ID: payload.BillID}

	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := p.processed.MarkProcessed(ctx, eventID, events.TypeBillCancelled); err != nil {
			return err
		}

		for _, it := range payload.Items {
			if err := p.items.Reverse(ctx, it.ItemCode, it.Quantity, source, payload.Date); err != nil {
				return fmt.Errorf("reverse item %s: %w", it.ItemCode, err)
			}
		}

		for _, m := range payload.Metal {
			key := metalstock.Key{MetalType: m.MetalType, Fineness: m.Fineness}
			if err := p.metal.Debit(ctx, key, m.Weight, source, payload.Date); err != nil {
				return fmt.Errorf("debit metal %s: %w", key, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill compensation applied",
		"bill_id", payload.BillID, "number", payload.Number)
	return nil
}

// processPurchaseConfirmed credits purchased metal and finished goods.
func (p *Processor) processPurchaseConfirmed(ctx context.Context, eventID id.ID, raw []byte) error {
	var payload purchase.ReconcilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperror.NewInternal(fmt.Errorf("unmarshal purchase payload: %w", err))
	}

	source := entity.SourceRef{Type: entity.SourcePurchase, ID: payload.InvoiceID}

	var skipped bool
	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := p.purchases.GetByIDForUpdate(ctx, payload.InvoiceID)
		if err != nil {
			return fmt.Errorf("load purchase invoice %s: %w", payload.InvoiceID, err)
		}
		if doc.IsCancelled() {
			skipped = true
			return p.processed.MarkProcessed(ctx, eventID, events.TypePurchaseConfirmed)
		}

		if err := p.processed.MarkProcessed(ctx, eventID, events.TypePurchaseConfirmed); err != nil {
			return err
		}

		for _, m := range payload.Metal {
			key := metalstock.Key{MetalType: m.MetalType, Fineness: m.Fineness}
			if err := p.metal.Credit(ctx, key, m.Weight, source, payload.Date); err != nil {
				return fmt.Errorf("credit metal %s: %w", key, err)
			}
		}

		for _, it := range payload.Items {
			if err := p.items.Credit(ctx, it.ItemCode, it.Quantity, source, payload.Date); err != nil {
				return fmt.Errorf("credit item %s: %w", it.ItemCode, err)
			}
		}

		return p.purchases.SetReconcileState(ctx, payload.InvoiceID, entity.ReconcileProcessed, "")
	})
	if err != nil {
		p.recordPurchaseFailure(ctx, payload.InvoiceID, err)
		return err
	}

	if skipped {
		logger.Info(ctx, "purchase invoice cancelled before reconciliation, skipping",
			"invoice_id", payload.InvoiceID, "number", payload.Number)
		return nil
	}

	logger.Info(ctx, "purchase invoice reconciled",
		"invoice_id", payload.InvoiceID, "number", payload.Number)
	return nil
}

// processPurchaseCancelled compensates a reconciled purchase: received
// metal and goods leave the available pool.
func (p *Processor) processPurchaseCancelled(ctx context.Context, eventID id.ID, raw []byte) error {
	var payload purchase.ReconcilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperror.NewInternal(fmt.Errorf("unmarshal purchase payload: %w", err))
	}

	source := entity.SourceRef{Type: entity.SourceCancel, ID: payload.InvoiceID}

	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := p.processed.MarkProcessed(ctx, eventID, events.TypePurchaseCancelled); err != nil {
			return err
		}

		for _, m := range payload.Metal {
			key := metalstock.Key{MetalType: m.MetalType, Fineness: m.Fineness}
			if err := p.metal.Debit(ctx, key, m.Weight, source, payload.Date); err != nil {
				return fmt.Errorf("debit metal %s: %w", key, err)
			}
		}

		for _, it := range payload.Items {
			if err := p.items.Debit(ctx, it.ItemCode, it.Quantity, source, payload.Date); err != nil {
				return fmt.Errorf("debit item %s: %w", it.ItemCode, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase compensation applied",
		"invoice_id", payload.InvoiceID, "number", payload.Number)
	return nil
}

// recordBillFailure persists the failed state outside the rolled-back
// transaction so operators can see stuck documents.
func (p *Processor) recordBillFailure(ctx context.Context, billID id.ID, cause error) {
	if apperror.IsDuplicateEvent(cause) {
		return
	}
	if err := p.bills.SetReconcileState(ctx, billID, entity.ReconcileFailed, cause.Error()); err != nil {
		logger.Error(ctx, "record bill reconcile failure", "bill_id", billID, "error", err)
	}
}

func (p *Processor) recordPurchaseFailure(ctx context.Context, invoiceID id.ID, cause error) {
	if apperror.IsDuplicateEvent(cause) {
		return
	}
	if err := p.purchases.SetReconcileState(ctx, invoiceID, entity.ReconcileFailed, cause.Error()); err != nil {
		logger.Error(ctx, "record purchase reconcile failure", "invoice_id", invoiceID, "error", err)
	}
}
