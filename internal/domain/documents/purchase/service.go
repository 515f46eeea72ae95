package purchase

import (
	"context"
	"fmt"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/domain/audit"
	"aurum/internal/domain/events"
	"aurum/pkg/logger"
)

// NumberPrefix for generated purchase invoice numbers.
const NumberPrefix = "PINV"

// Service provides business operations for purchase invoices.
type Service struct {
	repo      Repository
	txManager tx.Manager
	publisher events.Publisher
	numerator numerator.Generator
	auditor   audit.Recorder
}

// NewService creates a new purchase invoice service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	publisher events.Publisher,
	num numerator.Generator,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		publisher: publisher,
		numerator: num,
		auditor:   auditor,
	}
}

// Create persists a new draft invoice, assigning a number when empty.
func (s *Service) Create(ctx context.Context, doc *PurchaseInvoice) error {
	doc.RecalculateTotals()
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase invoice created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*PurchaseInvoice, error) {
	doc, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	doc.Lines, err = s.repo.GetLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return doc, nil
}

// List returns invoice headers matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]PurchaseInvoice, error) {
	return s.repo.List(ctx, filter)
}

// Update saves changes to a draft invoice.
func (s *Service) Update(ctx context.Context, doc *PurchaseInvoice) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	doc.RecalculateTotals()
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a draft invoice.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	doc, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, invoiceID)
}

// Confirm freezes the invoice and queues its stock effects.
func (s *Service) Confirm(ctx context.Context, invoiceID id.ID) error {
	doc, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}

	doc.RecalculateTotals()
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	doc.MarkConfirmed()

	event, err := doc.ConfirmedEvent()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build confirmed event: %w", err))
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			return fmt.Errorf("publish confirmed event: %w", err)
		}
		return s.auditor.Record(ctx, audit.Action{
			Verb:       "confirm",
			EntityType: events.AggregatePurchase,
			EntityID:   doc.ID,
			Payload:    doc.Totals,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase invoice confirmed",
		"id", doc.ID,
		"number", doc.Number,
		"grand_total", doc.Totals.GrandTotal.String(),
	)
	return nil
}

// Cancel terminates an invoice, compensating applied stock effects.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) error {
	var (
		doc               *PurchaseInvoice
		needsCompensation bool
	)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if doc.IsCancelled() {
			return apperror.NewBusinessRule(apperror.CodeDocumentCancelled,
				"Purchase invoice is already cancelled.").
				WithDetail("document_id", doc.ID.String())
		}

		needsCompensation = doc.IsConfirmed() && doc.ReconcileState == entity.ReconcileProcessed

		doc.MarkCancelled()

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if needsCompensation {
			doc.Lines, err = s.repo.GetLines(ctx, invoiceID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			event, err := doc.CancelledEvent()
			if err != nil {
				return fmt.Errorf("build cancelled event: %w", err)
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				return fmt.Errorf("publish cancelled event: %w", err)
			}
		}
		return s.auditor.Record(ctx, audit.Action{
			Verb:       "cancel",
			EntityType: events.AggregatePurchase,
			EntityID:   doc.ID,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase invoice cancelled",
		"id", doc.ID,
		"number", doc.Number,
		"compensated", needsCompensation,
	)
	return nil
}
