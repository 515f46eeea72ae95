package bill

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/core/types"
	"aurum/internal/domain/audit"
	"aurum/internal/domain/events"
	"aurum/internal/domain/valuation"
	"aurum/pkg/logger"
)

// NumberPrefix for generated bill numbers.
const NumberPrefix = "BILL"

// Service provides business operations for bills. Stock effects are
// never applied here: confirmation publishes an outbox event and the
// reconciliation worker applies ledger movements asynchronously.
type Service struct {
	repo      Repository
	txManager tx.Manager
	publisher events.Publisher
	numerator numerator.Generator
	policy    valuation.PaymentPolicy
	auditor   audit.Recorder
}

// NewService creates a new bill service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	publisher events.Publisher,
	num numerator.Generator,
	policy valuation.PaymentPolicy,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		publisher: publisher,
		numerator: num,
		policy:    policy,
		auditor:   auditor,
	}
}

// Create persists a new draft bill, assigning a number when empty.
func (s *Service) Create(ctx context.Context, doc *Bill) error {
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
		if err := s.repo.SaveLines(ctx, doc.ID, doc.SaleLines, doc.ExchangeLines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a bill with lines and payments.
func (s *Service) GetByID(ctx context.Context, billID id.ID) (*Bill, error) {
	doc, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	doc.SaleLines, doc.ExchangeLines, err = s.repo.GetLines(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	doc.Payments, err = s.repo.GetPayments(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}

	return doc, nil
}

// List returns bill headers matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Bill, error) {
	return s.repo.List(ctx, filter)
}

// Update saves changes to a draft bill.
func (s *Service) Update(ctx context.Context, doc *Bill) error {
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
		if err := s.repo.SaveLines(ctx, doc.ID, doc.SaleLines, doc.ExchangeLines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a draft bill.
func (s *Service) Delete(ctx context.Context, billID id.ID) error {
	doc, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, billID)
}

// Confirm freezes the bill and queues its stock effects. Totals are
// recomputed one final time so the frozen values always match the lines.
func (s *Service) Confirm(ctx context.Context, billID id.ID) error {
	doc, err := s.GetByID(ctx, billID)
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
			EntityType: events.AggregateBill,
			EntityID:   doc.ID,
			Payload:    doc.Totals,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill confirmed",
		"id", doc.ID,
		"number", doc.Number,
		"grand_total", doc.Totals.GrandTotal.String(),
	)
	return nil
}

// Cancel terminates a bill. A confirmed bill whose stock effects were
// already applied gets a compensation event; a draft just flips state.
// The decision runs on a locked re-read so it cannot race the
// reconciliation worker.
func (s *Service) Cancel(ctx context.Context, billID id.ID) error {
	var (
		doc               *Bill
		needsCompensation bool
	)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetByIDForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if doc.IsCancelled() {
			return apperror.NewBusinessRule(apperror.CodeDocumentCancelled,
				"Bill is already cancelled.").
				WithDetail("document_id", doc.ID.String())
		}

		needsCompensation = doc.IsConfirmed() && doc.ReconcileState == entity.ReconcileProcessed

		doc.MarkCancelled()

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if needsCompensation {
			doc.SaleLines, doc.ExchangeLines, err = s.repo.GetLines(ctx, billID)
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
			EntityType: events.AggregateBill,
			EntityID:   doc.ID,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill cancelled",
		"id", doc.ID,
		"number", doc.Number,
		"compensated", needsCompensation,
	)
	return nil
}

// ApplyPayment records a payment against a confirmed bill.
func (s *Service) ApplyPayment(ctx context.Context, billID id.ID, amount types.Money, method, reference string) (*Bill, error) {
	doc, err := s.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !doc.IsConfirmed() {
		return nil, apperror.NewBusinessRule(apperror.CodeValidation,
			"Payments are accepted on confirmed bills only.").
			WithDetail("status", string(doc.Status))
	}

	totals, err := valuation.ApplyPayment(doc.Totals, amount, s.policy)
	if err != nil {
		return nil, err
	}
	doc.Totals = totals

	payment := Payment{
		PaymentID: id.New(),
		BillID:    doc.ID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
		PaidAt:    time.Now().UTC(),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.AddPayment(ctx, payment); err != nil {
			return fmt.Errorf("add payment: %w", err)
		}
		if err := s.repo.UpdatePaidAmounts(ctx, doc.ID, totals.PaidAmount, totals.PendingAmount); err != nil {
			return fmt.Errorf("update paid amounts: %w", err)
		}
		return s.auditor.Record(ctx, audit.Action{
			Verb:       "payment",
			EntityType: events.AggregateBill,
			EntityID:   doc.ID,
			Payload:    payment,
		})
	})
	if err != nil {
		return nil, err
	}

	doc.Payments = append(doc.Payments, payment)

	logger.Info(ctx, "bill payment recorded",
		"id", doc.ID,
		"amount", amount.String(),
		"pending", totals.PendingAmount.String(),
	)
	return doc, nil
}
