package item

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/domain"
)

// Service provides business logic for the item catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Item]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new item service.
func NewService(repo Repository, txManager tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkBarcodeUnique)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, it *Item) error {
	if it.Code == "" {
		cfg := numerator.Config{Prefix: "ITM", PadWidth: 6, ResetPeriod: "never"}
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		it.Code = code
	}

	if exists, _ := s.repo.ExistsByCode(ctx, it.Code); exists {
		return apperror.NewDuplicate("item", "code", it.Code)
	}

	return s.checkBarcodeUnique(ctx, it)
}

func (s *Service) checkBarcodeUnique(ctx context.Context, it *Item) error {
	if it.Barcode == nil || *it.Barcode == "" {
		return nil
	}
	existing, err := s.repo.FindByBarcode(ctx, *it.Barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != it.ID {
		return apperror.NewDuplicate("item", "barcode", *it.Barcode)
	}
	return nil
}

// FindByBarcode retrieves an item by barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Item, error) {
	it, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("item", barcode)
		}
		return nil, err
	}
	return it, nil
}
