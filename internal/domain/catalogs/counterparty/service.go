package counterparty

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/domain"
)

// Service provides business logic for the Counterparty catalog.
type Service struct {
	*domain.CatalogService[*Counterparty]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new counterparty service.
func NewService(repo Repository, txManager tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Counterparty]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "counterparty",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkGSTINUnique)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, cp *Counterparty) error {
	if cp.Code == "" {
		cfg := numerator.Config{Prefix: "CP", PadWidth: 6, ResetPeriod: "never"}
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		cp.Code = code
	}

	if exists, _ := s.repo.ExistsByCode(ctx, cp.Code); exists {
		return apperror.NewDuplicate("counterparty", "code", cp.Code)
	}

	return s.checkGSTINUnique(ctx, cp)
}

func (s *Service) checkGSTINUnique(ctx context.Context, cp *Counterparty) error {
	if cp.GSTIN == nil || *cp.GSTIN == "" {
		return nil
	}
	existing, err := s.repo.FindByGSTIN(ctx, *cp.GSTIN)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != cp.ID {
		return apperror.NewDuplicate("counterparty", "gstin", *cp.GSTIN)
	}
	return nil
}

// FindByPhone retrieves a counterparty by phone number.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*Counterparty, error) {
	cp, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("counterparty", phone)
		}
		return nil, err
	}
	return cp, nil
}
