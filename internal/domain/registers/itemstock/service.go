package itemstock

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/pkg/logger"
)

const (
	maxSaveAttempts = 3
	retryBackoff    = 25 * time.Millisecond
)

// Service provides business operations for the item stock register.
// Same mutation discipline as the metal register: caller-managed
// transaction, source attribution, idempotent replay.
type Service struct {
	repo Repository
}

// NewService creates a new item stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Credit adds pieces to stock (purchase receipt).
func (s *Service) Credit(ctx context.Context, itemCode string, qty int64, source entity.SourceRef, period time.Time) error {
	if err := validateMovement(itemCode, qty); err != nil {
		return err
	}

	return s.apply(ctx, itemCode, source, period, entity.RecordTypeCredit, qty,
		func(acc *entity.ItemStockAccount) error {
			acc.TotalQty += qty
			acc.AvailableQty += qty
			return nil
		})
}

// Debit marks pieces as sold. Fails with INSUFFICIENT_STOCK when fewer
// than qty pieces are available.
func (s *Service) Debit(ctx context.Context, itemCode string, qty int64, source entity.SourceRef, period time.Time) error {
	if err := validateMovement(itemCode, qty); err != nil {
		return err
	}

	return s.apply(ctx, itemCode, source, period, entity.RecordTypeDebit, qty,
		func(acc *entity.ItemStockAccount) error {
			if acc.AvailableQty < qty {
				return apperror.NewInsufficientStock(itemCode,
					fmt.Sprintf("%d", qty), fmt.Sprintf("%d", acc.AvailableQty))
			}
			acc.AvailableQty -= qty
			acc.SoldQty += qty
			return nil
		})
}

// Reverse undoes a prior debit (cancelled sale).
func (s *Service) Reverse(ctx context.Context, itemCode string, qty int64, source entity.SourceRef, period time.Time) error {
	if err := validateMovement(itemCode, qty); err != nil {
		return err
	}

	return s.apply(ctx, itemCode, source, period, entity.RecordTypeReverse, qty,
		func(acc *entity.ItemStockAccount) error {
			if acc.SoldQty < qty {
				return apperror.NewBusinessRule(apperror.CodeStockUpdateFailed,
					"reverse exceeds sold quantity").
					WithDetail("item_code", itemCode).
					WithDetail("requested", qty).
					WithDetail("sold", acc.SoldQty)
			}
			acc.SoldQty -= qty
			acc.AvailableQty += qty
			return nil
		})
}

func (s *Service) apply(
	ctx context.Context,
	itemCode string,
	source entity.SourceRef,
	period time.Time,
	recordType entity.RecordType,
	qty int64,
	mutate func(*entity.ItemStockAccount) error,
) error {
	exists, err := s.repo.MovementExists(ctx, source, itemCode, recordType)
	if err != nil {
		return fmt.Errorf("check movement exists: %w", err)
	}
	if exists {
		logger.Info(ctx, "item movement already recorded, skipping",
			"source", source.String(),
			"item_code", itemCode,
			"record_type", string(recordType),
		)
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		acc, err := s.repo.GetAccountForUpdate(ctx, itemCode)
		if err != nil {
			return fmt.Errorf("get account %s: %w", itemCode, err)
		}

		expectedVersion := acc.Version
		if err := mutate(&acc); err != nil {
			return err
		}
		acc.Version = expectedVersion + 1
		acc.LastUpdated = time.Now().UTC()

		if err := acc.CheckInvariant(); err != nil {
			return apperror.NewInternal(err)
		}

		if err := s.repo.SaveAccount(ctx, acc, expectedVersion); err != nil {
			if apperror.IsConcurrentModification(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("save account %s: %w", itemCode, err)
		}

		movement := entity.NewItemMovement(source, period, recordType, itemCode, qty)
		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		logger.Info(ctx, "recorded item movement",
			"source", source.String(),
			"item_code", itemCode,
			"record_type", string(recordType),
			"quantity", qty,
		)
		return nil
	}

	return apperror.NewStockUpdateFailed(itemCode, lastErr)
}

// Snapshot returns the current balance for one item.
func (s *Service) Snapshot(ctx context.Context, itemCode string) (entity.ItemStockAccount, error) {
	acc, err := s.repo.GetAccount(ctx, itemCode)
	if err != nil {
		return entity.ItemStockAccount{}, fmt.Errorf("get account %s: %w", itemCode, err)
	}
	return acc, nil
}

// ListAccounts returns balances for stock reports.
func (s *Service) ListAccounts(ctx context.Context, filter AccountFilter) ([]entity.ItemStockAccount, error) {
	return s.repo.ListAccounts(ctx, filter)
}

// History returns the movement log for one item.
func (s *Service) History(ctx context.Context, itemCode string, filter MovementFilter) ([]entity.ItemMovement, error) {
	return s.repo.GetMovementHistory(ctx, itemCode, filter)
}

func validateMovement(itemCode string, qty int64) error {
	if itemCode == "" {
		return apperror.NewValidation("item code is required")
	}
	if qty <= 0 {
		return apperror.NewValidation("movement quantity must be positive").
			WithDetail("quantity", qty)
	}
	return nil
}
