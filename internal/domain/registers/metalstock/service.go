package metalstock

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/types"
	"aurum/pkg/logger"
)

// maxSaveAttempts bounds optimistic retries when the service is called
// without a surrounding transaction (manual adjustments). Within the
// reconciliation transaction the row lock makes the first attempt win.
// Retries back off linearly on retryBackoff so competing writers
// do not collide again immediately.
const (
	maxSaveAttempts = 3
	retryBackoff    = 25 * time.Millisecond
)

// Service provides business operations for the metal stock register.
// Mutating operations are expected to run inside a caller-managed
// transaction; every mutation is attributed to a SourceRef and guarded
// for idempotent replay.
type Service struct {
	repo Repository
}

// NewService creates a new metal stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Credit adds weight to an account: total and available grow together.
// Replaying the same source is a no-op.
func (s *Service) Credit(ctx context.Context, key Key, weight types.Weight, source entity.SourceRef, period time.Time) error {
	if err := validateMovement(key, weight); err != nil {
		return err
	}

	return s.apply(ctx, key, source, period, entity.RecordTypeCredit, weight,
		func(acc *entity.MetalStockAccount) error {
			acc.TotalWeight = acc.TotalWeight.Add(weight)
			acc.AvailableWeight = acc.AvailableWeight.Add(weight)
			return nil
		})
}

// Debit moves weight from available to used. Fails with
// INSUFFICIENT_STOCK when the account cannot cover the request;
// balances are never driven negative.
func (s *Service) Debit(ctx context.Context, key Key, weight types.Weight, source entity.SourceRef, period time.Time) error {
	if err := validateMovement(key, weight); err != nil {
		return err
	}

	return s.apply(ctx, key, source, period, entity.RecordTypeDebit, weight,
		func(acc *entity.MetalStockAccount) error {
			if acc.AvailableWeight < weight {
				return apperror.NewInsufficientStock(key.String(), weight.String(), acc.AvailableWeight.String())
			}
			acc.AvailableWeight = acc.AvailableWeight.Sub(weight)
			acc.UsedWeight = acc.UsedWeight.Add(weight)
			return nil
		})
}

// Reverse undoes a prior debit, returning weight from used to
// available. Total is unchanged.
func (s *Service) Reverse(ctx context.Context, key Key, weight types.Weight, source entity.SourceRef, period time.Time) error {
	if err := validateMovement(key, weight); err != nil {
		return err
	}

	return s.apply(ctx, key, source, period, entity.RecordTypeReverse, weight,
		func(acc *entity.MetalStockAccount) error {
			if acc.UsedWeight < weight {
				return apperror.NewBusinessRule(apperror.CodeStockUpdateFailed,
					"reverse exceeds used weight").
					WithDetail("key", key.String()).
					WithDetail("requested", weight.String()).
					WithDetail("used", acc.UsedWeight.String())
			}
			acc.UsedWeight = acc.UsedWeight.Sub(weight)
			acc.AvailableWeight = acc.AvailableWeight.Add(weight)
			return nil
		})
}

// apply is the single mutation path: idempotence check, locked read,
// balance mutation, invariant check, versioned save, movement append.
func (s *Service) apply(
	ctx context.Context,
	key Key,
	source entity.SourceRef,
	period time.Time,
	recordType entity.RecordType,
	weight types.Weight,
	mutate func(*entity.MetalStockAccount) error,
) error {
	exists, err := s.repo.MovementExists(ctx, source, key, recordType)
	if err != nil {
		return fmt.Errorf("check movement exists: %w", err)
	}
	if exists {
		logger.Info(ctx, "metal movement already recorded, skipping",
			"source", source.String(),
			"key", key.String(),
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

		acc, err := s.repo.GetAccountForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("get account %s: %w", key, err)
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
			return fmt.Errorf("save account %s: %w", key, err)
		}

		movement := entity.NewMetalMovement(source, period, recordType, key.MetalType, key.Fineness, weight)
		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		logger.Info(ctx, "recorded metal movement",
			"source", source.String(),
			"key", key.String(),
			"record_type", string(recordType),
			"weight", weight.String(),
		)
		return nil
	}

	return apperror.NewStockUpdateFailed(key.String(), lastErr)
}

// Snapshot returns the current balance for one account.
func (s *Service) Snapshot(ctx context.Context, key Key) (entity.MetalStockAccount, error) {
	acc, err := s.repo.GetAccount(ctx, key)
	if err != nil {
		return entity.MetalStockAccount{}, fmt.Errorf("get account %s: %w", key, err)
	}
	return acc, nil
}

// ListAccounts returns balances for stock reports.
func (s *Service) ListAccounts(ctx context.Context, filter AccountFilter) ([]entity.MetalStockAccount, error) {
	return s.repo.ListAccounts(ctx, filter)
}

// History returns the movement log for one account.
func (s *Service) History(ctx context.Context, key Key, filter MovementFilter) ([]entity.MetalMovement, error) {
	return s.repo.GetMovementHistory(ctx, key, filter)
}

// MovementsBySource returns all movements attributed to a business event.
func (s *Service) MovementsBySource(ctx context.Context, source entity.SourceRef) ([]entity.MetalMovement, error) {
	return s.repo.GetMovementsBySource(ctx, source)
}

func validateMovement(key Key, weight types.Weight) error {
	if key.MetalType == "" {
		return apperror.NewValidation("metal type is required")
	}
	if key.Fineness <= 0 || key.Fineness > 1000 {
		return apperror.NewValidation("fineness must be in (0, 1000]").
			WithDetail("fineness", key.Fineness)
	}
	if !weight.IsPositive() {
		return apperror.NewInvalidWeight("movement weight must be positive").
			WithDetail("weight", weight.String())
	}
	return nil
}
