package metalstock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

type movementKey struct {
	source     string
	key        Key
	recordType entity.RecordType
}

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	accounts  map[Key]entity.MetalStockAccount
	movements []entity.MetalMovement
	seen      map[movementKey]bool

	saveErrs []error // queued errors returned by SaveAccount, in order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: make(map[Key]entity.MetalStockAccount),
		seen:     make(map[movementKey]bool),
	}
}

func (r *fakeRepo) CreateMovement(_ context.Context, m entity.MetalMovement) error {
	r.movements = append(r.movements, m)
	r.seen[movementKey{m.Source.String(), Key{m.MetalType, m.Fineness}, m.RecordType}] = true
	return nil
}

func (r *fakeRepo) MovementExists(_ context.Context, source entity.SourceRef, key Key, rt entity.RecordType) (bool, error) {
	return r.seen[movementKey{source.String(), key, rt}], nil
}

func (r *fakeRepo) GetMovementsBySource(_ context.Context, source entity.SourceRef) ([]entity.MetalMovement, error) {
	var out []entity.MetalMovement
	for _, m := range r.movements {
		if m.Source == source {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetMovementHistory(_ context.Context, key Key, _ MovementFilter) ([]entity.MetalMovement, error) {
	var out []entity.MetalMovement
	for _, m := range r.movements {
		if m.MetalType == key.MetalType && m.Fineness == key.Fineness {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetAccount(_ context.Context, key Key) (entity.MetalStockAccount, error) {
	if acc, ok := r.accounts[key]; ok {
		return acc, nil
	}
	return entity.MetalStockAccount{MetalType: key.MetalType, Fineness: key.Fineness}, nil
}

func (r *fakeRepo) GetAccountForUpdate(ctx context.Context, key Key) (entity.MetalStockAccount, error) {
	return r.GetAccount(ctx, key)
}

func (r *fakeRepo) SaveAccount(_ context.Context, acc entity.MetalStockAccount, _ int) error {
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	r.accounts[Key{acc.MetalType, acc.Fineness}] = acc
	return nil
}

func (r *fakeRepo) ListAccounts(_ context.Context, _ AccountFilter) ([]entity.MetalStockAccount, error) {
	var out []entity.MetalStockAccount
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	return out, nil
}

func (r *fakeRepo) GetWeightAtDate(_ context.Context, _ Key, _ time.Time) (int64, error) {
	return 0, nil
}

var (
	gold916 = Key{MetalType: "GOLD", Fineness: 916}
	period  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
)

func billSource() entity.SourceRef {
	return entity.SourceRef{Type: entity.SourceBill, ID: id.New()}
}

func TestService_Credit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, gold916, types.MustWeight("10.500"), billSource(), period))

	acc, err := svc.Snapshot(ctx, gold916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("10.500"), acc.TotalWeight)
	assert.Equal(t, types.MustWeight("10.500"), acc.AvailableWeight)
	assert.True(t, acc.UsedWeight.IsZero())
	require.NoError(t, acc.CheckInvariant())
}

func TestService_Debit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, gold916, types.MustWeight("10.000"), billSource(), period))

	t.Run("moves weight from available to used", func(t *testing.T) {
		require.NoError(t, svc.Debit(ctx, gold916, types.MustWeight("4.000"), billSource(), period))

		acc, err := svc.Snapshot(ctx, gold916)
		require.NoError(t, err)
		assert.Equal(t, types.MustWeight("10.000"), acc.TotalWeight)
		assert.Equal(t, types.MustWeight("6.000"), acc.AvailableWeight)
		assert.Equal(t, types.MustWeight("4.000"), acc.UsedWeight)
	})

	t.Run("insufficient stock rejected with balances intact", func(t *testing.T) {
		err := svc.Debit(ctx, gold916, types.MustWeight("6.001"), billSource(), period)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
		assert.Equal(t, "6.001", appErr.Details["requested"])
		assert.Equal(t, "6.000", appErr.Details["available"])

		acc, err := svc.Snapshot(ctx, gold916)
		require.NoError(t, err)
		assert.Equal(t, types.MustWeight("6.000"), acc.AvailableWeight)
	})

	t.Run("debit against empty account", func(t *testing.T) {
		silver := Key{MetalType: "SILVER", Fineness: 999}
		err := svc.Debit(ctx, silver, types.MustWeight("1.000"), billSource(), period)
		require.Error(t, err)
		assert.True(t, apperror.IsInsufficientStock(err))
	})
}

func TestService_Reverse(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, gold916, types.MustWeight("10.000"), billSource(), period))
	require.NoError(t, svc.Debit(ctx, gold916, types.MustWeight("4.000"), billSource(), period))

	t.Run("returns used weight to available", func(t *testing.T) {
		require.NoError(t, svc.Reverse(ctx, gold916, types.MustWeight("4.000"), billSource(), period))

		acc, err := svc.Snapshot(ctx, gold916)
		require.NoError(t, err)
		assert.Equal(t, types.MustWeight("10.000"), acc.TotalWeight)
		assert.Equal(t, types.MustWeight("10.000"), acc.AvailableWeight)
		assert.True(t, acc.UsedWeight.IsZero())
	})

	t.Run("reverse beyond used weight rejected", func(t *testing.T) {
		err := svc.Reverse(ctx, gold916, types.MustWeight("0.001"), billSource(), period)
		require.Error(t, err)
		assert.Equal(t, apperror.CodeStockUpdateFailed, apperror.CodeOf(err))
	})
}

func TestService_Idempotence(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()
	source := billSource()

	require.NoError(t, svc.Credit(ctx, gold916, types.MustWeight("5.000"), source, period))
	// Same event delivered again: balance unchanged, no duplicate movement.
	require.NoError(t, svc.Credit(ctx, gold916, types.MustWeight("5.000"), source, period))

	acc, err := svc.Snapshot(ctx, gold916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("5.000"), acc.TotalWeight)
	assert.Len(t, repo.movements, 1)

	// A different record type for the same source is a distinct step.
	require.NoError(t, svc.Debit(ctx, gold916, types.MustWeight("2.000"), source, period))
	assert.Len(t, repo.movements, 2)
}

func TestService_Validation(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		key    Key
		weight types.Weight
	}{
		{"empty metal type", Key{Fineness: 916}, types.MustWeight("1")},
		{"zero fineness", Key{MetalType: "GOLD"}, types.MustWeight("1")},
		{"fineness above 1000", Key{MetalType: "GOLD", Fineness: 1001}, types.MustWeight("1")},
		{"zero weight", gold916, 0},
		{"negative weight", gold916, types.Weight(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Credit(ctx, tt.key, tt.weight, billSource(), period)
			require.Error(t, err)
			assert.True(t, apperror.IsAppError(err))
		})
	}
}

func TestService_RetriesOnVersionConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	t.Run("transient conflict retried", func(t *testing.T) {
		repo.saveErrs = []error{apperror.NewConcurrentModification("metal_stock_account", gold916.String())}

		start := time.Now()
		require.NoError(t, svc.Credit(ctx, gold916, types.MustWeight("1.000"), billSource(), period))
		assert.GreaterOrEqual(t, time.Since(start), retryBackoff, "retry should wait before the next attempt")
	})

	t.Run("cancelled context aborts the retry wait", func(t *testing.T) {
		repo.saveErrs = []error{apperror.NewConcurrentModification("metal_stock_account", gold916.String())}

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		err := svc.Credit(cancelled, gold916, types.MustWeight("1.000"), billSource(), period)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("persistent conflict surfaces STOCK_UPDATE_FAILED", func(t *testing.T) {
		conflict := apperror.NewConcurrentModification("metal_stock_account", gold916.String())
		repo.saveErrs = []error{conflict, conflict, conflict}

		err := svc.Credit(ctx, gold916, types.MustWeight("1.000"), billSource(), period)
		require.Error(t, err)
		assert.Equal(t, apperror.CodeStockUpdateFailed, apperror.CodeOf(err))
	})
}
