package itemstock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
)

type itemMovementKey struct {
	source     string
	itemCode   string
	recordType entity.RecordType
}

type fakeRepo struct {
	accounts  map[string]entity.ItemStockAccount
	movements []entity.ItemMovement
	seen      map[itemMovementKey]bool

	saveErrs []error // queued errors returned by SaveAccount, in order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: make(map[string]entity.ItemStockAccount),
		seen:     make(map[itemMovementKey]bool),
	}
}

func (r *fakeRepo) CreateMovement(_ context.Context, m entity.ItemMovement) error {
	r.movements = append(r.movements, m)
	r.seen[itemMovementKey{m.Source.String(), m.ItemCode, m.RecordType}] = true
	return nil
}

func (r *fakeRepo) MovementExists(_ context.Context, source entity.SourceRef, itemCode string, rt entity.RecordType) (bool, error) {
	return r.seen[itemMovementKey{source.String(), itemCode, rt}], nil
}

func (r *fakeRepo) GetMovementsBySource(_ context.Context, source entity.SourceRef) ([]entity.ItemMovement, error) {
	var out []entity.ItemMovement
	for _, m := range r.movements {
		if m.Source == source {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetMovementHistory(_ context.Context, itemCode string, _ MovementFilter) ([]entity.ItemMovement, error) {
	var out []entity.ItemMovement
	for _, m := range r.movements {
		if m.ItemCode == itemCode {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetAccount(_ context.Context, itemCode string) (entity.ItemStockAccount, error) {
	acc, ok := r.accounts[itemCode]
	if !ok {
		return entity.ItemStockAccount{ItemCode: itemCode}, nil
	}
	return acc, nil
}

func (r *fakeRepo) GetAccountForUpdate(ctx context.Context, itemCode string) (entity.ItemStockAccount, error) {
	return r.GetAccount(ctx, itemCode)
}

func (r *fakeRepo) SaveAccount(_ context.Context, acc entity.ItemStockAccount, _ int) error {
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	r.accounts[acc.ItemCode] = acc
	return nil
}

func (r *fakeRepo) ListAccounts(_ context.Context, _ AccountFilter) ([]entity.ItemStockAccount, error) {
	var out []entity.ItemStockAccount
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	return out, nil
}

func billSource() entity.SourceRef {
	return entity.SourceRef{Type: entity.SourceBill, ID: id.New()}
}

var period = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

func TestService_CreditDebitReverse(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, "RING-001", 10, billSource(), period))
	require.NoError(t, svc.Debit(ctx, "RING-001", 4, billSource(), period))

	acc, err := svc.Snapshot(ctx, "RING-001")
	require.NoError(t, err)
	assert.Equal(t, int64(10), acc.TotalQty)
	assert.Equal(t, int64(6), acc.AvailableQty)
	assert.Equal(t, int64(4), acc.SoldQty)

	require.NoError(t, svc.Reverse(ctx, "RING-001", 4, billSource(), period))
	acc, err = svc.Snapshot(ctx, "RING-001")
	require.NoError(t, err)
	assert.Equal(t, int64(10), acc.AvailableQty)
	assert.Equal(t, int64(0), acc.SoldQty)
}

func TestService_Debit_InsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, "RING-001", 2, billSource(), period))

	err := svc.Debit(ctx, "RING-001", 5, billSource(), period)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInsufficientStock, apperror.CodeOf(err))
}

func TestService_RetriesOnVersionConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	t.Run("transient conflict retried", func(t *testing.T) {
		repo.saveErrs = []error{apperror.NewConcurrentModification("item_stock_account", "RING-001")}

		start := time.Now()
		require.NoError(t, svc.Credit(ctx, "RING-001", 1, billSource(), period))
		assert.GreaterOrEqual(t, time.Since(start), retryBackoff, "retry should wait before the next attempt")
	})

	t.Run("cancelled context aborts the retry wait", func(t *testing.T) {
		repo.saveErrs = []error{apperror.NewConcurrentModification("item_stock_account", "RING-001")}

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		err := svc.Credit(cancelled, "RING-001", 1, billSource(), period)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("persistent conflict surfaces STOCK_UPDATE_FAILED", func(t *testing.T) {
		conflict := apperror.NewConcurrentModification("item_stock_account", "RING-001")
		repo.saveErrs = []error{conflict, conflict, conflict}

		err := svc.Credit(ctx, "RING-001", 1, billSource(), period)
		require.Error(t, err)
		assert.Equal(t, apperror.CodeStockUpdateFailed, apperror.CodeOf(err))
	})
}
