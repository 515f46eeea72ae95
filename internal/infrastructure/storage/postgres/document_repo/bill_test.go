package document_repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/id"
	"aurum/internal/infrastructure/storage/postgres"
)

// The line and locked-read paths must refuse to run outside a
// transaction before any statement reaches the pool.

func TestBillRepo_RequiresTransaction(t *testing.T) {
	repo := NewBillRepo(postgres.NewTxManagerFromRawPool(nil))
	ctx := context.Background()

	t.Run("save lines", func(t *testing.T) {
		err := repo.SaveLines(ctx, id.New(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires transaction context")
	})

	t.Run("locked read", func(t *testing.T) {
		_, err := repo.GetByIDForUpdate(ctx, id.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires transaction context")
	})
}

func TestPurchaseRepo_RequiresTransaction(t *testing.T) {
	repo := NewPurchaseRepo(postgres.NewTxManagerFromRawPool(nil))
	ctx := context.Background()

	t.Run("save lines", func(t *testing.T) {
		err := repo.SaveLines(ctx, id.New(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires transaction context")
	})

	t.Run("locked read", func(t *testing.T) {
		_, err := repo.GetByIDForUpdate(ctx, id.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires transaction context")
	})
}
