package bill

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

func newTestBill(t *testing.T) *Bill {
	t.Helper()
	b := NewBill(id.New())

	require.NoError(t, b.AddSaleLine(SaleLineInput{
		ItemCode:        "RING-22K-001",
		MetalType:       "GOLD",
		PurityValue:     decimal.NewFromInt(22),
		Quantity:        1,
		GrossWeight:     types.MustWeight("40.000"),
		DeductionPct:    decimal.Zero,
		RatePerTenGrams: types.MustMoney("7500"),
		// 40 * 7500/10 = 30000
	}))
	require.NoError(t, b.AddSaleLine(SaleLineInput{
		ItemCode:        "CHAIN-22K-007",
		MetalType:       "GOLD",
		PurityValue:     decimal.NewFromInt(22),
		Quantity:        1,
		GrossWeight:     types.MustWeight("25.000"),
		DeductionPct:    decimal.Zero,
		RatePerTenGrams: types.MustMoney("8000"),
		// 25 * 8000/10 = 20000
	}))
	return b
}

func TestBill_Totals(t *testing.T) {
	b := newTestBill(t)

	require.NoError(t, b.AddExchangeLine(ExchangeLineInput{
		MetalType:       "GOLD",
		PurityValue:     decimal.NewFromInt(22),
		GrossWeight:     types.MustWeight("12.500"),
		DeductionPct:    decimal.Zero,
		RatePerTenGrams: types.MustMoney("8000"),
		// 12.5 * 8000/10 = 10000
	}))
	require.NoError(t, b.SetDiscount(types.MustMoney("1000")))
	require.NoError(t, b.SetGSTRate(types.MustMoney("3")))

	assert.True(t, b.Totals.Subtotal.Equal(types.MustMoney("50000")), "subtotal %s", b.Totals.Subtotal)
	assert.True(t, b.Totals.TotalTax.Equal(types.MustMoney("1500.00")), "tax %s", b.Totals.TotalTax)
	assert.True(t, b.Totals.ExchangeAmount.Equal(types.MustMoney("10000.00")), "exchange %s", b.Totals.ExchangeAmount)
	assert.True(t, b.Totals.GrandTotal.Equal(types.MustMoney("40500.00")), "grand %s", b.Totals.GrandTotal)
	assert.True(t, b.Totals.PendingAmount.Equal(types.MustMoney("40500.00")), "pending %s", b.Totals.PendingAmount)
}

func TestBill_ExchangeLineWastage(t *testing.T) {
	b := NewBill(id.New())
	require.NoError(t, b.AddExchangeLine(ExchangeLineInput{
		MetalType:       "GOLD",
		PurityValue:     decimal.RequireFromString("916"),
		GrossWeight:     types.MustWeight("10.000"),
		DeductionPct:    decimal.NewFromInt(5),
		RatePerTenGrams: types.MustMoney("6000"),
	}))

	line := b.ExchangeLines[0]
	assert.Equal(t, "9.500", line.NetWeight.String())
	assert.True(t, line.Amount.Equal(types.MustMoney("5700.00")), "amount %s", line.Amount)
	assert.Equal(t, int64(916), line.Fineness)
}

func TestBill_AddSaleLine_Validation(t *testing.T) {
	b := NewBill(id.New())

	t.Run("missing item code", func(t *testing.T) {
		err := b.AddSaleLine(SaleLineInput{
			MetalType:   "GOLD",
			PurityValue: decimal.NewFromInt(22),
			Quantity:    1,
			GrossWeight: types.MustWeight("1"),
		})
		require.Error(t, err)
	})

	t.Run("invalid purity", func(t *testing.T) {
		err := b.AddSaleLine(SaleLineInput{
			ItemCode:    "X",
			MetalType:   "GOLD",
			PurityValue: decimal.NewFromInt(2000),
			Quantity:    1,
			GrossWeight: types.MustWeight("1"),
		})
		require.Error(t, err)
		assert.Equal(t, apperror.CodeInvalidPurity, apperror.CodeOf(err))
	})

	t.Run("deduction over gross weight", func(t *testing.T) {
		err := b.AddSaleLine(SaleLineInput{
			ItemCode:     "X",
			MetalType:    "GOLD",
			PurityValue:  decimal.NewFromInt(22),
			Quantity:     1,
			GrossWeight:  types.MustWeight("1"),
			DeductionPct: decimal.NewFromInt(150),
		})
		require.Error(t, err)
		assert.Equal(t, apperror.CodeInvalidWeight, apperror.CodeOf(err))
	})
}

func TestBill_FrozenAfterConfirm(t *testing.T) {
	b := newTestBill(t)
	b.RecalculateTotals()
	b.MarkConfirmed()

	assert.Equal(t, entity.StatusConfirmed, b.Status)
	assert.Equal(t, entity.ReconcilePending, b.ReconcileState)

	err := b.AddSaleLine(SaleLineInput{ItemCode: "X", Quantity: 1,
		PurityValue: decimal.NewFromInt(22), GrossWeight: types.MustWeight("1")})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeDocumentConfirmed, apperror.CodeOf(err))

	require.Error(t, b.SetDiscount(types.MustMoney("1")))
	require.Error(t, b.RemoveSaleLine(b.SaleLines[0].LineID))
}

func TestBill_RemoveLineRenumbers(t *testing.T) {
	b := newTestBill(t)
	first := b.SaleLines[0].LineID

	require.NoError(t, b.RemoveSaleLine(first))
	require.Len(t, b.SaleLines, 1)
	assert.Equal(t, 1, b.SaleLines[0].LineNo)

	err := b.RemoveSaleLine(first)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestBill_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("requires customer", func(t *testing.T) {
		b := NewBill(id.Nil())
		require.Error(t, b.Validate(ctx))
	})

	t.Run("requires sale lines", func(t *testing.T) {
		b := NewBill(id.New())
		require.Error(t, b.Validate(ctx))
	})

	t.Run("rejects negative grand total", func(t *testing.T) {
		b := newTestBill(t)
		require.NoError(t, b.AddExchangeLine(ExchangeLineInput{
			MetalType:       "GOLD",
			PurityValue:     decimal.NewFromInt(22),
			GrossWeight:     types.MustWeight("100.000"),
			RatePerTenGrams: types.MustMoney("8000"),
			// exchange 80000 against 50000 of sales
		}))
		b.RecalculateTotals()
		require.Error(t, b.Validate(ctx))
	})

	t.Run("valid bill passes", func(t *testing.T) {
		b := newTestBill(t)
		b.RecalculateTotals()
		require.NoError(t, b.Validate(ctx))
	})
}

func TestBill_ReconcilePayload(t *testing.T) {
	b := newTestBill(t)
	require.NoError(t, b.AddExchangeLine(ExchangeLineInput{
		MetalType:       "GOLD",
		PurityValue:     decimal.RequireFromString("916"),
		GrossWeight:     types.MustWeight("10.000"),
		DeductionPct:    decimal.NewFromInt(5),
		RatePerTenGrams: types.MustMoney("6000"),
	}))

	event, err := b.ConfirmedEvent()
	require.NoError(t, err)
	assert.Equal(t, "bill.confirmed", event.EventType)
	assert.Equal(t, b.ID, event.AggregateID)

	p := b.reconcilePayload()
	require.Len(t, p.Items, 2)
	assert.Equal(t, "RING-22K-001", p.Items[0].ItemCode)
	require.Len(t, p.Metal, 1)
	assert.Equal(t, int64(916), p.Metal[0].Fineness)
	assert.Equal(t, types.MustWeight("9.500"), p.Metal[0].Weight)
}
