package purchase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

func TestPurchaseInvoice_SellerPercentage(t *testing.T) {
	p := NewPurchaseInvoice(id.New())

	require.NoError(t, p.AddLine(LineInput{
		Description:      "old gold lot",
		MetalType:        "GOLD",
		PurityValue:      decimal.RequireFromString("916"),
		GrossWeight:      types.MustWeight("100.000"),
		SellerPercentage: decimal.NewFromInt(97),
		RatePerTenGrams:  types.MustMoney("5000"),
	}))

	line := p.Lines[0]
	assert.Equal(t, "97.000", line.NetWeight.String())
	assert.True(t, line.Amount.Equal(types.MustMoney("48500.00")), "amount %s", line.Amount)
	assert.Equal(t, int64(916), line.Fineness)
}

func TestPurchaseInvoice_Totals(t *testing.T) {
	p := NewPurchaseInvoice(id.New())
	require.NoError(t, p.AddLine(LineInput{
		MetalType:        "GOLD",
		PurityValue:      decimal.RequireFromString("916"),
		GrossWeight:      types.MustWeight("100.000"),
		SellerPercentage: decimal.NewFromInt(97),
		RatePerTenGrams:  types.MustMoney("5000"),
	}))
	require.NoError(t, p.SetCharges(types.MustMoney("500"), types.MustMoney("1200"), types.MustMoney("300")))
	require.NoError(t, p.SetGSTRate(types.MustMoney("3")))

	// base = 48500 - 500 + 1200 + 300 = 49500
	assert.True(t, p.Totals.TotalTax.Equal(types.MustMoney("1485.00")), "tax %s", p.Totals.TotalTax)
	assert.True(t, p.Totals.GrandTotal.Equal(types.MustMoney("50985.00")), "grand %s", p.Totals.GrandTotal)
	assert.True(t, p.Totals.PendingAmount.Equal(p.Totals.GrandTotal), "pending %s", p.Totals.PendingAmount)
}

func TestPurchaseInvoice_SetPaidAmount(t *testing.T) {
	p := NewPurchaseInvoice(id.New())
	require.NoError(t, p.AddLine(LineInput{
		MetalType:        "GOLD",
		PurityValue:      decimal.RequireFromString("916"),
		GrossWeight:      types.MustWeight("100.000"),
		SellerPercentage: decimal.NewFromInt(100),
		RatePerTenGrams:  types.MustMoney("5000"),
	}))
	// subtotal = 50000, no charges or tax

	require.NoError(t, p.SetPaidAmount(types.MustMoney("30000")))
	assert.True(t, p.Totals.PaidAmount.Equal(types.MustMoney("30000")), "paid %s", p.Totals.PaidAmount)
	assert.True(t, p.Totals.PendingAmount.Equal(types.MustMoney("20000")), "pending %s", p.Totals.PendingAmount)

	t.Run("survives recalculation", func(t *testing.T) {
		require.NoError(t, p.SetGSTRate(types.MustMoney("3")))
		assert.True(t, p.Totals.PaidAmount.Equal(types.MustMoney("30000")), "paid %s", p.Totals.PaidAmount)
		assert.True(t, p.Totals.PendingAmount.Equal(types.MustMoney("21500.00")), "pending %s", p.Totals.PendingAmount)
	})

	t.Run("negative rejected", func(t *testing.T) {
		err := p.SetPaidAmount(types.MustMoney("-1"))
		require.Error(t, err)
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	})

	t.Run("confirmed invoice rejected", func(t *testing.T) {
		p.MarkConfirmed()
		require.Error(t, p.SetPaidAmount(types.MustMoney("100")))
	})
}

func TestPurchaseInvoice_AddLine_Validation(t *testing.T) {
	p := NewPurchaseInvoice(id.New())

	t.Run("seller percentage bounds", func(t *testing.T) {
		for _, pct := range []int64{0, -5, 101} {
			err := p.AddLine(LineInput{
				MetalType:        "GOLD",
				PurityValue:      decimal.NewFromInt(22),
				GrossWeight:      types.MustWeight("10"),
				SellerPercentage: decimal.NewFromInt(pct),
			})
			require.Error(t, err, "pct %d", pct)
		}
	})

	t.Run("catalogue item needs quantity", func(t *testing.T) {
		err := p.AddLine(LineInput{
			ItemCode:         "BANGLE-001",
			MetalType:        "GOLD",
			PurityValue:      decimal.NewFromInt(22),
			GrossWeight:      types.MustWeight("10"),
			SellerPercentage: decimal.NewFromInt(100),
		})
		require.Error(t, err)
	})

	t.Run("zero gross weight", func(t *testing.T) {
		err := p.AddLine(LineInput{
			MetalType:        "GOLD",
			PurityValue:      decimal.NewFromInt(22),
			SellerPercentage: decimal.NewFromInt(97),
		})
		require.Error(t, err)
		assert.Equal(t, apperror.CodeInvalidWeight, apperror.CodeOf(err))
	})
}

func TestPurchaseInvoice_ReconcilePayload(t *testing.T) {
	p := NewPurchaseInvoice(id.New())
	require.NoError(t, p.AddLine(LineInput{
		MetalType:        "GOLD",
		PurityValue:      decimal.RequireFromString("916"),
		GrossWeight:      types.MustWeight("100.000"),
		SellerPercentage: decimal.NewFromInt(97),
		RatePerTenGrams:  types.MustMoney("5000"),
	}))
	require.NoError(t, p.AddLine(LineInput{
		ItemCode:         "BANGLE-001",
		Quantity:         4,
		MetalType:        "GOLD",
		PurityValue:      decimal.NewFromInt(22),
		GrossWeight:      types.MustWeight("40.000"),
		SellerPercentage: decimal.NewFromInt(100),
		RatePerTenGrams:  types.MustMoney("7500"),
	}))

	event, err := p.ConfirmedEvent()
	require.NoError(t, err)
	assert.Equal(t, "purchase_invoice.confirmed", event.EventType)

	payload := p.reconcilePayload()
	require.Len(t, payload.Metal, 2)
	assert.Equal(t, types.MustWeight("97.000"), payload.Metal[0].Weight)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "BANGLE-001", payload.Items[0].ItemCode)
	assert.Equal(t, int64(4), payload.Items[0].Quantity)
}

func TestPurchaseInvoice_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("requires supplier", func(t *testing.T) {
		p := NewPurchaseInvoice(id.Nil())
		require.Error(t, p.Validate(ctx))
	})

	t.Run("requires lines", func(t *testing.T) {
		p := NewPurchaseInvoice(id.New())
		require.Error(t, p.Validate(ctx))
	})
}
