package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

func money(s string) types.Money { return types.MustMoney(s) }

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), "want %s, got %s", want, got)
}

func TestComputeBillTotals(t *testing.T) {
	t.Run("bill with discount, tax and exchange", func(t *testing.T) {
		totals := ComputeBillTotals(
			[]types.Money{money("30000"), money("20000")},
			[]types.Money{money("10000")},
			money("1000"), // discount
			money("3"),    // gst rate
			money("0"),    // paid
		)

		assertMoney(t, "50000", totals.Subtotal)
		assertMoney(t, "1500.00", totals.TotalTax)
		assertMoney(t, "750.00", totals.CGSTAmount)
		assertMoney(t, "750.00", totals.SGSTAmount)
		assertMoney(t, "40500.00", totals.GrandTotal)
		assertMoney(t, "40500.00", totals.PendingAmount)
	})

	t.Run("tax computed on subtotal before discount", func(t *testing.T) {
		totals := ComputeBillTotals(
			[]types.Money{money("10000")}, nil,
			money("2000"), money("3"), money("0"),
		)
		// 3% of 10000, not of 8000.
		assertMoney(t, "300.00", totals.TotalTax)
		assertMoney(t, "8300.00", totals.GrandTotal)
	})

	t.Run("odd tax splits with rounded halves", func(t *testing.T) {
		totals := ComputeBillTotals(
			[]types.Money{money("3335")}, nil,
			money("0"), money("3"), money("0"),
		)
		// 3% of 3335 = 100.05; each half rounds to 50.03 (half away from zero).
		assertMoney(t, "100.05", totals.TotalTax)
		assertMoney(t, "50.03", totals.CGSTAmount)
		assertMoney(t, "50.03", totals.SGSTAmount)
	})

	t.Run("exchange exceeding sale floors pending at zero", func(t *testing.T) {
		totals := ComputeBillTotals(
			[]types.Money{money("5000")},
			[]types.Money{money("9000")},
			money("0"), money("0"), money("0"),
		)
		assertMoney(t, "-4000", totals.GrandTotal)
		assertMoney(t, "0", totals.PendingAmount)
	})

	t.Run("partial payment reduces pending", func(t *testing.T) {
		totals := ComputeBillTotals(
			[]types.Money{money("10000")}, nil,
			money("0"), money("0"), money("4000"),
		)
		assertMoney(t, "6000", totals.PendingAmount)
	})

	t.Run("empty bill is all zeros", func(t *testing.T) {
		totals := ComputeBillTotals(nil, nil, money("0"), money("3"), money("0"))
		assert.True(t, totals.Subtotal.IsZero())
		assert.True(t, totals.GrandTotal.IsZero())
		assert.True(t, totals.PendingAmount.IsZero())
	})
}

type stubPolicy struct{ err error }

func (p stubPolicy) AllowPayment(_, _, _ types.Money) error { return p.err }

func TestApplyPayment(t *testing.T) {
	base := ComputeBillTotals(
		[]types.Money{money("10000")}, nil,
		money("0"), money("0"), money("0"),
	)

	t.Run("payment accumulates and pending shrinks", func(t *testing.T) {
		totals, err := ApplyPayment(base, money("4000"), nil)
		require.NoError(t, err)
		assertMoney(t, "4000", totals.PaidAmount)
		assertMoney(t, "6000", totals.PendingAmount)

		totals, err = ApplyPayment(totals, money("6000"), nil)
		require.NoError(t, err)
		assertMoney(t, "10000", totals.PaidAmount)
		assertMoney(t, "0", totals.PendingAmount)
	})

	t.Run("frozen fields untouched", func(t *testing.T) {
		totals, err := ApplyPayment(base, money("100"), nil)
		require.NoError(t, err)
		assert.True(t, totals.Subtotal.Equal(base.Subtotal))
		assert.True(t, totals.GrandTotal.Equal(base.GrandTotal))
		assert.True(t, totals.TotalTax.Equal(base.TotalTax))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := ApplyPayment(base, money("0"), nil)
		require.Error(t, err)
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

		_, err = ApplyPayment(base, money("-50"), nil)
		require.Error(t, err)
	})

	t.Run("policy veto propagates unchanged", func(t *testing.T) {
		veto := apperror.NewBusinessRule(apperror.CodePaymentExceedsTotal, "payment exceeds grand total")
		_, err := ApplyPayment(base, money("999999"), stubPolicy{err: veto})
		require.Error(t, err)
		assert.Equal(t, apperror.CodePaymentExceedsTotal, apperror.CodeOf(err))
	})
}

func TestComputePurchaseInvoiceTotals(t *testing.T) {
	t.Run("tax on base after discount and charges", func(t *testing.T) {
		totals := ComputePurchaseInvoiceTotals(
			[]types.Money{money("48500")},
			money("500"),  // discount
			money("1200"), // transport
			money("300"),  // other
			money("3"),    // gst rate
			money("0"),    // paid
		)
		// base = 48500 - 500 + 1200 + 300 = 49500
		assertMoney(t, "48500", totals.Subtotal)
		assertMoney(t, "1485.00", totals.TotalTax)
		assertMoney(t, "50985.00", totals.GrandTotal)
		assertMoney(t, "50985.00", totals.PendingAmount)
	})

	t.Run("partial payment leaves the remainder pending", func(t *testing.T) {
		totals := ComputePurchaseInvoiceTotals(
			[]types.Money{money("20000")},
			money("0"), money("0"), money("0"), money("5"),
			money("15000"),
		)
		assertMoney(t, "21000.00", totals.GrandTotal)
		assertMoney(t, "15000", totals.PaidAmount)
		assertMoney(t, "6000.00", totals.PendingAmount)
	})

	t.Run("overpayment never drives pending negative", func(t *testing.T) {
		totals := ComputePurchaseInvoiceTotals(
			[]types.Money{money("1000")},
			money("0"), money("0"), money("0"), money("0"),
			money("1500"),
		)
		assertMoney(t, "1500", totals.PaidAmount)
		assert.True(t, totals.PendingAmount.IsZero())
	})

	t.Run("grand total equals base scaled by tax factor", func(t *testing.T) {
		totals := ComputePurchaseInvoiceTotals(
			[]types.Money{money("10000")},
			money("0"), money("0"), money("0"), money("5"), money("0"),
		)
		assertMoney(t, "500.00", totals.TotalTax)
		assertMoney(t, "10500.00", totals.GrandTotal)
	})

	t.Run("zero gst leaves base unchanged", func(t *testing.T) {
		totals := ComputePurchaseInvoiceTotals(
			[]types.Money{money("7000"), money("3000")},
			money("250"), money("0"), money("0"), money("0"), money("0"),
		)
		assert.True(t, totals.TotalTax.IsZero())
		assertMoney(t, "9750", totals.GrandTotal)
	})
}
