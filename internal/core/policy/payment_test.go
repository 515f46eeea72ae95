package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

func TestPaymentPolicy_Default(t *testing.T) {
	p, err := NewPaymentPolicy("", decimal.Zero)
	require.NoError(t, err)

	grand := types.MustMoney("40500")

	t.Run("exact settlement allowed", func(t *testing.T) {
		assert.NoError(t, p.AllowPayment(grand, types.MustMoney("40000"), types.MustMoney("500")))
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		err := p.AllowPayment(grand, types.MustMoney("40000"), types.MustMoney("501"))
		require.Error(t, err)
		assert.Equal(t, apperror.CodePaymentExceedsTotal, apperror.CodeOf(err))
	})
}

func TestPaymentPolicy_Tolerance(t *testing.T) {
	p, err := NewPaymentPolicy(DefaultPaymentExpr, decimal.NewFromInt(10))
	require.NoError(t, err)

	grand := types.MustMoney("1000")

	assert.NoError(t, p.AllowPayment(grand, types.MustMoney("0"), types.MustMoney("1010")))

	err = p.AllowPayment(grand, types.MustMoney("0"), types.MustMoney("1011"))
	require.Error(t, err)
}

func TestPaymentPolicy_CustomExpression(t *testing.T) {
	// Shops that take advances can disable the cap entirely.
	p, err := NewPaymentPolicy("amount > 0.0", decimal.Zero)
	require.NoError(t, err)

	assert.NoError(t, p.AllowPayment(types.MustMoney("100"), types.MustMoney("0"), types.MustMoney("99999")))
}

func TestNewPaymentPolicy_Errors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		_, err := NewPaymentPolicy("paid + +", decimal.Zero)
		require.Error(t, err)
	})

	t.Run("non-bool result", func(t *testing.T) {
		_, err := NewPaymentPolicy("paid + amount", decimal.Zero)
		require.Error(t, err)
	})

	t.Run("unknown variable", func(t *testing.T) {
		_, err := NewPaymentPolicy("credit_limit > 0.0", decimal.Zero)
		require.Error(t, err)
	})
}
