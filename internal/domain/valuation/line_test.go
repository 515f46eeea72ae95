package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

func TestNetWeight(t *testing.T) {
	tests := []struct {
		name         string
		gross        string
		deductionPct string
		want         string
	}{
		{"no deduction", "10.000", "0", "10.000"},
		{"five percent wastage", "10.000", "5", "9.500"},
		{"full deduction", "10.000", "100", "0.000"},
		{"rounds deduction to milligrams", "10.000", "3.333", "9.667"},
		{"zero gross", "0.000", "5", "0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, err := NetWeight(types.MustWeight(tt.gross), decimal.RequireFromString(tt.deductionPct))
			require.NoError(t, err)
			assert.Equal(t, tt.want, net.String())
		})
	}
}

func TestNetWeight_Errors(t *testing.T) {
	t.Run("negative gross", func(t *testing.T) {
		_, err := NetWeight(types.Weight(-1), decimal.Zero)
		require.Error(t, err)
		assert.Equal(t, apperror.CodeInvalidWeight, apperror.CodeOf(err))
	})

	t.Run("negative deduction percentage", func(t *testing.T) {
		_, err := NetWeight(types.MustWeight("10"), decimal.NewFromInt(-5))
		require.Error(t, err)
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	})

	t.Run("deduction over hundred percent", func(t *testing.T) {
		_, err := NetWeight(types.MustWeight("10"), decimal.NewFromInt(120))
		require.Error(t, err)
		assert.Equal(t, apperror.CodeInvalidWeight, apperror.CodeOf(err))
	})
}

func TestNetWeightFlat(t *testing.T) {
	net, err := NetWeightFlat(types.MustWeight("12.500"), types.MustWeight("0.750"))
	require.NoError(t, err)
	assert.Equal(t, "11.750", net.String())

	_, err = NetWeightFlat(types.MustWeight("1.000"), types.MustWeight("1.001"))
	require.Error(t, err)
}

func TestLineAmount(t *testing.T) {
	t.Run("rate quoted per ten grams", func(t *testing.T) {
		amount := LineAmount(types.MustWeight("97.000"), types.MustMoney("5000"))
		assert.True(t, amount.Equal(types.MustMoney("48500.00")), "got %s", amount)
	})

	t.Run("exchange line with wastage deduction", func(t *testing.T) {
		net, err := NetWeight(types.MustWeight("10.000"), decimal.NewFromInt(5))
		require.NoError(t, err)
		amount := LineAmount(net, types.MustMoney("6000"))
		assert.True(t, amount.Equal(types.MustMoney("5700.00")), "got %s", amount)
	})

	t.Run("charges are additive after rounding", func(t *testing.T) {
		amount := LineAmount(types.MustWeight("4.255"), types.MustMoney("7315"),
			types.MustMoney("250"), types.MustMoney("99.50"))
		// 4.255 * 7315 / 10 = 3112.5325 -> 3112.53, plus charges.
		assert.True(t, amount.Equal(types.MustMoney("3462.03")), "got %s", amount)
	})

	t.Run("zero weight yields charges only", func(t *testing.T) {
		amount := LineAmount(0, types.MustMoney("5000"), types.MustMoney("100"))
		assert.True(t, amount.Equal(types.MustMoney("100")), "got %s", amount)
	})
}
