package purity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

func TestFromValue_UnitDetection(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantKarat  string
		wantFine   int64
		wantPct    string
	}{
		{"24 reads as karat", "24", "24", 1000, "100"},
		{"22 karat gold", "22", "22", 917, "91.67"},
		{"18 karat gold", "18", "18", 750, "75"},
		{"916 reads as fineness", "916", "21.98", 916, "91.58"},
		{"999 fineness silver", "999", "23.98", 999, "99.92"},
		{"75 reads as percentage", "75", "18", 750, "75"},
		{"91.6 percentage", "91.6", "21.98", 916, "91.58"},
		{"boundary 100 is percentage", "100", "24", 1000, "100"},
		{"boundary 1000 is fineness", "1000", "24", 1000, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromValue(decimal.RequireFromString(tt.value))
			require.NoError(t, err)
			assert.True(t, p.Karat().Equal(decimal.RequireFromString(tt.wantKarat)),
				"karat: want %s, got %s", tt.wantKarat, p.Karat())
			assert.Equal(t, tt.wantFine, p.Fineness())
			assert.True(t, p.Percentage().Equal(decimal.RequireFromString(tt.wantPct)),
				"percentage: want %s, got %s", tt.wantPct, p.Percentage())
		})
	}
}

func TestFromValue_Errors(t *testing.T) {
	for _, v := range []string{"0", "-1", "1000.01", "5000"} {
		t.Run(v, func(t *testing.T) {
			_, err := FromValue(decimal.RequireFromString(v))
			require.Error(t, err)
			assert.Equal(t, apperror.CodeInvalidPurity, apperror.CodeOf(err))
		})
	}
}

func TestFromKarat_Bounds(t *testing.T) {
	_, err := FromKarat(decimal.NewFromFloat(24.01))
	require.Error(t, err)

	_, err = FromKarat(decimal.Zero)
	require.Error(t, err)

	p, err := FromKarat(decimal.NewFromFloat(0.01))
	require.NoError(t, err)
	assert.False(t, p.IsZero())
}

func TestConversion_RoundTrip(t *testing.T) {
	// Percentage at 2 places carries enough precision to round-trip
	// any whole-karat purity.
	for _, k := range []int64{24, 22, 18, 14, 9} {
		p, err := FromKarat(decimal.NewFromInt(k))
		require.NoError(t, err)

		viaPct, err := FromPercentage(p.Percentage())
		require.NoError(t, err)
		assert.True(t, p.Equal(viaPct), "karat %d via percentage: got %s", k, viaPct)
	}

	// Fineness is a whole number, so only karats that map to an exact
	// per-mille value survive the trip through it.
	for _, k := range []int64{24, 21, 18, 9} {
		p, err := FromKarat(decimal.NewFromInt(k))
		require.NoError(t, err)

		back, err := FromFineness(decimal.NewFromInt(p.Fineness()))
		require.NoError(t, err)
		assert.True(t, p.Equal(back), "karat %d via fineness: got %s", k, back)
	}
}

func TestPureWeight(t *testing.T) {
	t.Run("pure gold keeps full weight", func(t *testing.T) {
		p := MustFromValue("24")
		w := types.MustWeight("12.345")
		assert.Equal(t, w, p.PureWeight(w))
	})

	t.Run("22 karat content", func(t *testing.T) {
		p := MustFromValue("22")
		got := p.PureWeight(types.MustWeight("10.000"))
		// 10 * 22/24 = 9.1666... -> 9.167
		assert.Equal(t, "9.167", got.String())
	})

	t.Run("never exceeds gross weight", func(t *testing.T) {
		w := types.MustWeight("57.913")
		for _, v := range []string{"9", "14", "18", "22", "24", "916", "75"} {
			p := MustFromValue(v)
			assert.LessOrEqual(t, int64(p.PureWeight(w)), int64(w), "purity %s", v)
		}
	})
}

func TestGrossFromPure(t *testing.T) {
	p := MustFromValue("22")
	gross := p.GrossFromPure(types.MustWeight("9.167"))
	// 9.167 * 24/22 = 10.0003... -> 10.000 within a milligram of the original.
	assert.Equal(t, "10.000", gross.String())
}
