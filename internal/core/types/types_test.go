package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight_String(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "whole grams", in: "10", want: "10.000"},
		{name: "milligram precision", in: "1.234", want: "1.234"},
		{name: "sub-gram", in: "0.005", want: "0.005"},
		{name: "negative", in: "-2.5", want: "-2.500"},
		{name: "rounds half up", in: "1.2345", want: "1.235"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustWeight(tt.in).String())
		})
	}
}

func TestWeight_JSON(t *testing.T) {
	type payload struct {
		Gross Weight `json:"gross"`
	}

	data, err := json.Marshal(payload{Gross: MustWeight("12.345")})
	require.NoError(t, err)
	assert.Equal(t, `{"gross":12.345}`, string(data))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"gross":12.345}`), &p))
	assert.Equal(t, MustWeight("12.345"), p.Gross)

	// String form is accepted too
	require.NoError(t, json.Unmarshal([]byte(`{"gross":"0.001"}`), &p))
	assert.Equal(t, Weight(1), p.Gross)

	require.NoError(t, json.Unmarshal([]byte(`{"gross":null}`), &p))
	assert.True(t, p.Gross.IsZero())
}

func TestWeight_UnmarshalTruncatesExtraDigits(t *testing.T) {
	var w Weight
	require.NoError(t, json.Unmarshal([]byte(`3.9999`), &w))
	assert.Equal(t, MustWeight("3.999"), w)
}

func TestWeight_ExponentForm(t *testing.T) {
	var w Weight
	require.NoError(t, json.Unmarshal([]byte(`1e3`), &w))
	assert.Equal(t, MustWeight("1000"), w)
}

func TestWeight_Decimal_RoundTrip(t *testing.T) {
	w := NewWeightFromDecimal(decimal.RequireFromString("7.125"))
	assert.Equal(t, int64(7125), w.Int64Scaled())
	assert.True(t, w.Decimal().Equal(decimal.RequireFromString("7.125")))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "10.01", RoundMoney(MustMoney("10.005")).StringFixed(2))
	assert.Equal(t, "10.00", RoundMoney(MustMoney("10.004")).StringFixed(2))
}
