package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWei(t *testing.T) {
	assert.Equal(t, big.NewInt(1_500_000), ToWei(1.5, 6))
	assert.Equal(t, big.NewInt(500_000_000_000_000_000), ToWei(0.5, 18))
	assert.Equal(t, int64(0), ToWei(0, 18).Int64())
	// Negative amounts never produce a negative wei value.
	assert.Equal(t, int64(0), ToWei(-1, 18).Int64())
}

func TestToWei_DecimalExactness(t *testing.T) {
	// Amounts that are not exactly representable in binary must still land
	// on their decimal value, within one smallest unit.
	cases := []struct {
		amount float64
		wei    string
	}{
		{0.1, "100000000000000000"},
		{0.2, "200000000000000000"},
		{0.3, "300000000000000000"},
		{0.7, "700000000000000000"},
		{1.1, "1100000000000000000"},
		{123.456, "123456000000000000000"},
	}
	for _, tc := range cases {
		exact, ok := new(big.Int).SetString(tc.wei, 10)
		require.True(t, ok)
		diff := new(big.Int).Sub(exact, ToWei(tc.amount, 18))
		assert.LessOrEqual(t, diff.CmpAbs(big.NewInt(1)), 0, "amount %f", tc.amount)
	}
}

func TestFromWei(t *testing.T) {
	assert.InDelta(t, 1.5, FromWei(big.NewInt(1_500_000), 6), 1e-9)
	assert.InDelta(t, 0.5, FromWei(big.NewInt(500_000_000_000_000_000), 18), 1e-9)
	assert.Equal(t, 0.0, FromWei(nil, 18))
}

func TestRoundTripConversion(t *testing.T) {
	for _, amount := range []float64{0.05, 0.123456, 1, 42.5} {
		back := FromWei(ToWei(amount, 18), 18)
		assert.InDelta(t, amount, back, 1e-9, "amount %f", amount)
	}
}
