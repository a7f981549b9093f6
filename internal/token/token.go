// Package token models ERC20 tokens and the repository that resolves them.
package token

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeDecimals is the decimal count of the chain's native asset.
const NativeDecimals uint8 = 18

// Token describes a resolved token. Immutable once resolved; Decimals is
// load-bearing for every amount conversion.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// ToWei converts a human-unit amount to the token's smallest denomination.
// The amount is rendered as a fixed-point decimal string first, so binary
// float error stays within one smallest unit of the exact value.
func ToWei(amount float64, decimals uint8) *big.Int {
	if amount <= 0 {
		return new(big.Int)
	}
	fixed := strconv.FormatFloat(amount, 'f', int(decimals), 64)
	fixed = strings.Replace(fixed, ".", "", 1)
	wei, ok := new(big.Int).SetString(fixed, 10)
	if !ok {
		return new(big.Int)
	}
	return wei
}

// FromWei converts a smallest-denomination amount to human units.
func FromWei(wei *big.Int, decimals uint8) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), new(big.Float).SetInt(pow10(decimals)))
	out, _ := f.Float64()
	return out
}
