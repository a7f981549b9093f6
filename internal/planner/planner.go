// Package planner sizes operations from configured bounds and live
// balances.
package planner

import (
	"fmt"
	"math"

	"github.com/bebbyilham/monad-ambient-cli/internal/dex"
	"github.com/bebbyilham/monad-ambient-cli/internal/random"
)

// Planner derives concrete operation amounts. All amounts are in human
// units of the asset being spent.
type Planner struct {
	rnd *random.Service
}

// New returns a planner drawing from the given randomness source.
func New(rnd *random.Service) *Planner {
	return &Planner{rnd: rnd}
}

// Plan returns a uniform amount in [minBound, ceiling] where ceiling is
// min(maxBound, balance*balanceFraction). When the interval is empty it
// fails with an insufficient-balance error and the caller skips the
// operation. The balance is a snapshot: it may go stale before execution,
// which is tolerated.
func (p *Planner) Plan(balance, minBound, maxBound, balanceFraction float64) (float64, error) {
	ceiling := math.Min(maxBound, balance*balanceFraction)
	if ceiling < minBound {
		return 0, dex.NewError(dex.KindInsufficientBalance,
			fmt.Sprintf("balance %.6f supports at most %.6f, below minimum %.6f", balance, ceiling, minBound), nil)
	}
	return p.rnd.Float64Between(minBound, ceiling), nil
}

// Fixed returns the configured fixed amount, clamped so it never exceeds
// the usable share of the balance snapshot.
func (p *Planner) Fixed(amount, balance, balanceFraction float64) (float64, error) {
	ceiling := balance * balanceFraction
	if ceiling <= 0 || amount <= 0 {
		return 0, dex.NewError(dex.KindInsufficientBalance,
			fmt.Sprintf("fixed amount %.6f unusable against balance %.6f", amount, balance), nil)
	}
	return math.Min(amount, ceiling), nil
}

// PortionOf returns the given share of a balance, e.g. 90% of a token
// balance for an inbound leg.
func (p *Planner) PortionOf(balance, portion float64) float64 {
	if balance <= 0 || portion <= 0 {
		return 0
	}
	if portion > 1 {
		portion = 1
	}
	return balance * portion
}

// Round truncates an amount to the token's decimal places. The result is
// within one smallest unit of the input.
func Round(amount float64, decimals uint8) float64 {
	scale := math.Pow10(int(decimals))
	return math.Trunc(amount*scale) / scale
}
