// Package strategy picks the action for each automated iteration.
package strategy

import (
	"github.com/bebbyilham/monad-ambient-cli/internal/random"
)

// Action is one of the moves the automated mode can make.
type Action string

const (
	ActionSwapOut   Action = "swap_out"
	ActionSwapIn    Action = "swap_in"
	ActionRoundtrip Action = "roundtrip"
)

// Selector chooses an action weighted by token balance availability.
type Selector struct {
	rnd *random.Service
}

// NewSelector returns a selector drawing from the given randomness source.
func NewSelector(rnd *random.Service) *Selector {
	return &Selector{rnd: rnd}
}

// Select picks the next action. With no token balance only an outbound
// swap is possible; otherwise the three actions are equally likely. Callers
// must pass the current balance every iteration, since each executed action
// changes it.
func (s *Selector) Select(tokenBalance float64) Action {
	if tokenBalance <= 0 {
		return ActionSwapOut
	}
	switch s.rnd.IntBetween(0, 2) {
	case 0:
		return ActionSwapOut
	case 1:
		return ActionSwapIn
	default:
		return ActionRoundtrip
	}
}
