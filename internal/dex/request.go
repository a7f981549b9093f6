package dex

import (
	"math/big"
	"time"

	"github.com/bebbyilham/monad-ambient-cli/internal/token"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// Operation identifies a swap operation type.
type Operation string

const (
	// OpSwapOut exchanges native MON for a token.
	OpSwapOut Operation = "swap_out"
	// OpSwapIn exchanges a token back into native MON.
	OpSwapIn Operation = "swap_in"
	// OpTokenSwap exchanges one token for another.
	OpTokenSwap Operation = "token_swap"
	// OpAddLiquidity pairs native MON with a token into the pool.
	OpAddLiquidity Operation = "add_liquidity"
)

// Request describes one operation attempt. Amount is always expressed in
// the source asset's human units.
type Request struct {
	Op          Operation
	Wallet      *wallet.Wallet
	TokenIn     *token.Token // nil for native-outbound legs
	TokenOut    *token.Token // nil for native-inbound legs
	Amount      float64
	SlippageBps int64
}

// Outcome is the immutable result of one attempt. A successful outcome
// always carries at least one transaction hash.
type Outcome struct {
	Success  bool
	TxHashes []string
	Err      *OperationError
}

// ErrorMessage returns the surfaced failure text, empty on success.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Gas policy: fixed constants applied to every mutating call, per the
// protocol parameters. Liquidity adds get double the swap budget.
const (
	GasLimitSwap           uint64 = 300_000
	GasLimitApprove        uint64 = 120_000
	GasLimitLiquidity      uint64 = 2 * GasLimitSwap
	// Fallback transfers may land in contract fallback handlers, so the
	// budget is above the bare 21k EOA floor.
	GasLimitNativeTransfer uint64 = 60_000
	GasLimitTokenTransfer  uint64 = 80_000

	// DeadlineWindow is how far in the future swap deadlines are set.
	DeadlineWindow = 20 * time.Minute
)

// GasPrice is the fixed gas price for every mutating call (52 gwei).
var GasPrice = big.NewInt(52_000_000_000)
