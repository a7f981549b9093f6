package dex

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/token"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// OperationExecutor is what the roundtrip coordinator needs from the
// executor; the scheduler shares the same contract.
type OperationExecutor interface {
	Execute(ctx context.Context, req Request) Outcome
}

// TokenBalanceReader reads a wallet's token balance in human units.
type TokenBalanceReader interface {
	TokenBalance(ctx context.Context, tok token.Token, owner common.Address) (float64, error)
}

// RoundtripCoordinator composes an outbound and an inbound swap into one
// unit. The outbound leg spends half the given amount; the inbound leg
// spends the entire resulting token balance, so roundtrip economics follow
// the live balance, not the nominal amount.
type RoundtripCoordinator struct {
	exec     OperationExecutor
	balances TokenBalanceReader
	logger   *zap.Logger
}

// NewRoundtripCoordinator wires a roundtrip coordinator.
func NewRoundtripCoordinator(exec OperationExecutor, balances TokenBalanceReader, logger *zap.Logger) *RoundtripCoordinator {
	return &RoundtripCoordinator{exec: exec, balances: balances, logger: logger}
}

// Run executes one roundtrip. Any leg failure aborts the roundtrip and
// reports that leg's error; there are no retries at this level.
func (rc *RoundtripCoordinator) Run(ctx context.Context, w *wallet.Wallet, tok token.Token, amount float64, slippageBps int64) Outcome {
	log := rc.logger.With(
		zap.String("wallet", w.Name()),
		zap.String("token", tok.Symbol))

	out := rc.exec.Execute(ctx, Request{
		Op:          OpSwapOut,
		Wallet:      w,
		TokenOut:    &tok,
		Amount:      amount / 2,
		SlippageBps: slippageBps,
	})
	if !out.Success {
		return out
	}

	balance, err := rc.balances.TokenBalance(ctx, tok, w.Address())
	if err != nil {
		return failure(NewError(KindUnknown, "balance read between legs failed", err))
	}
	if balance <= 0 {
		return failure(NewError(KindInsufficientBalance, "no token balance after outbound leg", nil))
	}

	log.Debug("Outbound leg confirmed, swapping back full balance",
		zap.Float64("token_balance", balance))

	in := rc.exec.Execute(ctx, Request{
		Op:          OpSwapIn,
		Wallet:      w,
		TokenIn:     &tok,
		Amount:      balance,
		SlippageBps: slippageBps,
	})
	if !in.Success {
		return Outcome{Success: false, TxHashes: out.TxHashes, Err: in.Err}
	}

	hashes := append(append([]string{}, out.TxHashes...), in.TxHashes...)
	return Outcome{Success: true, TxHashes: hashes}
}
