// Package scheduler drives the run: rounds over a shuffled wallet order
// with randomized pacing, one operation per wallet per round.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/config"
	"github.com/bebbyilham/monad-ambient-cli/internal/dex"
	"github.com/bebbyilham/monad-ambient-cli/internal/planner"
	"github.com/bebbyilham/monad-ambient-cli/internal/random"
	"github.com/bebbyilham/monad-ambient-cli/internal/stats"
	"github.com/bebbyilham/monad-ambient-cli/internal/strategy"
	"github.com/bebbyilham/monad-ambient-cli/internal/token"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// BalanceReader reads live balances in human units.
type BalanceReader interface {
	NativeBalance(ctx context.Context, owner common.Address) (float64, error)
	TokenBalance(ctx context.Context, tok token.Token, owner common.Address) (float64, error)
}

// Roundtripper runs a paired outbound and inbound swap as one unit.
type Roundtripper interface {
	Run(ctx context.Context, w *wallet.Wallet, tok token.Token, amount float64, slippageBps int64) dex.Outcome
}

// Coordinator sequences operations across wallets and rounds. Operations
// within a run are strictly sequential; a wallet's failure never stops
// the run, only cancellation does.
type Coordinator struct {
	exec      dex.OperationExecutor
	roundtrip Roundtripper
	balances  BalanceReader
	planner   *planner.Planner
	selector  *strategy.Selector
	rnd       *random.Service
	logger    *zap.Logger
}

// NewCoordinator wires a scheduling coordinator.
func NewCoordinator(
	exec dex.OperationExecutor,
	roundtrip Roundtripper,
	balances BalanceReader,
	pl *planner.Planner,
	sel *strategy.Selector,
	rnd *random.Service,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		exec:      exec,
		roundtrip: roundtrip,
		balances:  balances,
		planner:   pl,
		selector:  sel,
		rnd:       rnd,
		logger:    logger,
	}
}

// Run executes the configured number of rounds over the wallets. Each
// round visits every wallet once in a fresh shuffled order. The returned
// aggregator is valid even when the run is cut short by cancellation.
func (c *Coordinator) Run(ctx context.Context, wallets []*wallet.Wallet, tokens []token.Token, sched config.Schedule) (*stats.Aggregator, error) {
	if len(wallets) == 0 {
		return nil, errors.New("no wallets to schedule")
	}
	if len(tokens) == 0 {
		return nil, errors.New("no tokens to trade")
	}

	names := make([]string, len(wallets))
	for i, w := range wallets {
		names[i] = w.Name()
	}
	agg := stats.NewAggregator(names)
	c.snapshotBalances(ctx, wallets, agg, agg.SetStartBalance)

	walletMin, walletMax := sched.WalletDelayBounds()
	roundMin, roundMax := sched.RoundDelayBounds()

rounds:
	for round := 1; round <= sched.Rounds; round++ {
		c.logger.Info("🔁 Starting round",
			zap.Int("round", round),
			zap.Int("rounds_total", sched.Rounds))

		order := make([]*wallet.Wallet, len(wallets))
		copy(order, wallets)
		c.rnd.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for i, w := range order {
			if ctx.Err() != nil {
				c.logger.Info("Run cancelled, stopping before next wallet")
				break rounds
			}

			tok := tokens[c.rnd.IntBetween(0, len(tokens)-1)]
			agg.Record(c.walletTurn(ctx, w, tok, round, sched))

			if i < len(order)-1 {
				if err := c.rnd.Delay(ctx, walletMin, walletMax); err != nil {
					c.logger.Info("Run cancelled during wallet delay")
					break rounds
				}
			}
		}

		if round < sched.Rounds {
			if err := c.rnd.Delay(ctx, roundMin, roundMax); err != nil {
				c.logger.Info("Run cancelled during round delay")
				break rounds
			}
		}
	}

	// The end snapshot must still happen after a cancelled run, or the
	// summary would report the whole start balance as lost.
	c.snapshotBalances(context.WithoutCancel(ctx), wallets, agg, agg.SetEndBalance)
	return agg, nil
}

// walletTurn derives and executes one wallet's operation for the round.
// Sizing failures are recorded as skips, never propagated.
func (c *Coordinator) walletTurn(ctx context.Context, w *wallet.Wallet, tok token.Token, round int, sched config.Schedule) stats.RoundResult {
	res := stats.RoundResult{
		WalletName: w.Name(),
		Round:      round,
		Timestamp:  time.Now(),
	}

	action, err := c.pickAction(ctx, w, tok, sched.Mode)
	if err != nil {
		return failResult(res, string(action), 0, dex.NewError(dex.KindUnknown, "balance read failed", err))
	}
	res.Action = string(action)

	amount, err := c.sizeAmount(ctx, w, tok, action, sched)
	if err != nil {
		var opErr *dex.OperationError
		if !errors.As(err, &opErr) {
			opErr = dex.NewError(dex.KindUnknown, "amount planning failed", err)
		}
		if opErr.Kind == dex.KindInsufficientBalance {
			c.logger.Info("⏭️ Skipping wallet, balance below plan minimum",
				zap.String("wallet", w.Name()),
				zap.Int("round", round),
				zap.String("reason", opErr.Msg))
		}
		return failResult(res, res.Action, 0, opErr)
	}
	res.Amount = amount

	c.logger.Info("▶️ Executing operation",
		zap.String("wallet", w.Name()),
		zap.Int("round", round),
		zap.String("action", res.Action),
		zap.String("token", tok.Symbol),
		zap.Float64("amount", amount))

	out := c.dispatch(ctx, w, tok, action, amount, sched)
	res.Success = out.Success
	res.TxHashes = out.TxHashes
	if out.Err != nil {
		res.ErrKind = string(out.Err.Kind)
		res.ErrMessage = out.Err.Error()
	}
	return res
}

type turnAction string

const (
	actionSwapOut      turnAction = "swap_out"
	actionSwapIn       turnAction = "swap_in"
	actionRoundtrip    turnAction = "roundtrip"
	actionAddLiquidity turnAction = "add_liquidity"
)

// pickAction maps the configured mode to this turn's action. Automated
// mode consults the strategy selector with the wallet's current token
// balance.
func (c *Coordinator) pickAction(ctx context.Context, w *wallet.Wallet, tok token.Token, mode string) (turnAction, error) {
	switch mode {
	case config.ModeSwapOut:
		return actionSwapOut, nil
	case config.ModeSwapIn:
		return actionSwapIn, nil
	case config.ModeRoundtrip:
		return actionRoundtrip, nil
	case config.ModeAddLiquidity:
		return actionAddLiquidity, nil
	}

	balance, err := c.balances.TokenBalance(ctx, tok, w.Address())
	if err != nil {
		return actionSwapOut, err
	}
	switch c.selector.Select(balance) {
	case strategy.ActionSwapIn:
		return actionSwapIn, nil
	case strategy.ActionRoundtrip:
		return actionRoundtrip, nil
	default:
		return actionSwapOut, nil
	}
}

// sizeAmount derives the operation amount in the source asset's human
// units. Native-spending actions plan against the native balance; inbound
// swaps spend a configured portion of the token balance.
func (c *Coordinator) sizeAmount(ctx context.Context, w *wallet.Wallet, tok token.Token, action turnAction, sched config.Schedule) (float64, error) {
	if action == actionSwapIn {
		balance, err := c.balances.TokenBalance(ctx, tok, w.Address())
		if err != nil {
			return 0, err
		}
		amount := c.planner.PortionOf(balance, sched.SwapInPortion)
		if amount <= 0 {
			return 0, dex.NewError(dex.KindInsufficientBalance, "no token balance to swap back", nil)
		}
		return planner.Round(amount, tok.Decimals), nil
	}

	balance, err := c.balances.NativeBalance(ctx, w.Address())
	if err != nil {
		return 0, err
	}
	if sched.DynamicAmount {
		return c.planner.Plan(balance, sched.MinAmount, sched.MaxAmount, sched.BalanceFraction)
	}
	return c.planner.Fixed(sched.FixedAmount, balance, sched.BalanceFraction)
}

// dispatch runs the chosen action. Roundtrips honor the configured repeat
// count, re-sizing each repeat from the live balance so consecutive trips
// track what the previous one left behind.
func (c *Coordinator) dispatch(ctx context.Context, w *wallet.Wallet, tok token.Token, action turnAction, amount float64, sched config.Schedule) dex.Outcome {
	switch action {
	case actionSwapOut:
		return c.exec.Execute(ctx, dex.Request{
			Op:          dex.OpSwapOut,
			Wallet:      w,
			TokenOut:    &tok,
			Amount:      amount,
			SlippageBps: sched.SlippageBps,
		})
	case actionSwapIn:
		return c.exec.Execute(ctx, dex.Request{
			Op:          dex.OpSwapIn,
			Wallet:      w,
			TokenIn:     &tok,
			Amount:      amount,
			SlippageBps: sched.SlippageBps,
		})
	case actionAddLiquidity:
		return c.exec.Execute(ctx, dex.Request{
			Op:          dex.OpAddLiquidity,
			Wallet:      w,
			TokenOut:    &tok,
			Amount:      amount,
			SlippageBps: sched.SlippageBps,
		})
	case actionRoundtrip:
		return c.runRoundtrips(ctx, w, tok, amount, sched)
	default:
		return dex.Outcome{Success: false, Err: dex.NewError(dex.KindUnknown, "unknown action", nil)}
	}
}

func (c *Coordinator) runRoundtrips(ctx context.Context, w *wallet.Wallet, tok token.Token, amount float64, sched config.Schedule) dex.Outcome {
	var hashes []string
	for i := 0; i < sched.RoundtripRepeats; i++ {
		if i > 0 {
			// Re-plan from the live balance so the repeat reflects what the
			// previous trip actually cost.
			balance, err := c.balances.NativeBalance(ctx, w.Address())
			if err != nil {
				return dex.Outcome{Success: false, TxHashes: hashes,
					Err: dex.NewError(dex.KindUnknown, "balance read between roundtrips failed", err)}
			}
			replanned, planErr := c.replan(balance, sched)
			if planErr != nil {
				var opErr *dex.OperationError
				if !errors.As(planErr, &opErr) {
					opErr = dex.NewError(dex.KindUnknown, "roundtrip re-plan failed", planErr)
				}
				return dex.Outcome{Success: false, TxHashes: hashes, Err: opErr}
			}
			amount = replanned
		}

		out := c.roundtrip.Run(ctx, w, tok, amount, sched.SlippageBps)
		hashes = append(hashes, out.TxHashes...)
		if !out.Success {
			return dex.Outcome{Success: false, TxHashes: hashes, Err: out.Err}
		}
	}
	return dex.Outcome{Success: true, TxHashes: hashes}
}

func (c *Coordinator) replan(balance float64, sched config.Schedule) (float64, error) {
	if sched.DynamicAmount {
		return c.planner.Plan(balance, sched.MinAmount, sched.MaxAmount, sched.BalanceFraction)
	}
	return c.planner.Fixed(sched.FixedAmount, balance, sched.BalanceFraction)
}

// snapshotBalances records each wallet's native balance; read failures
// are logged and leave the snapshot at zero.
func (c *Coordinator) snapshotBalances(ctx context.Context, wallets []*wallet.Wallet, agg *stats.Aggregator, set func(string, float64)) {
	for _, w := range wallets {
		balance, err := c.balances.NativeBalance(ctx, w.Address())
		if err != nil {
			c.logger.Warn("Balance snapshot failed",
				zap.String("wallet", w.Name()), zap.Error(err))
			continue
		}
		set(w.Name(), balance)
	}
}

func failResult(res stats.RoundResult, action string, amount float64, err *dex.OperationError) stats.RoundResult {
	res.Action = action
	res.Amount = amount
	res.Success = false
	res.ErrKind = string(err.Kind)
	res.ErrMessage = err.Error()
	return res
}
