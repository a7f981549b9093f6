package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/chain"
	"github.com/bebbyilham/monad-ambient-cli/internal/token"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// erc20API is the slice of the token binding the executor needs.
type erc20API interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, w *wallet.Wallet, spender common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int) (common.Hash, error)
	Transfer(ctx context.Context, w *wallet.Wallet, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int) (common.Hash, error)
}

type erc20Factory func(t token.Token) erc20API

// Executor performs one logical operation against the router, degrading to
// a direct transfer when the router is unusable. Calls block until the
// submitted transaction confirms.
type Executor struct {
	client   chain.Client
	router   Router
	wrapped  common.Address
	newERC20 erc20Factory
	logger   *zap.Logger
	now      func() time.Time
}

// NewExecutor wires an executor over the given client and router. wrapped is
// the wrapped-native token address used to anchor swap paths.
func NewExecutor(client chain.Client, router Router, wrapped common.Address, logger *zap.Logger) *Executor {
	return &Executor{
		client:  client,
		router:  router,
		wrapped: wrapped,
		newERC20: func(t token.Token) erc20API {
			return token.NewERC20(t, client)
		},
		logger: logger,
		now:    time.Now,
	}
}

// Execute runs one attempt and returns its outcome. Failures are always
// local to the attempt; the caller decides whether to continue.
func (e *Executor) Execute(ctx context.Context, req Request) Outcome {
	log := e.logger.With(
		zap.String("wallet", req.Wallet.Name()),
		zap.String("operation", string(req.Op)),
		zap.Float64("amount", req.Amount))

	if req.Amount <= 0 {
		return failure(NewError(KindInsufficientBalance, "non-positive amount", nil))
	}
	amountIn, path, err := e.prepare(req)
	if err != nil {
		return failure(NewError(KindUnknown, "invalid request", err))
	}

	if !e.routerDeployed(ctx) {
		log.Warn("Router contract not deployed, falling back to direct transfer")
		hash, fbErr := e.fallback(ctx, req, amountIn)
		if fbErr != nil {
			return failure(NewError(KindExecutionFailure, "direct transfer fallback failed", fbErr))
		}
		return Outcome{Success: true, TxHashes: []string{hash.Hex()}}
	}

	if approveTok := approvalToken(req); approveTok != nil {
		if err := e.ensureAllowance(ctx, req.Wallet, *approveTok, amountIn); err != nil {
			log.Error("Router approval failed", zap.Error(err))
			return failure(NewError(KindApprovalFailure, "router approval failed", err))
		}
	}

	hash, err := e.submit(ctx, req, amountIn, path, log)
	if err != nil {
		log.Warn("Primary swap path failed, falling back to direct transfer", zap.Error(err))
		fbHash, fbErr := e.fallback(ctx, req, amountIn)
		if fbErr != nil {
			// Surface the primary error; the fallback's own failure is noise.
			return failure(NewError(KindExecutionFailure, "swap failed", err))
		}
		return Outcome{Success: true, TxHashes: []string{fbHash.Hex()}}
	}

	log.Info("Swap confirmed", zap.String("tx_hash", hash.Hex()))
	return Outcome{Success: true, TxHashes: []string{hash.Hex()}}
}

func failure(err *OperationError) Outcome {
	return Outcome{Success: false, Err: err}
}

// prepare derives the raw input amount and swap path for the request.
func (e *Executor) prepare(req Request) (*big.Int, []common.Address, error) {
	switch req.Op {
	case OpSwapOut:
		if req.TokenOut == nil {
			return nil, nil, fmt.Errorf("swap_out requires a target token")
		}
		amountIn := token.ToWei(req.Amount, token.NativeDecimals)
		return amountIn, []common.Address{e.wrapped, req.TokenOut.Address}, nil
	case OpSwapIn:
		if req.TokenIn == nil {
			return nil, nil, fmt.Errorf("swap_in requires a source token")
		}
		amountIn := token.ToWei(req.Amount, req.TokenIn.Decimals)
		return amountIn, []common.Address{req.TokenIn.Address, e.wrapped}, nil
	case OpTokenSwap:
		if req.TokenIn == nil || req.TokenOut == nil {
			return nil, nil, fmt.Errorf("token_swap requires source and target tokens")
		}
		amountIn := token.ToWei(req.Amount, req.TokenIn.Decimals)
		return amountIn, []common.Address{req.TokenIn.Address, e.wrapped, req.TokenOut.Address}, nil
	case OpAddLiquidity:
		if req.TokenOut == nil {
			return nil, nil, fmt.Errorf("add_liquidity requires a pairing token")
		}
		amountIn := token.ToWei(req.Amount, token.NativeDecimals)
		return amountIn, []common.Address{e.wrapped, req.TokenOut.Address}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported operation: %s", req.Op)
	}
}

// approvalToken returns the token whose spending the router must be allowed
// for, or nil when the leg only spends native value.
func approvalToken(req Request) *token.Token {
	switch req.Op {
	case OpSwapIn, OpTokenSwap:
		return req.TokenIn
	case OpAddLiquidity:
		return req.TokenOut
	default:
		return nil
	}
}

// routerDeployed probes for contract code at the router address.
func (e *Executor) routerDeployed(ctx context.Context) bool {
	code, err := e.client.CodeAt(ctx, e.router.Address())
	return err == nil && len(code) > 0
}

// ensureAllowance checks the router's allowance and issues an unlimited
// approval when it cannot cover amountIn, waiting for confirmation.
func (e *Executor) ensureAllowance(ctx context.Context, w *wallet.Wallet, tok token.Token, amountIn *big.Int) error {
	erc20 := e.newERC20(tok)
	allowance, err := erc20.Allowance(ctx, w.Address(), e.router.Address())
	if err != nil {
		return fmt.Errorf("allowance check failed: %w", err)
	}
	if allowance.Cmp(amountIn) >= 0 {
		return nil
	}

	e.logger.Debug("Approving router",
		zap.String("wallet", w.Name()),
		zap.String("token", tok.Symbol))
	hash, err := erc20.Approve(ctx, w, e.router.Address(), token.MaxApproval, GasLimitApprove, GasPrice)
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	e.logger.Debug("Approval confirmed", zap.String("tx_hash", hash.Hex()))
	return nil
}

// minOut derives the minimum acceptable output. When the estimate call
// fails, a 1-wei floor is substituted: activity generation wins over price
// protection here, so a degraded fill is accepted rather than aborting.
func (e *Executor) minOut(ctx context.Context, amountIn *big.Int, path []common.Address, slippageBps int64) *big.Int {
	amounts, err := e.router.GetAmountsOut(ctx, amountIn, path)
	if err != nil || len(amounts) == 0 {
		e.logger.Warn("Output estimation failed, accepting floor minimum output", zap.Error(err))
		return big.NewInt(1)
	}
	expected := amounts[len(amounts)-1]
	minOut := new(big.Int).Mul(expected, big.NewInt(10_000-slippageBps))
	minOut.Div(minOut, big.NewInt(10_000))
	if minOut.Sign() <= 0 {
		minOut = big.NewInt(1)
	}
	return minOut
}

func (e *Executor) deadline() *big.Int {
	return big.NewInt(e.now().Add(DeadlineWindow).Unix())
}

// submit sends the primary router transaction for the request.
func (e *Executor) submit(ctx context.Context, req Request, amountIn *big.Int, path []common.Address, log *zap.Logger) (common.Hash, error) {
	deadline := e.deadline()

	switch req.Op {
	case OpSwapOut:
		minOut := e.minOut(ctx, amountIn, path, req.SlippageBps)
		return e.router.SwapExactETHForTokens(ctx, req.Wallet, amountIn, minOut, path, deadline)
	case OpSwapIn:
		minOut := e.minOut(ctx, amountIn, path, req.SlippageBps)
		return e.router.SwapExactTokensForETH(ctx, req.Wallet, amountIn, minOut, path, deadline)
	case OpTokenSwap:
		minOut := e.minOut(ctx, amountIn, path, req.SlippageBps)
		return e.router.SwapExactTokensForTokens(ctx, req.Wallet, amountIn, minOut, path, deadline)
	case OpAddLiquidity:
		// Half the native amount is paired; the matching token amount comes
		// from the price estimate, with the same floor policy on failure.
		half := new(big.Int).Div(amountIn, big.NewInt(2))
		tokenDesired := big.NewInt(1)
		if amounts, err := e.router.GetAmountsOut(ctx, half, path); err == nil && len(amounts) > 0 {
			tokenDesired = amounts[len(amounts)-1]
		} else {
			log.Warn("Liquidity estimation failed, using floor token amount", zap.Error(err))
		}
		one := big.NewInt(1)
		return e.router.AddLiquidityETH(ctx, req.Wallet, req.TokenOut.Address, tokenDesired, one, one, half, deadline)
	default:
		return common.Hash{}, fmt.Errorf("unsupported operation: %s", req.Op)
	}
}

// fallback performs the degraded direct transfer: native value to the
// counterparty token contract for native-outbound legs, a token transfer
// for token-outbound legs. It never mimics router economics.
func (e *Executor) fallback(ctx context.Context, req Request, amountIn *big.Int) (common.Hash, error) {
	switch req.Op {
	case OpSwapOut, OpAddLiquidity:
		_, hash, err := chain.SendLegacy(ctx, e.client, req.Wallet, req.TokenOut.Address, amountIn, GasLimitNativeTransfer, GasPrice, nil)
		return hash, err
	case OpSwapIn:
		erc20 := e.newERC20(*req.TokenIn)
		return erc20.Transfer(ctx, req.Wallet, e.wrapped, amountIn, GasLimitTokenTransfer, GasPrice)
	case OpTokenSwap:
		erc20 := e.newERC20(*req.TokenIn)
		return erc20.Transfer(ctx, req.Wallet, req.TokenOut.Address, amountIn, GasLimitTokenTransfer, GasPrice)
	default:
		return common.Hash{}, fmt.Errorf("unsupported operation: %s", req.Op)
	}
}

// TokenBalance reads the human-unit balance of tok for owner.
func (e *Executor) TokenBalance(ctx context.Context, tok token.Token, owner common.Address) (float64, error) {
	raw, err := e.newERC20(tok).BalanceOf(ctx, owner)
	if err != nil {
		return 0, err
	}
	return token.FromWei(raw, tok.Decimals), nil
}

// NativeBalance reads the owner's native balance in human units.
func (e *Executor) NativeBalance(ctx context.Context, owner common.Address) (float64, error) {
	raw, err := e.client.BalanceAt(ctx, owner)
	if err != nil {
		return 0, err
	}
	return token.FromWei(raw, token.NativeDecimals), nil
}
