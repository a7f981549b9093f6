package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bebbyilham/monad-ambient-cli/internal/chain"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// Router is the subset of a UniswapV2-style router the executor uses.
// Mutating calls block until the transaction is mined.
type Router interface {
	Address() common.Address
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	SwapExactETHForTokens(ctx context.Context, w *wallet.Wallet, value, minOut *big.Int, path []common.Address, deadline *big.Int) (common.Hash, error)
	SwapExactTokensForETH(ctx context.Context, w *wallet.Wallet, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int) (common.Hash, error)
	SwapExactTokensForTokens(ctx context.Context, w *wallet.Wallet, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int) (common.Hash, error)
	AddLiquidityETH(ctx context.Context, w *wallet.Wallet, tok common.Address, amountTokenDesired, amountTokenMin, amountETHMin, value, deadline *big.Int) (common.Hash, error)
}

const routerABIJSON = `[
{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"payable","type":"function"},
{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETH","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"token","type":"address"},{"name":"amountTokenDesired","type":"uint256"},{"name":"amountTokenMin","type":"uint256"},{"name":"amountETHMin","type":"uint256"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"addLiquidityETH","outputs":[{"name":"amountToken","type":"uint256"},{"name":"amountETH","type":"uint256"},{"name":"liquidity","type":"uint256"}],"stateMutability":"payable","type":"function"}
]`

var routerABI = mustParseABI(routerABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded ABI: %v", err))
	}
	return parsed
}

// V2Router binds an on-chain UniswapV2-compatible router.
type V2Router struct {
	address common.Address
	client  chain.Client
}

// NewV2Router binds the router at addr.
func NewV2Router(addr common.Address, client chain.Client) *V2Router {
	return &V2Router{address: addr, client: client}
}

func (r *V2Router) Address() common.Address { return r.address }

// GetAmountsOut queries the expected output amounts along path.
func (r *V2Router) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := routerABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAmountsOut: %w", err)
	}
	to := r.address
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("getAmountsOut call failed: %w", err)
	}
	res, err := routerABI.Unpack("getAmountsOut", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut: %w", err)
	}
	amounts, ok := res[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getAmountsOut return type")
	}
	return amounts, nil
}

// SwapExactETHForTokens swaps native value for tokens along path.
func (r *V2Router) SwapExactETHForTokens(ctx context.Context, w *wallet.Wallet, value, minOut *big.Int, path []common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := routerABI.Pack("swapExactETHForTokens", minOut, path, w.Address(), deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack swapExactETHForTokens: %w", err)
	}
	_, hash, err := chain.SendLegacy(ctx, r.client, w, r.address, value, GasLimitSwap, GasPrice, data)
	return hash, err
}

// SwapExactTokensForETH swaps tokens for native value along path.
func (r *V2Router) SwapExactTokensForETH(ctx context.Context, w *wallet.Wallet, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := routerABI.Pack("swapExactTokensForETH", amountIn, minOut, path, w.Address(), deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack swapExactTokensForETH: %w", err)
	}
	_, hash, err := chain.SendLegacy(ctx, r.client, w, r.address, nil, GasLimitSwap, GasPrice, data)
	return hash, err
}

// SwapExactTokensForTokens swaps one token for another along path.
func (r *V2Router) SwapExactTokensForTokens(ctx context.Context, w *wallet.Wallet, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := routerABI.Pack("swapExactTokensForTokens", amountIn, minOut, path, w.Address(), deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack swapExactTokensForTokens: %w", err)
	}
	_, hash, err := chain.SendLegacy(ctx, r.client, w, r.address, nil, GasLimitSwap, GasPrice, data)
	return hash, err
}

// AddLiquidityETH pairs native value with tokens into the pool.
func (r *V2Router) AddLiquidityETH(ctx context.Context, w *wallet.Wallet, tok common.Address, amountTokenDesired, amountTokenMin, amountETHMin, value, deadline *big.Int) (common.Hash, error) {
	data, err := routerABI.Pack("addLiquidityETH", tok, amountTokenDesired, amountTokenMin, amountETHMin, w.Address(), deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack addLiquidityETH: %w", err)
	}
	_, hash, err := chain.SendLegacy(ctx, r.client, w, r.address, value, GasLimitLiquidity, GasPrice, data)
	return hash, err
}
