package token

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

const erc20ABIJSON = `[
{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded ABI: %v", err))
	}
	return parsed
}

// MaxApproval is the unlimited allowance value (2^256 - 1).
var MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ERC20 binds a token contract over a chain client. Mutating calls block
// until the transaction is mined.
type ERC20 struct {
	token  Token
	client chain.Client
}

// NewERC20 binds the given token address.
func NewERC20(t Token, client chain.Client) *ERC20 {
	return &ERC20{token: t, client: client}
}

func (e *ERC20) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	to := e.token.Address
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	return erc20ABI.Unpack(method, out)
}

// BalanceOf returns the raw token balance of owner.
func (e *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	res, err := e.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := res[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type")
	}
	return balance, nil
}

// Allowance returns the raw allowance granted by owner to spender.
func (e *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	res, err := e.call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := res[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance return type")
	}
	return allowance, nil
}

// Approve grants spender the given allowance and waits for confirmation.
func (e *ERC20) Approve(ctx context.Context, w *wallet.Wallet, spender common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int) (common.Hash, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	_, hash, err := chain.SendLegacy(ctx, e.client, w, e.token.Address, nil, gasLimit, gasPrice, data)
	return hash, err
}

// Transfer moves tokens to the recipient and waits for confirmation.
func (e *ERC20) Transfer(ctx context.Context, w *wallet.Wallet, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int) (common.Hash, error) {
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack transfer: %w", err)
	}
	_, hash, err := chain.SendLegacy(ctx, e.client, w, e.token.Address, nil, gasLimit, gasPrice, data)
	return hash, err
}

// resolveSymbol reads symbol() from the contract.
func resolveSymbol(ctx context.Context, client chain.Client, addr common.Address) (string, error) {
	e := &ERC20{token: Token{Address: addr}, client: client}
	res, err := e.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := res[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected symbol return type")
	}
	return symbol, nil
}

// resolveDecimals reads decimals() from the contract.
func resolveDecimals(ctx context.Context, client chain.Client, addr common.Address) (uint8, error) {
	e := &ERC20{token: Token{Address: addr}, client: client}
	res, err := e.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := res[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals return type")
	}
	return decimals, nil
}
