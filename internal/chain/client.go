// Package chain wraps the JSON-RPC access the bot needs behind a small
// interface so executors can be tested against a fake node.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Client is the subset of node functionality the bot depends on. All calls
// are blocking; WaitMined returns only once the transaction is confirmed.
type Client interface {
	ChainID() *big.Int
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	Close()
}

type rpcClient struct {
	eth     *ethclient.Client
	chainID *big.Int
	logger  *zap.Logger
}

// Dial connects to the RPC endpoint, retrying with exponential backoff, and
// verifies the node reports the expected chain ID.
func Dial(ctx context.Context, rawURL string, chainID int64, logger *zap.Logger) (Client, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second

	notify := func(err error, d time.Duration) {
		logger.Warn("RPC dial failed, retrying",
			zap.String("url", rawURL),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	operation := func() (*ethclient.Client, error) {
		return ethclient.DialContext(ctx, rawURL)
	}

	eth, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(5),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC %s: %w", rawURL, err)
	}

	reported, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to query chain ID: %w", err)
	}
	if reported.Int64() != chainID {
		eth.Close()
		return nil, fmt.Errorf("chain ID mismatch: node reports %d, config expects %d", reported.Int64(), chainID)
	}

	return &rpcClient{
		eth:     eth,
		chainID: reported,
		logger:  logger,
	}, nil
}

func (c *rpcClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *rpcClient) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

func (c *rpcClient) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return c.eth.CodeAt(ctx, addr, nil)
}

func (c *rpcClient) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce for %s: %w", addr.Hex(), err)
	}
	return nonce, nil
}

func (c *rpcClient) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, nil)
}

func (c *rpcClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.eth.SendTransaction(ctx, tx)
}

func (c *rpcClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("transaction mining failed: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

func (c *rpcClient) Close() {
	c.eth.Close()
}
