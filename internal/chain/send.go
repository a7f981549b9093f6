package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// SendLegacy builds, signs, submits and awaits a legacy transaction from the
// given wallet. It is the single mutating path shared by the token and
// router layers; gas parameters are supplied by the caller as fixed
// constants, never node estimation.
func SendLegacy(ctx context.Context, c Client, w *wallet.Wallet, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (*types.Receipt, common.Hash, error) {
	nonce, err := c.PendingNonceAt(ctx, w.Address())
	if err != nil {
		return nil, common.Hash{}, err
	}

	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)

	signed, err := w.SignTx(tx, c.ChainID())
	if err != nil {
		return nil, common.Hash{}, err
	}

	if err := c.SendTransaction(ctx, signed); err != nil {
		return nil, common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := c.WaitMined(ctx, signed)
	if err != nil {
		return nil, signed.Hash(), err
	}
	return receipt, signed.Hash(), nil
}
