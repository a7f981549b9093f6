package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/token"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// Well-known throwaway key; safe for offline signing tests.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	wrappedAddr = common.HexToAddress("0x760AfE86e5de5fa0Ee542fc7B7B713e1c5425701")
	routerAddr  = common.HexToAddress("0xfB8e1C3b833f9E67a71C859a132cf783b645e436")
	usdcAddr    = common.HexToAddress("0xf817257fed379853cDe0fa4F97AB987181B1E5Ea")
)

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New("w1", testKeyHex)
	require.NoError(t, err)
	return w
}

func testToken() token.Token {
	return token.Token{Symbol: "USDC", Address: usdcAddr, Decimals: 6}
}

// fakeClient satisfies chain.Client without touching the network.
type fakeClient struct {
	code    []byte
	balance *big.Int
	sendErr error
	sent    []*types.Transaction
}

func (f *fakeClient) ChainID() *big.Int { return big.NewInt(10143) }

func (f *fakeClient) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	if f.balance == nil {
		return new(big.Int), nil
	}
	return f.balance, nil
}

func (f *fakeClient) CodeAt(_ context.Context, _ common.Address) ([]byte, error) {
	return f.code, nil
}

func (f *fakeClient) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	return uint64(len(f.sent)), nil
}

func (f *fakeClient) CallContract(_ context.Context, _ ethereum.CallMsg) ([]byte, error) {
	return nil, errors.New("unexpected eth_call")
}

func (f *fakeClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeClient) WaitMined(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (f *fakeClient) Close() {}

// fakeRouter records calls and returns scripted results.
type fakeRouter struct {
	amountsOut  []*big.Int
	estimateErr error
	swapHash    common.Hash
	swapErr     error
	calls       []string
	lastMinOut  *big.Int
}

func (f *fakeRouter) Address() common.Address { return routerAddr }

func (f *fakeRouter) GetAmountsOut(_ context.Context, _ *big.Int, _ []common.Address) ([]*big.Int, error) {
	f.calls = append(f.calls, "getAmountsOut")
	if f.estimateErr != nil {
		return nil, f.estimateErr
	}
	return f.amountsOut, nil
}

func (f *fakeRouter) swap(name string, minOut *big.Int) (common.Hash, error) {
	f.calls = append(f.calls, name)
	f.lastMinOut = minOut
	if f.swapErr != nil {
		return common.Hash{}, f.swapErr
	}
	return f.swapHash, nil
}

func (f *fakeRouter) SwapExactETHForTokens(_ context.Context, _ *wallet.Wallet, _, minOut *big.Int, _ []common.Address, _ *big.Int) (common.Hash, error) {
	return f.swap("swapExactETHForTokens", minOut)
}

func (f *fakeRouter) SwapExactTokensForETH(_ context.Context, _ *wallet.Wallet, _, minOut *big.Int, _ []common.Address, _ *big.Int) (common.Hash, error) {
	return f.swap("swapExactTokensForETH", minOut)
}

func (f *fakeRouter) SwapExactTokensForTokens(_ context.Context, _ *wallet.Wallet, _, minOut *big.Int, _ []common.Address, _ *big.Int) (common.Hash, error) {
	return f.swap("swapExactTokensForTokens", minOut)
}

func (f *fakeRouter) AddLiquidityETH(_ context.Context, _ *wallet.Wallet, _ common.Address, _, _, _, _, _ *big.Int) (common.Hash, error) {
	return f.swap("addLiquidityETH", nil)
}

// fakeERC20 satisfies erc20API.
type fakeERC20 struct {
	balance       *big.Int
	allowance     *big.Int
	allowanceErr  error
	approveErr    error
	approveCalls  int
	transferErr   error
	transferCalls int
}

func (f *fakeERC20) BalanceOf(_ context.Context, _ common.Address) (*big.Int, error) {
	if f.balance == nil {
		return new(big.Int), nil
	}
	return f.balance, nil
}

func (f *fakeERC20) Allowance(_ context.Context, _, _ common.Address) (*big.Int, error) {
	if f.allowanceErr != nil {
		return nil, f.allowanceErr
	}
	if f.allowance == nil {
		return new(big.Int), nil
	}
	return f.allowance, nil
}

func (f *fakeERC20) Approve(_ context.Context, _ *wallet.Wallet, _ common.Address, _ *big.Int, _ uint64, _ *big.Int) (common.Hash, error) {
	f.approveCalls++
	if f.approveErr != nil {
		return common.Hash{}, f.approveErr
	}
	return common.HexToHash("0xaa"), nil
}

func (f *fakeERC20) Transfer(_ context.Context, _ *wallet.Wallet, _ common.Address, _ *big.Int, _ uint64, _ *big.Int) (common.Hash, error) {
	f.transferCalls++
	if f.transferErr != nil {
		return common.Hash{}, f.transferErr
	}
	return common.HexToHash("0xbb"), nil
}

func newTestExecutor(client *fakeClient, router *fakeRouter, erc20 *fakeERC20) *Executor {
	e := NewExecutor(client, router, wrappedAddr, zap.NewNop())
	e.newERC20 = func(_ token.Token) erc20API { return erc20 }
	return e
}

func TestExecute_NonPositiveAmount(t *testing.T) {
	e := newTestExecutor(&fakeClient{}, &fakeRouter{}, &fakeERC20{})
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0,
	})

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindInsufficientBalance, out.Err.Kind)
}

func TestExecute_RouterMissingUsesFallback(t *testing.T) {
	client := &fakeClient{code: nil}
	router := &fakeRouter{}
	e := newTestExecutor(client, router, &fakeERC20{})
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0.5, SlippageBps: 100,
	})

	require.True(t, out.Success)
	require.Len(t, out.TxHashes, 1)
	// The router must never be consulted when its code probe fails.
	assert.Empty(t, router.calls)
	// The fallback sends native value straight to the token contract.
	require.Len(t, client.sent, 1)
	assert.Equal(t, usdcAddr, *client.sent[0].To())
}

func TestExecute_RouterMissingAndFallbackFails(t *testing.T) {
	client := &fakeClient{code: nil, sendErr: errors.New("nonce too low")}
	e := newTestExecutor(client, &fakeRouter{}, &fakeERC20{})
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0.5,
	})

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindExecutionFailure, out.Err.Kind)
}

func TestExecute_SwapOutHappyPath(t *testing.T) {
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(10_000)},
		swapHash:   common.HexToHash("0xcc"),
	}
	erc20 := &fakeERC20{}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, erc20)
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0.5, SlippageBps: 100,
	})

	require.True(t, out.Success)
	assert.Equal(t, []string{router.swapHash.Hex()}, out.TxHashes)
	assert.Contains(t, router.calls, "swapExactETHForTokens")
	// Native-outbound swaps never need an approval.
	assert.Equal(t, 0, erc20.approveCalls)
	// 100 bps off the 10000 estimate.
	assert.Equal(t, big.NewInt(9_900), router.lastMinOut)
}

func TestExecute_EstimationFailureFloorsMinOut(t *testing.T) {
	router := &fakeRouter{
		estimateErr: errors.New("execution reverted"),
		swapHash:    common.HexToHash("0xcc"),
	}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, &fakeERC20{})
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0.5, SlippageBps: 100,
	})

	require.True(t, out.Success)
	// A failed estimate degrades the minimum output to 1 wei instead of
	// aborting the attempt.
	assert.Equal(t, big.NewInt(1), router.lastMinOut)
}

func TestExecute_SwapInApprovesWhenAllowanceLow(t *testing.T) {
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(500)},
		swapHash:   common.HexToHash("0xcc"),
	}
	erc20 := &fakeERC20{allowance: big.NewInt(0)}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, erc20)
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapIn, Wallet: testWallet(t), TokenIn: &tok, Amount: 12.5, SlippageBps: 100,
	})

	require.True(t, out.Success)
	assert.Equal(t, 1, erc20.approveCalls)
	assert.Contains(t, router.calls, "swapExactTokensForETH")
}

func TestExecute_SufficientAllowanceSkipsApprove(t *testing.T) {
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(500)},
		swapHash:   common.HexToHash("0xcc"),
	}
	erc20 := &fakeERC20{allowance: token.MaxApproval}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, erc20)
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapIn, Wallet: testWallet(t), TokenIn: &tok, Amount: 12.5,
	})

	require.True(t, out.Success)
	assert.Equal(t, 0, erc20.approveCalls)
}

func TestExecute_ApprovalFailureIsFatal(t *testing.T) {
	router := &fakeRouter{swapHash: common.HexToHash("0xcc")}
	erc20 := &fakeERC20{allowance: big.NewInt(0), approveErr: errors.New("reverted")}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, erc20)
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapIn, Wallet: testWallet(t), TokenIn: &tok, Amount: 12.5,
	})

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindApprovalFailure, out.Err.Kind)
	// Approval failures never reach the swap or the fallback.
	assert.NotContains(t, router.calls, "swapExactTokensForETH")
	assert.Equal(t, 0, erc20.transferCalls)
}

func TestExecute_PrimaryFailureFallsBackOnce(t *testing.T) {
	client := &fakeClient{code: []byte{0x60}}
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(10_000)},
		swapErr:    errors.New("TRANSFER_FROM_FAILED"),
	}
	e := newTestExecutor(client, router, &fakeERC20{})
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0.5, SlippageBps: 100,
	})

	require.True(t, out.Success)
	require.Len(t, out.TxHashes, 1)
	require.Len(t, client.sent, 1)
	assert.Equal(t, usdcAddr, *client.sent[0].To())
}

func TestExecute_PrimaryErrorSurfacedWhenFallbackFails(t *testing.T) {
	primaryErr := errors.New("TRANSFER_FROM_FAILED")
	client := &fakeClient{code: []byte{0x60}, sendErr: errors.New("insufficient funds")}
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(10_000)},
		swapErr:    primaryErr,
	}
	e := newTestExecutor(client, router, &fakeERC20{})
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpSwapOut, Wallet: testWallet(t), TokenOut: &tok, Amount: 0.5,
	})

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindExecutionFailure, out.Err.Kind)
	// The swap error, not the fallback transfer error, is what surfaces.
	assert.ErrorIs(t, out.Err, primaryErr)
}

func TestExecute_TokenSwapFallbackTransfersToken(t *testing.T) {
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
		swapErr:    errors.New("reverted"),
	}
	erc20 := &fakeERC20{allowance: token.MaxApproval}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, erc20)
	in := testToken()
	out := token.Token{Symbol: "USDT", Address: common.HexToAddress("0x88b8E2161DEDC77EF4ab7585569D2415a1C1055D"), Decimals: 6}

	res := e.Execute(context.Background(), Request{
		Op: OpTokenSwap, Wallet: testWallet(t), TokenIn: &in, TokenOut: &out, Amount: 5,
	})

	require.True(t, res.Success)
	assert.Equal(t, 1, erc20.transferCalls)
}

func TestExecute_AddLiquidity(t *testing.T) {
	router := &fakeRouter{
		amountsOut: []*big.Int{big.NewInt(1), big.NewInt(2_000)},
		swapHash:   common.HexToHash("0xdd"),
	}
	erc20 := &fakeERC20{allowance: token.MaxApproval}
	e := newTestExecutor(&fakeClient{code: []byte{0x60}}, router, erc20)
	tok := testToken()

	out := e.Execute(context.Background(), Request{
		Op: OpAddLiquidity, Wallet: testWallet(t), TokenOut: &tok, Amount: 1, SlippageBps: 100,
	})

	require.True(t, out.Success)
	assert.Contains(t, router.calls, "addLiquidityETH")
}

func TestTokenBalance_HumanUnits(t *testing.T) {
	erc20 := &fakeERC20{balance: big.NewInt(12_500_000)} // 12.5 at 6 decimals
	e := newTestExecutor(&fakeClient{}, &fakeRouter{}, erc20)

	balance, err := e.TokenBalance(context.Background(), testToken(), testWallet(t).Address())
	require.NoError(t, err)
	assert.InDelta(t, 12.5, balance, 1e-9)
}

func TestNativeBalance_HumanUnits(t *testing.T) {
	client := &fakeClient{balance: big.NewInt(1_500_000_000_000_000_000)} // 1.5 at 18 decimals
	e := newTestExecutor(client, &fakeRouter{}, &fakeERC20{})

	balance, err := e.NativeBalance(context.Background(), testWallet(t).Address())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, balance, 1e-9)
}
