package dex

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/token"
)

// scriptedExec returns one queued outcome per Execute call and records
// every request.
type scriptedExec struct {
	outcomes []Outcome
	requests []Request
}

func (s *scriptedExec) Execute(_ context.Context, req Request) Outcome {
	s.requests = append(s.requests, req)
	if len(s.outcomes) == 0 {
		return Outcome{Success: true, TxHashes: []string{"0x0"}}
	}
	out := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return out
}

type scriptedBalances struct {
	balance float64
	err     error
}

func (s *scriptedBalances) TokenBalance(_ context.Context, _ token.Token, _ common.Address) (float64, error) {
	return s.balance, s.err
}

func TestRoundtrip_HalvesOutboundAndSwapsBackFullBalance(t *testing.T) {
	exec := &scriptedExec{outcomes: []Outcome{
		{Success: true, TxHashes: []string{"0xout"}},
		{Success: true, TxHashes: []string{"0xin"}},
	}}
	balances := &scriptedBalances{balance: 123.45}
	rc := NewRoundtripCoordinator(exec, balances, zap.NewNop())
	tok := testToken()

	out := rc.Run(context.Background(), testWallet(t), tok, 1.0, 100)

	require.True(t, out.Success)
	assert.Equal(t, []string{"0xout", "0xin"}, out.TxHashes)

	require.Len(t, exec.requests, 2)
	assert.Equal(t, OpSwapOut, exec.requests[0].Op)
	assert.InDelta(t, 0.5, exec.requests[0].Amount, 1e-9)
	assert.Equal(t, OpSwapIn, exec.requests[1].Op)
	// The inbound leg spends the entire live balance, not half of it.
	assert.InDelta(t, 123.45, exec.requests[1].Amount, 1e-9)
}

func TestRoundtrip_OutboundFailureAborts(t *testing.T) {
	exec := &scriptedExec{outcomes: []Outcome{
		{Success: false, Err: NewError(KindExecutionFailure, "swap failed", nil)},
	}}
	rc := NewRoundtripCoordinator(exec, &scriptedBalances{balance: 10}, zap.NewNop())

	out := rc.Run(context.Background(), testWallet(t), testToken(), 1.0, 100)

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindExecutionFailure, out.Err.Kind)
	// The inbound leg is never attempted after an outbound failure.
	require.Len(t, exec.requests, 1)
}

func TestRoundtrip_BalanceReadFailure(t *testing.T) {
	exec := &scriptedExec{outcomes: []Outcome{
		{Success: true, TxHashes: []string{"0xout"}},
	}}
	balances := &scriptedBalances{err: errors.New("rpc timeout")}
	rc := NewRoundtripCoordinator(exec, balances, zap.NewNop())

	out := rc.Run(context.Background(), testWallet(t), testToken(), 1.0, 100)

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindUnknown, out.Err.Kind)
}

func TestRoundtrip_EmptyBalanceAfterOutboundLeg(t *testing.T) {
	exec := &scriptedExec{outcomes: []Outcome{
		{Success: true, TxHashes: []string{"0xout"}},
	}}
	rc := NewRoundtripCoordinator(exec, &scriptedBalances{balance: 0}, zap.NewNop())

	out := rc.Run(context.Background(), testWallet(t), testToken(), 1.0, 100)

	assert.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, KindInsufficientBalance, out.Err.Kind)
}

func TestRoundtrip_InboundFailureKeepsOutboundHash(t *testing.T) {
	exec := &scriptedExec{outcomes: []Outcome{
		{Success: true, TxHashes: []string{"0xout"}},
		{Success: false, Err: NewError(KindExecutionFailure, "swap failed", nil)},
	}}
	rc := NewRoundtripCoordinator(exec, &scriptedBalances{balance: 10}, zap.NewNop())

	out := rc.Run(context.Background(), testWallet(t), testToken(), 1.0, 100)

	assert.False(t, out.Success)
	// The outbound hash is preserved so the partial trip stays auditable.
	assert.Equal(t, []string{"0xout"}, out.TxHashes)
	assert.Equal(t, KindExecutionFailure, out.Err.Kind)
}
