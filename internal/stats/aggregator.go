// Package stats folds per-operation outcomes into wallet and run
// summaries. It does no I/O; the aggregator is owned by one run.
package stats

import (
	"time"
)

// RoundResult records one (wallet, round) attempt.
type RoundResult struct {
	WalletName string    `json:"wallet"`
	Round      int       `json:"round"`
	Action     string    `json:"action"`
	Amount     float64   `json:"amount"`
	Success    bool      `json:"success"`
	TxHashes   []string  `json:"tx_hashes,omitempty"`
	ErrKind    string    `json:"error_kind,omitempty"`
	ErrMessage string    `json:"error_message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Failure is one recorded failure for a wallet.
type Failure struct {
	Round   int    `json:"round"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WalletStats accumulates a single wallet's run. Completed always equals
// Successful plus the failure count.
type WalletStats struct {
	Name         string    `json:"name"`
	Completed    int       `json:"completed"`
	Successful   int       `json:"successful"`
	Failures     []Failure `json:"failures,omitempty"`
	StartBalance float64   `json:"start_balance"`
	EndBalance   float64   `json:"end_balance"`
}

// Delta is the wallet's net native balance change over the run.
func (ws *WalletStats) Delta() float64 {
	return ws.EndBalance - ws.StartBalance
}

// Aggregator owns the results of one run.
type Aggregator struct {
	results []RoundResult
	wallets map[string]*WalletStats
	order   []string
}

// NewAggregator prepares stats slots for the named wallets.
func NewAggregator(walletNames []string) *Aggregator {
	a := &Aggregator{
		wallets: make(map[string]*WalletStats, len(walletNames)),
		order:   append([]string{}, walletNames...),
	}
	for _, name := range walletNames {
		a.wallets[name] = &WalletStats{Name: name}
	}
	return a
}

// Record folds one result into the per-wallet and overall accumulators.
func (a *Aggregator) Record(res RoundResult) {
	a.results = append(a.results, res)

	ws, ok := a.wallets[res.WalletName]
	if !ok {
		ws = &WalletStats{Name: res.WalletName}
		a.wallets[res.WalletName] = ws
		a.order = append(a.order, res.WalletName)
	}
	ws.Completed++
	if res.Success {
		ws.Successful++
	} else {
		ws.Failures = append(ws.Failures, Failure{
			Round:   res.Round,
			Kind:    res.ErrKind,
			Message: res.ErrMessage,
		})
	}
}

// SetStartBalance snapshots a wallet's native balance at run start.
func (a *Aggregator) SetStartBalance(wallet string, balance float64) {
	if ws, ok := a.wallets[wallet]; ok {
		ws.StartBalance = balance
	}
}

// SetEndBalance snapshots a wallet's native balance at run end.
func (a *Aggregator) SetEndBalance(wallet string, balance float64) {
	if ws, ok := a.wallets[wallet]; ok {
		ws.EndBalance = balance
	}
}

// Results returns the recorded results in execution order.
func (a *Aggregator) Results() []RoundResult {
	out := make([]RoundResult, len(a.results))
	copy(out, a.results)
	return out
}

// Summary is the printable end-of-run aggregate.
type Summary struct {
	Wallets     []WalletStats `json:"wallets"`
	Attempted   int           `json:"attempted"`
	Successful  int           `json:"successful"`
	SuccessRate float64       `json:"success_rate"`
	TotalDelta  float64       `json:"total_delta"`
}

// Summary folds the accumulated results into the final aggregate.
func (a *Aggregator) Summary() Summary {
	s := Summary{Wallets: make([]WalletStats, 0, len(a.order))}
	for _, name := range a.order {
		ws := a.wallets[name]
		s.Wallets = append(s.Wallets, *ws)
		s.Attempted += ws.Completed
		s.Successful += ws.Successful
		s.TotalDelta += ws.Delta()
	}
	if s.Attempted > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.Attempted)
	}
	return s
}
