// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/chain"
	"github.com/bebbyilham/monad-ambient-cli/internal/config"
	"github.com/bebbyilham/monad-ambient-cli/internal/dex"
	"github.com/bebbyilham/monad-ambient-cli/internal/export"
	"github.com/bebbyilham/monad-ambient-cli/internal/logger"
	"github.com/bebbyilham/monad-ambient-cli/internal/planner"
	"github.com/bebbyilham/monad-ambient-cli/internal/random"
	"github.com/bebbyilham/monad-ambient-cli/internal/scheduler"
	"github.com/bebbyilham/monad-ambient-cli/internal/strategy"
	"github.com/bebbyilham/monad-ambient-cli/internal/token"
	"github.com/bebbyilham/monad-ambient-cli/internal/wallet"
)

// Runner owns one end-to-end run: wiring, execution, summary, export.
type Runner struct {
	logger     *logger.Logger
	config     *config.Config
	rnd        *random.Service
	shutdownCh chan os.Signal
}

// NewRunner builds a runner for the given configuration.
func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	return &Runner{
		logger:     log,
		config:     cfg,
		rnd:        random.New(),
		shutdownCh: make(chan os.Signal, 1),
	}
}

// Run executes the configured schedule. The first interrupt cancels the
// run at the next suspension point; results gathered so far are still
// summarized and exported.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-r.shutdownCh
		r.logger.Info("📡 Signal received, finishing current operation: " + sig.String())
		cancel()
	}()

	wallets, err := wallet.LoadWallets(r.config.WalletsFile)
	if err != nil {
		return fmt.Errorf("failed to load wallets: %w", err)
	}
	wallets, err = wallet.Select(wallets, r.config.ActiveWallets)
	if err != nil {
		return fmt.Errorf("wallet selection failed: %w", err)
	}
	r.logger.Info(fmt.Sprintf("👛 Loaded %d wallets", len(wallets)))

	client, err := chain.Dial(ctx, r.config.RPCURL, r.config.ChainID, r.logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC node: %w", err)
	}
	defer client.Close()

	tokens, err := r.resolveTokens(ctx, client)
	if err != nil {
		return err
	}

	router := dex.NewV2Router(common.HexToAddress(r.config.RouterAddress), client)
	exec := dex.NewExecutor(client, router, common.HexToAddress(r.config.WrappedNative), r.logger.Logger)
	roundtrip := dex.NewRoundtripCoordinator(exec, exec, r.logger.Logger)

	r.logStartingBalances(ctx, exec, wallets, tokens)

	// One correlation id per run ties scheduler entries together in the log.
	coord := scheduler.NewCoordinator(
		exec,
		roundtrip,
		exec,
		planner.New(r.rnd),
		strategy.NewSelector(r.rnd),
		r.rnd,
		r.logger.WithOperation("schedule"),
	)

	agg, err := coord.Run(runCtx, wallets, tokens, r.config.Schedule)
	if err != nil {
		return err
	}

	summary := agg.Summary()
	PrintSummary(os.Stdout, r.config.NativeSymbol, summary)

	exporter := export.NewResultExporter(r.logger.Logger)
	path, err := exporter.ExportResults(agg.Results(), summary, export.Options{
		Format:    export.Format(r.config.ExportFormat),
		OutputDir: r.config.ExportDir,
	})
	if err != nil {
		r.logger.Warn("Result export skipped", zap.Error(err))
	} else {
		r.logger.Info("📄 Run results written", zap.String("file", path))
	}

	return nil
}

// resolveTokens reads on-chain metadata for every configured token.
func (r *Runner) resolveTokens(ctx context.Context, client chain.Client) ([]token.Token, error) {
	addresses := make([]common.Address, 0, len(r.config.Tokens))
	for _, raw := range r.config.Tokens {
		addresses = append(addresses, common.HexToAddress(raw))
	}

	repo := token.NewRepository(token.NewChainResolver(client), addresses, r.logger.Logger)
	if err := repo.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("token metadata refresh failed: %w", err)
	}
	tokens := repo.List()
	for _, t := range tokens {
		r.logger.Info("🪙 Token ready",
			zap.String("symbol", t.Symbol),
			zap.String("address", t.Address.Hex()),
			zap.Uint8("decimals", t.Decimals))
	}
	return tokens, nil
}

// logStartingBalances prints each wallet's native and token balances so
// the operator can sanity-check funding before the first swap.
func (r *Runner) logStartingBalances(ctx context.Context, exec *dex.Executor, wallets []*wallet.Wallet, tokens []token.Token) {
	for _, w := range wallets {
		fields := []zap.Field{zap.String("wallet", w.Name())}

		native, err := exec.NativeBalance(ctx, w.Address())
		if err != nil {
			r.logger.Warn("Balance check failed",
				zap.String("wallet", w.Name()), zap.Error(err))
			continue
		}
		fields = append(fields, zap.Float64(r.config.NativeSymbol, native))

		for _, t := range tokens {
			if balance, err := exec.TokenBalance(ctx, t, w.Address()); err == nil {
				fields = append(fields, zap.Float64(t.Symbol, balance))
			}
		}
		r.logger.Info("💰 Wallet balance", fields...)
	}
}

// Shutdown flushes the logger; called on exit.
func (r *Runner) Shutdown() {
	r.logger.Info("👋 Bot shutting down gracefully")

	if err := r.logger.Sync(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
