// Package config loads and validates the bot configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Mode selects what the scheduler does each wallet turn.
const (
	ModeAuto         = "auto"
	ModeSwapOut      = "swap_out"
	ModeSwapIn       = "swap_in"
	ModeRoundtrip    = "roundtrip"
	ModeAddLiquidity = "add_liquidity"
)

// Config is the full application configuration.
type Config struct {
	RPCURL        string   `mapstructure:"rpc_url"`
	ChainID       int64    `mapstructure:"chain_id"`
	RouterAddress string   `mapstructure:"router_address"`
	WrappedNative string   `mapstructure:"wrapped_native"`
	NativeSymbol  string   `mapstructure:"native_symbol"`
	Tokens        []string `mapstructure:"tokens"`
	WalletsFile   string   `mapstructure:"wallets_file"`
	ActiveWallets []string `mapstructure:"active_wallets"`
	DebugLogging  bool     `mapstructure:"debug_logging"`
	LogFile       string   `mapstructure:"log_file"`
	ExportDir     string   `mapstructure:"export_dir"`
	ExportFormat  string   `mapstructure:"export_format"`
	Schedule      Schedule `mapstructure:"schedule"`
}

// Schedule configures the run: strategy, amount policy and pacing.
type Schedule struct {
	Mode             string  `mapstructure:"mode"`
	Rounds           int     `mapstructure:"rounds"`
	DynamicAmount    bool    `mapstructure:"dynamic_amount"`
	FixedAmount      float64 `mapstructure:"fixed_amount"`
	MinAmount        float64 `mapstructure:"min_amount"`
	MaxAmount        float64 `mapstructure:"max_amount"`
	BalanceFraction  float64 `mapstructure:"balance_fraction"`
	SlippageBps      int64   `mapstructure:"slippage_bps"`
	RoundtripRepeats int     `mapstructure:"roundtrip_repeats"`
	SwapInPortion    float64 `mapstructure:"swap_in_portion"`
	WalletDelayMinMs int     `mapstructure:"wallet_delay_min_ms"`
	WalletDelayMaxMs int     `mapstructure:"wallet_delay_max_ms"`
	RoundDelayMinMs  int     `mapstructure:"round_delay_min_ms"`
	RoundDelayMaxMs  int     `mapstructure:"round_delay_max_ms"`
}

const (
	DefaultNativeSymbol    = "MON"
	DefaultWalletsFile     = "configs/wallets.yaml"
	DefaultExportDir       = "exports"
	DefaultExportFormat    = "csv"
	DefaultRounds          = 1
	DefaultBalanceFraction = 0.8
	DefaultSlippageBps     = 100
	DefaultSwapInPortion   = 0.9
	DefaultWalletDelayMin  = 2_000
	DefaultWalletDelayMax  = 8_000
	DefaultRoundDelayMin   = 15_000
	DefaultRoundDelayMax   = 60_000
)

// LoadConfig reads and validates the configuration file. Environment
// variables prefixed MONAD_BOT_ override file values for the RPC URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"native_symbol":                DefaultNativeSymbol,
		"wallets_file":                 DefaultWalletsFile,
		"export_dir":                   DefaultExportDir,
		"export_format":                DefaultExportFormat,
		"schedule.mode":                ModeAuto,
		"schedule.rounds":              DefaultRounds,
		"schedule.dynamic_amount":      true,
		"schedule.balance_fraction":    DefaultBalanceFraction,
		"schedule.slippage_bps":        DefaultSlippageBps,
		"schedule.roundtrip_repeats":   1,
		"schedule.swap_in_portion":     DefaultSwapInPortion,
		"schedule.wallet_delay_min_ms": DefaultWalletDelayMin,
		"schedule.wallet_delay_max_ms": DefaultWalletDelayMax,
		"schedule.round_delay_min_ms":  DefaultRoundDelayMin,
		"schedule.round_delay_max_ms":  DefaultRoundDelayMax,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, Validate(&cfg)
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("MONAD_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envRPC := v.GetString("RPC_URL"); envRPC != "" {
		cfg.RPCURL = envRPC
	}
}

// Validate checks the configuration before any scheduling begins; errors
// here are the only run-terminating configuration failures.
func Validate(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	parsed, err := url.Parse(cfg.RPCURL)
	if err != nil || !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("rpc_url must be an HTTP(S) URL")
	}
	if cfg.ChainID <= 0 {
		return errors.New("chain_id must be positive")
	}
	if !common.IsHexAddress(cfg.RouterAddress) {
		return errors.New("router_address is not a valid address")
	}
	if !common.IsHexAddress(cfg.WrappedNative) {
		return errors.New("wrapped_native is not a valid address")
	}
	if len(cfg.Tokens) == 0 {
		return errors.New("tokens list is empty")
	}
	for _, t := range cfg.Tokens {
		if !common.IsHexAddress(t) {
			return fmt.Errorf("invalid token address: %s", t)
		}
	}
	switch cfg.ExportFormat {
	case "csv", "json":
	default:
		return fmt.Errorf("unsupported export_format: %s", cfg.ExportFormat)
	}
	return validateSchedule(&cfg.Schedule)
}

func validateSchedule(s *Schedule) error {
	switch s.Mode {
	case ModeAuto, ModeSwapOut, ModeSwapIn, ModeRoundtrip, ModeAddLiquidity:
	default:
		return fmt.Errorf("unsupported schedule mode: %s", s.Mode)
	}
	if s.Rounds <= 0 {
		return errors.New("schedule rounds must be positive")
	}
	if s.SlippageBps < 0 || s.SlippageBps > 10_000 {
		return errors.New("slippage_bps must be in [0, 10000]")
	}
	if s.BalanceFraction <= 0 || s.BalanceFraction > 1 {
		return errors.New("balance_fraction must be in (0, 1]")
	}
	if s.SwapInPortion <= 0 || s.SwapInPortion > 1 {
		return errors.New("swap_in_portion must be in (0, 1]")
	}
	if s.RoundtripRepeats < 1 {
		return errors.New("roundtrip_repeats must be at least 1")
	}
	if s.DynamicAmount {
		if s.MinAmount <= 0 || s.MaxAmount <= 0 {
			return errors.New("dynamic amount bounds must be positive")
		}
		if s.MinAmount > s.MaxAmount {
			return errors.New("min_amount cannot exceed max_amount")
		}
	} else if s.FixedAmount <= 0 {
		return errors.New("fixed_amount is required when dynamic_amount is off")
	}
	if s.WalletDelayMinMs < 0 || s.WalletDelayMaxMs < s.WalletDelayMinMs {
		return errors.New("invalid wallet delay bounds")
	}
	if s.RoundDelayMinMs < 0 || s.RoundDelayMaxMs < s.RoundDelayMinMs {
		return errors.New("invalid round delay bounds")
	}
	return nil
}

// WalletDelayBounds returns the inter-wallet sleep interval.
func (s *Schedule) WalletDelayBounds() (time.Duration, time.Duration) {
	return time.Duration(s.WalletDelayMinMs) * time.Millisecond,
		time.Duration(s.WalletDelayMaxMs) * time.Millisecond
}

// RoundDelayBounds returns the inter-round sleep interval.
func (s *Schedule) RoundDelayBounds() (time.Duration, time.Duration) {
	return time.Duration(s.RoundDelayMinMs) * time.Millisecond,
		time.Duration(s.RoundDelayMaxMs) * time.Millisecond
}
