package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/bot"
	"github.com/bebbyilham/monad-ambient-cli/internal/config"
	"github.com/bebbyilham/monad-ambient-cli/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Optional .env for RPC overrides; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	if cfg.LogFile != "" {
		logCfg.LogFile = cfg.LogFile
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}

	log.Info("🚀 Starting swap activity bot",
		zap.String("config", *configPath),
		zap.Int64("chain_id", cfg.ChainID))

	runner := bot.NewRunner(cfg, log)
	defer runner.Shutdown()

	if err := runner.Run(context.Background()); err != nil {
		log.Error("Run failed", zap.Error(err))
		runner.Shutdown()
		os.Exit(1)
	}
}
