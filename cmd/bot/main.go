// cmd/bot/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/bot"
	"github.com/Giovannithea/BOT-V8.2/internal/config"
	"github.com/Giovannithea/BOT-V8.2/internal/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.InitLogger(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting sniper bot")

	ctx := context.Background()
	runner, err := bot.NewRunner(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize bot", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		logger.Fatal("Bot execution error", zap.Error(err))
	}
}
