package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"Chordbook/config"
	"Chordbook/logger"
	"Chordbook/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chordbook_server",
	Short: "Chordbook serves chord charts grouped by song section.",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger 按配置初始化全局 zap logger
func initLogger(cfg *config.Config) error {
	return logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
}

func runServer() {
	cfg := config.Load()
	if err := initLogger(cfg); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Chordbook server...", logger.String("addr", cfg.ServerAddr))
	if err := server.Start(context.Background(), cfg); err != nil {
		logger.Fatal("Server exited with error", logger.ErrorField(err))
	}
}
