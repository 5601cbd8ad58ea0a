package main

import (
	"fmt"
	"os"

	"watchlist-sentinel/internal/cli"
	"watchlist-sentinel/internal/config"
	"watchlist-sentinel/internal/logging"
)

func main() {
	configDir := os.Getenv("SENTINEL_CONFIG_DIR")

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
