package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/visionprobe/probe-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "probe-cli",
	Short: "Product analysis pipeline",
	Long:  "Identifies a product from a photo or page URLs, then analyzes knowledge, use cases, impact, recommendations, and purchase options through staged Claude calls.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
