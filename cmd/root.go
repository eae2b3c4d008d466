package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "captiond",
	Short: "Consensus caption extraction engine",
	Long:  "Extracts event facts (date, time, venue, price, signup URL) from bilingual nightlife captions by reconciling a self-improving regex rule engine with a Claude oracle.",
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
