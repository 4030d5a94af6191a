package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/benefits-etl/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "benefits-etl",
	Short: "Incremental benefits feed resolution and enrichment pipeline",
	Long:  "Ingests employee, plan, and claim feeds, admits only rows newer than each source's watermark, normalizes and validates identifying fields, resolves canonical EINs, attaches organization metadata, and emits a merged clean dataset plus a validation report.",
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
