package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/benefits-etl/internal/enrich"
	"github.com/sells-group/benefits-etl/internal/locate"
	"github.com/sells-group/benefits-etl/internal/lookup"
	"github.com/sells-group/benefits-etl/internal/model"
	"github.com/sells-group/benefits-etl/internal/pipeline"
	"github.com/sells-group/benefits-etl/internal/resilience"
	"github.com/sells-group/benefits-etl/internal/runlog"
	"github.com/sells-group/benefits-etl/internal/sink"
	"github.com/sells-group/benefits-etl/internal/source"
	"github.com/sells-group/benefits-etl/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one incremental pass over all feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		finder := locate.NewFinder(cfg.Data.Roots)

		table, err := lookup.Load(finder)
		if err != nil {
			return eris.Wrap(err, "load company lookup")
		}

		template, err := enrich.LoadTemplate(finder)
		if err != nil {
			return eris.Wrap(err, "load enrichment template")
		}

		opts := []enrich.Option{
			enrich.WithRetry(resilience.RetryConfig{
				MaxAttempts:    cfg.Enrich.MaxAttempts,
				InitialBackoff: cfg.Enrich.InitialBackoff(),
				MaxBackoff:     cfg.Enrich.MaxBackoff(),
			}),
		}
		if cfg.Enrich.RatePerSec > 0 {
			opts = append(opts, enrich.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Enrich.RatePerSec), cfg.Enrich.RateBurst)))
		}
		enricher := enrich.NewEnricher(template, opts...)

		writer, err := sink.NewWriter(cfg.Data.OutputDir)
		if err != nil {
			return err
		}

		var runLog *runlog.Log
		if cfg.RunLog.Enabled {
			runLog, err = runlog.Open(cfg.RunLog.Path)
			if err != nil {
				zap.L().Warn("run history unavailable", zap.Error(err))
			} else {
				defer runLog.Close()
				if err := runLog.Migrate(ctx); err != nil {
					zap.L().Warn("run history migration failed", zap.Error(err))
					runLog.Close()
					runLog = nil
				}
			}
		}

		p := pipeline.New(
			cfg,
			source.NewReader(finder),
			table,
			enricher,
			state.NewStore(filepath.Join(cfg.Data.OutputDir, state.DefaultFile)),
			writer,
			runLog,
			source.Registry(),
		)

		report, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		for _, sum := range report.Sources {
			printSummary(sum)
		}
		fmt.Printf("Validation errors written to: %s\n", report.ReportPath)
		fmt.Printf("Clean data written to: %s\n", report.CleanPath)
		fmt.Printf("State saved to: %s\n", report.StatePath)
		return nil
	},
}

func printSummary(sum model.SourceSummary) {
	highWater := "none"
	if sum.NewHighWater != nil {
		highWater = model.FormatTime(*sum.NewHighWater)
	}
	dateCol := sum.DateColumn
	if dateCol == "" {
		dateCol = "none"
	}
	fmt.Printf("%s: input=%d processed=%d valid=%d date_col=%s new_high_water=%s\n",
		sum.Source, sum.InputRows, sum.ProcessedRows, sum.ValidRows, dateCol, highWater)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
