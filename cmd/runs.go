package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/benefits-etl/internal/runlog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return eris.Wrap(err, "open run history")
		}
		defer log.Close()
		if err := log.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "migrate run history")
		}

		entries, err := log.List(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s  %s  started=%s valid=%d errors=%d",
				e.ID, e.Status, e.StartedAt.Format("2006-01-02 15:04:05"), e.ValidRows, e.ErrorRows)
			if e.Error != "" {
				line += "  error=" + e.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
