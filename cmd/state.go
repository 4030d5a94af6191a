package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/benefits-etl/internal/model"
	"github.com/sells-group/benefits-etl/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the persisted per-source watermarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(filepath.Join(cfg.Data.OutputDir, state.DefaultFile))
		st, status := store.Load()

		highWater := make(map[string]string)
		for _, src := range st.Sources() {
			if t, ok := st.HighWater(src); ok {
				highWater[src] = model.FormatTime(t)
			}
		}

		out, err := json.MarshalIndent(map[string]any{
			"status":     status.String(),
			"high_water": highWater,
		}, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal state")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
