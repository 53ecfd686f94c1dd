package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/content-gate/internal/model"
)

var statsHistory bool

type statsOutput struct {
	Stats   model.PromotionStats    `json:"stats"`
	Records []model.PromotionRecord `json:"records,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats <artifact-id>",
	Short: "Show promotion statistics for an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("stats"); err != nil {
			return err
		}
		env, err := initGate(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Gate.Stats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := statsOutput{Stats: stats}
		if statsHistory {
			out.Records, err = env.Gate.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsHistory, "history", false, "include every recorded attempt")
	rootCmd.AddCommand(statsCmd)
}
