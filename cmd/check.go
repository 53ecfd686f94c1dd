package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/content-gate/internal/policy"
)

var checkAudience string

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Check a story against the audience constraints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("check"); err != nil {
			return err
		}
		e, err := initEngines()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "check: read %s", args[0])
		}
		return writeJSON(cmd.OutOrStdout(), e.Constraints.Validate(string(data), checkAudience))
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkAudience, "audience", policy.EarlyReader, "target audience")
	rootCmd.AddCommand(checkCmd)
}
