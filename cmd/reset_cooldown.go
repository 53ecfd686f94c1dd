package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCooldownCmd = &cobra.Command{
	Use:   "reset-cooldown <artifact-id>",
	Short: "Clear the promotion cooldown for an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("reset-cooldown"); err != nil {
			return err
		}
		env, err := initGate(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Gate.ResetCooldown(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cooldown reset for %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCooldownCmd)
}
