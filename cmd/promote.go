package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/content-gate/internal/model"
)

var (
	promoteArtifact string
	promoteVersion  string
	promoteQuality  float64
	promoteFeedback float64
	promoteSegment  string
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Ask the gate to promote an artifact version",
	Long:  "Runs the cooldown, quality, stability and combined-score gates and records the attempt. Rejections are reported in the output, not as errors.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("promote"); err != nil {
			return err
		}
		env, err := initGate(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		decision, err := env.Gate.Evaluate(cmd.Context(), model.PromotionRequest{
			ArtifactID:    promoteArtifact,
			Version:       promoteVersion,
			QualityScore:  promoteQuality,
			FeedbackScore: promoteFeedback,
			Timestamp:     time.Now().UTC(),
			Segment:       promoteSegment,
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), decision)
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteArtifact, "artifact", "", "artifact ID")
	promoteCmd.Flags().StringVar(&promoteVersion, "version", "", "artifact version")
	promoteCmd.Flags().Float64Var(&promoteQuality, "quality", 0, "quality score in [0,1]")
	promoteCmd.Flags().Float64Var(&promoteFeedback, "feedback", 0, "feedback score in [0,1]")
	promoteCmd.Flags().StringVar(&promoteSegment, "segment", "", "audience segment")
	_ = promoteCmd.MarkFlagRequired("artifact")
	rootCmd.AddCommand(promoteCmd)
}
