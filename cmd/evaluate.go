package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/scorer"
)

var (
	evaluateTarget  targetFlags
	evaluateEnglish string
)

// fileScore is one line of evaluate output.
type fileScore struct {
	File  string              `json:"file"`
	Score *model.QualityScore `json:"score,omitempty"`
	Error string              `json:"error,omitempty"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>...",
	Short: "Score one or more story files",
	Long:  "Scores each file against the target spec. With --english, scores a German/English pair and their consistency.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}
		spec := evaluateTarget.spec()
		if err := spec.Validate(); err != nil {
			return err
		}
		e, err := initEngines()
		if err != nil {
			return err
		}

		if evaluateEnglish != "" {
			if len(args) != 1 {
				return eris.New("evaluate: --english takes exactly one German file")
			}
			return evaluateBilingual(cmd, e.Scorer, args[0], evaluateEnglish, spec)
		}

		results := evaluateFiles(cmd, e.Scorer, args, spec, cfg.Batch.Concurrency)
		return writeJSON(cmd.OutOrStdout(), results)
	},
}

// evaluateFiles scores files in parallel. Unreadable files are reported
// in place and never stop the others.
func evaluateFiles(cmd *cobra.Command, sc *scorer.Engine, files []string, spec model.TargetSpec, concurrency int) []fileScore {
	results := make([]fileScore, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for i, f := range files {
		g.Go(func() error {
			results[i].File = f
			if ctx.Err() != nil {
				results[i].Error = ctx.Err().Error()
				return nil
			}
			data, err := os.ReadFile(f)
			if err != nil {
				zap.L().Warn("evaluate: read file", zap.String("file", f), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			score := sc.Evaluate(string(data), spec)
			results[i].Score = &score
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func evaluateBilingual(cmd *cobra.Command, sc *scorer.Engine, germanFile, englishFile string, spec model.TargetSpec) error {
	german, err := os.ReadFile(germanFile)
	if err != nil {
		return eris.Wrapf(err, "evaluate: read %s", germanFile)
	}
	english, err := os.ReadFile(englishFile)
	if err != nil {
		return eris.Wrapf(err, "evaluate: read %s", englishFile)
	}
	return writeJSON(cmd.OutOrStdout(), sc.EvaluateBilingual(string(german), string(english), spec))
}

func init() {
	evaluateTarget.register(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateEnglish, "english", "", "English counterpart for a bilingual evaluation")
	rootCmd.AddCommand(evaluateCmd)
}
