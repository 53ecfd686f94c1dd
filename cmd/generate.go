package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/content-gate/internal/orchestrator"
)

var (
	generateTarget     targetFlags
	generatePrompt     string
	generatePromptFile string
	generateMaxRetries int
	generateBatchFile  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a story and retry until it passes the quality checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("generate"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEngines()
		if err != nil {
			return err
		}
		orch := initOrchestrator(e)

		maxRetries := generateMaxRetries
		if !cmd.Flags().Changed("max-retries") {
			maxRetries = cfg.Retry.MaxRetries
		}

		if generateBatchFile != "" {
			jobs, err := loadJobs(generateBatchFile, maxRetries)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), batchOutput(orch.RunBatch(ctx, jobs, cfg.Batch.Concurrency)))
		}

		prompt, err := resolvePrompt(generatePrompt, generatePromptFile)
		if err != nil {
			return err
		}
		out, err := orch.Run(ctx, prompt, generateTarget.spec(), maxRetries)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

// resolvePrompt takes the prompt from the flag or, failing that, a file.
func resolvePrompt(prompt, file string) (string, error) {
	if prompt != "" {
		return prompt, nil
	}
	if file == "" {
		return "", eris.New("generate: --prompt or --prompt-file is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", eris.Wrapf(err, "generate: read %s", file)
	}
	return string(data), nil
}

type batchLine struct {
	ID      string `json:"id"`
	Outcome any    `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

func batchOutput(results []orchestrator.BatchResult) []batchLine {
	out := make([]batchLine, len(results))
	for i, r := range results {
		out[i].ID = r.ID
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		out[i].Outcome = r.Outcome
	}
	return out
}

func init() {
	generateTarget.register(generateCmd)
	generateCmd.Flags().StringVar(&generatePrompt, "prompt", "", "generation prompt")
	generateCmd.Flags().StringVar(&generatePromptFile, "prompt-file", "", "read the prompt from a file")
	generateCmd.Flags().IntVar(&generateMaxRetries, "max-retries", 3, "retries after the first attempt (default from config)")
	generateCmd.Flags().StringVar(&generateBatchFile, "batch", "", "YAML file of jobs to run in parallel")
	rootCmd.AddCommand(generateCmd)
}
