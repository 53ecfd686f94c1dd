package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/policy"
)

// targetFlags are the TargetSpec flags shared by evaluate and generate.
type targetFlags struct {
	words    int
	audience string
	emotion  string
	language string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.words, "words", 0, "target word count")
	cmd.Flags().StringVar(&f.audience, "audience", policy.EarlyReader, "target audience")
	cmd.Flags().StringVar(&f.emotion, "emotion", "", "target emotion tag (wonder, joy, courage, friendship, growth)")
	cmd.Flags().StringVar(&f.language, "language", model.LanguageGerman, "text language (de or en)")
}

func (f *targetFlags) spec() model.TargetSpec {
	return model.TargetSpec{
		WordCount:  f.words,
		EmotionTag: f.emotion,
		Audience:   f.audience,
		Language:   f.language,
	}
}
