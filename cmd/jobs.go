package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/orchestrator"
	"github.com/sells-group/content-gate/internal/policy"
)

// jobFile is the YAML layout accepted by generate --batch:
//
//	jobs:
//	  - id: fox
//	    prompt: Write a story about a fox.
//	    words: 300
//	    audience: early_reader
//	    emotion: wonder
type jobFile struct {
	Jobs []struct {
		ID         string `yaml:"id"`
		Prompt     string `yaml:"prompt"`
		Words      int    `yaml:"words"`
		Audience   string `yaml:"audience"`
		Emotion    string `yaml:"emotion"`
		Language   string `yaml:"language"`
		MaxRetries *int   `yaml:"max_retries"`
	} `yaml:"jobs"`
}

// loadJobs parses a batch file. Jobs without max_retries use defaultRetries.
func loadJobs(path string, defaultRetries int) ([]orchestrator.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "generate: read batch file %s", path)
	}
	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "generate: parse batch file %s", path)
	}
	if len(f.Jobs) == 0 {
		return nil, model.InvalidInput("generate: batch file %s has no jobs", path)
	}

	jobs := make([]orchestrator.Job, 0, len(f.Jobs))
	for i, j := range f.Jobs {
		id := j.ID
		if id == "" {
			id = fmt.Sprintf("job-%d", i+1)
		}
		audience := j.Audience
		if audience == "" {
			audience = policy.EarlyReader
		}
		language := j.Language
		if language == "" {
			language = model.LanguageGerman
		}
		retries := defaultRetries
		if j.MaxRetries != nil {
			retries = *j.MaxRetries
		}
		jobs = append(jobs, orchestrator.Job{
			ID:     id,
			Prompt: j.Prompt,
			Target: model.TargetSpec{
				WordCount:  j.Words,
				EmotionTag: j.Emotion,
				Audience:   audience,
				Language:   language,
			},
			MaxRetries: retries,
		})
	}
	return jobs, nil
}
