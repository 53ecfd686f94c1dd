package model

import (
	"time"
)

// Supported languages.
const (
	LanguageGerman  = "de"
	LanguageEnglish = "en"
)

// TargetSpec describes what a generated text should look like.
type TargetSpec struct {
	WordCount  int    `json:"wordCount"`
	EmotionTag string `json:"emotionTag,omitempty"`
	Audience   string `json:"audience"`
	Language   string `json:"language,omitempty"`
}

// Validate checks the target for obviously malformed values.
func (t TargetSpec) Validate() error {
	if t.WordCount < 0 {
		return InvalidInput("target: word count must be >= 0, got %d", t.WordCount)
	}
	if t.Audience == "" {
		return InvalidInput("target: audience is required")
	}
	return nil
}

// GenerationAttempt is one iteration of the retry loop.
type GenerationAttempt struct {
	AttemptNumber     int                   `json:"attemptNumber"`
	Prompt            string                `json:"-"`
	Text              string                `json:"text"`
	Score             *QualityScore         `json:"score,omitempty"`
	Violations        []ConstraintViolation `json:"violations"`
	Issues            []QualityIssue        `json:"issues"`
	RetryInstructions []RetryInstruction    `json:"retryInstructions"`
	RetryNeeded       bool                  `json:"retryNeeded"`
	Error             string                `json:"error,omitempty"`
	ErrorClass        string                `json:"errorClass,omitempty"`
	Duration          time.Duration         `json:"durationNs"`
}

// Failed reports whether the generation call itself failed.
func (a GenerationAttempt) Failed() bool {
	return a.Error != ""
}

// GenerationOutcome is the result of one orchestrator run.
type GenerationOutcome struct {
	Success    bool                `json:"success"`
	FinalText  string              `json:"finalText"`
	Attempts   []GenerationAttempt `json:"attempts"`
	FinalScore *QualityScore       `json:"finalScore,omitempty"`
	Exhausted  bool                `json:"exhausted"`
	Error      string              `json:"error,omitempty"`
}

// GenerationCalls returns the number of attempts made.
func (o GenerationOutcome) GenerationCalls() int {
	return len(o.Attempts)
}
