package model

// ConstraintViolation is one policy match found in a text.
type ConstraintViolation struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	MatchedText string   `json:"matchedText"`
	LineNumber  int      `json:"lineNumber,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// Quality issue types.
const (
	IssueWordCountTooLow     = "word_count_too_low"
	IssueWordCountTooHigh    = "word_count_too_high"
	IssueSentenceLengthHigh  = "sentence_length_too_high"
	IssueParagraphCountLow   = "paragraph_count_too_low"
	IssueEmotionalContentLow = "emotional_content_too_low"
	IssueDialogueRatioTooLow = "dialogue_ratio_too_low"
	ViolationComplexity      = "complexity"
)

// QualityIssue is a measured text statistic that breaches an audience threshold.
type QualityIssue struct {
	Type             string   `json:"type"`
	Severity         Severity `json:"severity"`
	Description      string   `json:"description"`
	CurrentValue     float64  `json:"currentValue"`
	TargetValue      float64  `json:"targetValue"`
	DeviationPercent float64  `json:"deviationPercent"`
}

// AdjustmentType classifies how a retry instruction changes the next request.
type AdjustmentType string

const (
	AdjustPrompt     AdjustmentType = "promptModification"
	AdjustConstraint AdjustmentType = "constraintRelaxation"
	AdjustTarget     AdjustmentType = "targetAdjustment"
)

// Instruction priorities.
const (
	MinPriority = 1
	MaxPriority = 5
)

// RetryInstruction is a ranked directive appended to a regeneration prompt.
type RetryInstruction struct {
	Reason          string         `json:"reason"`
	AdjustmentType  AdjustmentType `json:"adjustmentType"`
	InstructionText string         `json:"instructionText"`
	Priority        int            `json:"priority"`
}

// ValidationReport bundles a full constraint pass over one text.
type ValidationReport struct {
	Valid             bool                  `json:"valid"`
	Violations        []ConstraintViolation `json:"violations"`
	Issues            []QualityIssue        `json:"issues"`
	RetryNeeded       bool                  `json:"retryNeeded"`
	RetryInstructions []RetryInstruction    `json:"retryInstructions"`
	HealthScore       float64               `json:"healthScore"`
}
