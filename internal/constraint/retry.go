package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/content-gate/internal/model"
)

// Instruction priorities by source.
const (
	priorityConstraint = 4
	priorityComplexity = 3
	priorityHighIssue  = 3
	priorityIssue      = 2
)

// RetryHeader opens the instruction block appended to a retry prompt.
const RetryHeader = "\n\n=== RETRY INSTRUCTIONS ===\n"

// ShouldRetry escalates on severity and on volume: any critical violation,
// two or more high violations, a high issue deviating by more than 50%, or
// three or more findings in total. A single minor finding never triggers a
// retry.
func ShouldRetry(violations []model.ConstraintViolation, issues []model.QualityIssue) bool {
	high := 0
	for _, v := range violations {
		switch v.Severity {
		case model.SeverityCritical:
			return true
		case model.SeverityHigh:
			high++
		}
	}
	if high >= 2 {
		return true
	}
	for _, i := range issues {
		if i.Severity == model.SeverityHigh && i.DeviationPercent > escalationDeviation {
			return true
		}
	}
	return len(violations)+len(issues) >= 3
}

// BuildRetryInstructions turns findings into directives sorted by priority,
// highest first. Equal priorities keep their insertion order.
func BuildRetryInstructions(violations []model.ConstraintViolation, issues []model.QualityIssue) []model.RetryInstruction {
	out := []model.RetryInstruction{}

	var severe []model.ConstraintViolation
	complexity := false
	for _, v := range violations {
		if v.Severity >= model.SeverityHigh {
			severe = append(severe, v)
		}
		if v.Type == model.ViolationComplexity {
			complexity = true
		}
	}
	if len(severe) > 0 {
		out = append(out, model.RetryInstruction{
			Reason:          "Constraint violations",
			AdjustmentType:  model.AdjustConstraint,
			InstructionText: constraintInstruction(severe),
			Priority:        priorityConstraint,
		})
	}
	if complexity {
		out = append(out, model.RetryInstruction{
			Reason:          "Language too complex",
			AdjustmentType:  model.AdjustPrompt,
			InstructionText: "Simplify language and structure for the audience. Use shorter sentences and simpler concepts.",
			Priority:        priorityComplexity,
		})
	}

	for _, i := range issues {
		if i.Severity < model.SeverityMedium {
			continue
		}
		priority := priorityIssue
		if i.Severity >= model.SeverityHigh {
			priority = priorityHighIssue
		}
		adjustment, text := issueInstruction(i)
		out = append(out, model.RetryInstruction{
			Reason:          i.Description,
			AdjustmentType:  adjustment,
			InstructionText: text,
			Priority:        clampPriority(priority),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Priority > out[b].Priority
	})
	return out
}

func constraintInstruction(violations []model.ConstraintViolation) string {
	var b strings.Builder
	b.WriteString("Remove or replace problematic content:\n")
	for _, v := range violations {
		fmt.Fprintf(&b, "- %s: '%s'\n", v.Description, v.MatchedText)
	}
	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Use age-appropriate alternatives\n")
	b.WriteString("- Focus on positive, constructive messages")
	return b.String()
}

func issueInstruction(i model.QualityIssue) (model.AdjustmentType, string) {
	switch i.Type {
	case model.IssueWordCountTooLow:
		return model.AdjustPrompt, fmt.Sprintf("Expand the story to at least %.0f words. Add more detail, dialogue and description.", i.TargetValue)
	case model.IssueWordCountTooHigh:
		return model.AdjustTarget, fmt.Sprintf("Shorten the story to at most %.0f words.", i.TargetValue)
	case model.IssueEmotionalContentLow:
		return model.AdjustPrompt, "Deepen the emotional content. Use more emotionally charged words and build closer bonds between characters."
	case model.IssueDialogueRatioTooLow:
		return model.AdjustPrompt, "Raise the share of dialogue. Add more conversations between characters."
	case model.IssueSentenceLengthHigh:
		return model.AdjustPrompt, "Use shorter, clearer sentences. Split long sentences into several."
	case model.IssueParagraphCountLow:
		return model.AdjustPrompt, fmt.Sprintf("Break the story into at least %.0f paragraphs.", i.TargetValue)
	default:
		return model.AdjustPrompt, "Improve: " + i.Description
	}
}

func clampPriority(p int) int {
	if p < model.MinPriority {
		return model.MinPriority
	}
	if p > model.MaxPriority {
		return model.MaxPriority
	}
	return p
}

// ApplyInstructions appends the instruction block to prompt. With no
// instructions the prompt is returned unchanged.
func ApplyInstructions(prompt string, instructions []model.RetryInstruction) string {
	if len(instructions) == 0 {
		return prompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString(RetryHeader)
	for _, in := range instructions {
		fmt.Fprintf(&b, "\n%s:\n%s\n", in.Reason, in.InstructionText)
	}
	return b.String()
}
