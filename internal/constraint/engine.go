// Package constraint detects policy violations and measurable quality
// deficiencies in generated text and turns them into ranked retry
// instructions.
package constraint

import (
	"fmt"

	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/policy"
	"github.com/sells-group/content-gate/internal/textstats"
)

const (
	matchConfidence      = 0.9
	complexityConfidence = 0.8

	// escalationDeviation is the deviation percent above which an issue
	// takes its escalated severity.
	escalationDeviation = 50.0
)

// issueSeverities maps each issue type to its base and escalated severity.
var issueSeverities = map[string][2]model.Severity{
	model.IssueWordCountTooLow:     {model.SeverityMedium, model.SeverityHigh},
	model.IssueWordCountTooHigh:    {model.SeverityMedium, model.SeverityHigh},
	model.IssueSentenceLengthHigh:  {model.SeverityLow, model.SeverityMedium},
	model.IssueParagraphCountLow:   {model.SeverityLow, model.SeverityMedium},
	model.IssueEmotionalContentLow: {model.SeverityMedium, model.SeverityHigh},
	model.IssueDialogueRatioTooLow: {model.SeverityLow, model.SeverityMedium},
}

// SeverityFor returns the severity of an issue of the given type at the
// given deviation. It never decreases as deviation grows.
func SeverityFor(issueType string, deviationPercent float64) model.Severity {
	s, ok := issueSeverities[issueType]
	if !ok {
		s = [2]model.Severity{model.SeverityLow, model.SeverityMedium}
	}
	if deviationPercent > escalationDeviation {
		return s[1]
	}
	return s[0]
}

// Engine checks text against the live policy. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	live *policy.Live
}

// NewEngine creates an Engine over the live policy.
func NewEngine(live *policy.Live) *Engine {
	return &Engine{live: live}
}

// CheckConstraints returns every rule match for the audience in rule,
// pattern and position order, plus a complexity violation when the
// audience table asks for it.
func (e *Engine) CheckConstraints(text, audience string) []model.ConstraintViolation {
	snap := e.live.Current()
	name, table := snap.Policy.Resolve(audience)

	violations := []model.ConstraintViolation{}
	for _, rule := range snap.Rules {
		if !rule.AppliesTo(name) {
			continue
		}
		for _, re := range rule.Regexps {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				match := text[loc[0]:loc[1]]
				violations = append(violations, model.ConstraintViolation{
					Type:        rule.Category,
					Severity:    rule.SeverityFor(match),
					Description: rule.Description,
					MatchedText: match,
					LineNumber:  textstats.LineNumber(text, loc[0]),
					Confidence:  matchConfidence,
				})
			}
		}
	}

	if table.CheckComplexity {
		c := snap.Policy.Complexity
		if n := textstats.LongWords(text, c.MinRunes); n > c.MaxLongWords {
			violations = append(violations, model.ConstraintViolation{
				Type:        model.ViolationComplexity,
				Severity:    model.SeverityMedium,
				Description: "too many complex words for the audience",
				MatchedText: fmt.Sprintf("%d complex words found", n),
				Confidence:  complexityConfidence,
			})
		}
	}
	return violations
}

// CheckQualityIssues compares text statistics against the audience
// thresholds and reports each breach with its deviation.
func (e *Engine) CheckQualityIssues(text, audience string) []model.QualityIssue {
	p := e.live.Current().Policy
	_, t := p.Resolve(audience)

	issues := []model.QualityIssue{}
	words := textstats.WordCount(text)

	if w := t.WordCount; w.Min > 0 && words < w.Min {
		issues = append(issues, below(model.IssueWordCountTooLow,
			fmt.Sprintf("text too short: %d words (minimum %d)", words, w.Min),
			float64(words), float64(w.Min)))
	} else if w.Max > 0 && words > w.Max {
		issues = append(issues, above(model.IssueWordCountTooHigh,
			fmt.Sprintf("text too long: %d words (maximum %d)", words, w.Max),
			float64(words), float64(w.Max)))
	}

	if avg := textstats.MeanSentenceLength(text); t.SentenceLength.Max > 0 && avg > t.SentenceLength.Max {
		issues = append(issues, above(model.IssueSentenceLengthHigh,
			fmt.Sprintf("mean sentence length too high: %.1f words (maximum %.0f)", avg, t.SentenceLength.Max),
			avg, t.SentenceLength.Max))
	}

	if n := len(textstats.Paragraphs(text)); t.MinParagraphs > 0 && n < t.MinParagraphs {
		issues = append(issues, below(model.IssueParagraphCountLow,
			fmt.Sprintf("too few paragraphs: %d (minimum %d)", n, t.MinParagraphs),
			float64(n), float64(t.MinParagraphs)))
	}

	if t.MinEmotionRatio > 0 {
		ratio := float64(textstats.CountLetterTokens(text, p.EmotionalWords)) / float64(max(words, 1))
		if ratio < t.MinEmotionRatio {
			issues = append(issues, below(model.IssueEmotionalContentLow,
				fmt.Sprintf("emotional content too low: %.3f (minimum %.3f)", ratio, t.MinEmotionRatio),
				ratio, t.MinEmotionRatio))
		}
	}

	if t.MinDialogueRatio > 0 {
		if ratio := textstats.DialogueRatio(text); ratio < t.MinDialogueRatio {
			issues = append(issues, below(model.IssueDialogueRatioTooLow,
				fmt.Sprintf("dialogue share too low: %.3f (minimum %.3f)", ratio, t.MinDialogueRatio),
				ratio, t.MinDialogueRatio))
		}
	}

	return issues
}

func below(issueType, desc string, current, min float64) model.QualityIssue {
	dev := (min - current) / min * 100
	return model.QualityIssue{
		Type:             issueType,
		Severity:         SeverityFor(issueType, dev),
		Description:      desc,
		CurrentValue:     current,
		TargetValue:      min,
		DeviationPercent: dev,
	}
}

func above(issueType, desc string, current, max float64) model.QualityIssue {
	dev := (current - max) / max * 100
	return model.QualityIssue{
		Type:             issueType,
		Severity:         SeverityFor(issueType, dev),
		Description:      desc,
		CurrentValue:     current,
		TargetValue:      max,
		DeviationPercent: dev,
	}
}
