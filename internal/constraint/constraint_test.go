package constraint

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/policy"
)

func newTestEngine(t *testing.T) (*Engine, *policy.Live) {
	t.Helper()
	live, err := policy.NewLive(policy.Default())
	require.NoError(t, err)
	return NewEngine(live), live
}

func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(out, " ")
}

func TestCheckConstraints_Preschool(t *testing.T) {
	e, _ := newTestEngine(t)
	text := "The knight drew a weapon.\nThen a fight began and he felt fear."

	got := e.CheckConstraints(text, policy.Preschool)
	require.Len(t, got, 3)

	assert.Equal(t, "violence", got[0].Type)
	assert.Equal(t, "fight", got[0].MatchedText)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Equal(t, 2, got[0].LineNumber)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)

	assert.Equal(t, "weapon", got[1].MatchedText)
	assert.Equal(t, model.SeverityCritical, got[1].Severity)
	assert.Equal(t, 1, got[1].LineNumber)

	assert.Equal(t, "negative_emotions", got[2].Type)
	assert.Equal(t, "fear", got[2].MatchedText)
	assert.Equal(t, model.SeverityMedium, got[2].Severity)
}

func TestCheckConstraints_AudienceScoping(t *testing.T) {
	e, _ := newTestEngine(t)
	text := "They would KILL for a kiss."

	assert.Empty(t, e.CheckConstraints(text, policy.Adult))
	assert.Empty(t, e.CheckConstraints(text, "unknown"), "unknown audiences use the adult table")

	got := e.CheckConstraints(text, "children")
	require.Len(t, got, 2)
	assert.Equal(t, "KILL", got[0].MatchedText)
	assert.Equal(t, model.SeverityCritical, got[0].Severity)
	assert.Equal(t, "inappropriate_content", got[1].Type)
	assert.Equal(t, model.SeverityHigh, got[1].Severity)

	mg := e.CheckConstraints(text, policy.MiddleGrade)
	require.Len(t, mg, 1, "violence rules do not cover middle grade")
	assert.Equal(t, "kiss", mg[0].MatchedText)
}

func TestCheckConstraints_WholeWordOnly(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Empty(t, e.CheckConstraints("The skill of hitting notes.", policy.Preschool))
}

func TestCheckConstraints_Complexity(t *testing.T) {
	e, _ := newTestEngine(t)
	six := "extraordinary unbelievable incomprehensible magnificently responsibilities overwhelmingly"
	five := "extraordinary unbelievable incomprehensible magnificently responsibilities"

	got := e.CheckConstraints(six, policy.EarlyReader)
	require.Len(t, got, 1)
	assert.Equal(t, model.ViolationComplexity, got[0].Type)
	assert.Equal(t, model.SeverityMedium, got[0].Severity)
	assert.Equal(t, "6 complex words found", got[0].MatchedText)
	assert.InDelta(t, 0.8, got[0].Confidence, 1e-9)

	assert.Empty(t, e.CheckConstraints(five, policy.EarlyReader))
	assert.Empty(t, e.CheckConstraints(six, policy.YoungAdult))
}

func TestCheckQualityIssues_ShortAdultText(t *testing.T) {
	e, _ := newTestEngine(t)

	got := e.CheckQualityIssues("Hello world.", policy.Adult)
	require.Len(t, got, 4)

	assert.Equal(t, model.IssueWordCountTooLow, got[0].Type)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.InDelta(t, (1200.0-2)/1200*100, got[0].DeviationPercent, 1e-9)
	assert.Equal(t, 2.0, got[0].CurrentValue)
	assert.Equal(t, 1200.0, got[0].TargetValue)

	assert.Equal(t, model.IssueParagraphCountLow, got[1].Type)
	assert.InDelta(t, 80, got[1].DeviationPercent, 1e-9)
	assert.Equal(t, model.SeverityMedium, got[1].Severity)

	assert.Equal(t, model.IssueEmotionalContentLow, got[2].Type)
	assert.Equal(t, model.SeverityHigh, got[2].Severity)

	assert.Equal(t, model.IssueDialogueRatioTooLow, got[3].Type)
	assert.InDelta(t, 100, got[3].DeviationPercent, 1e-9)
	assert.Equal(t, model.SeverityMedium, got[3].Severity)
}

func TestCheckQualityIssues_AboveMaximum(t *testing.T) {
	e, _ := newTestEngine(t)

	long := words(400) + "."
	got := e.CheckQualityIssues(long, policy.Preschool)

	byType := map[string]model.QualityIssue{}
	for _, i := range got {
		byType[i.Type] = i
	}

	wc, ok := byType[model.IssueWordCountTooHigh]
	require.True(t, ok)
	assert.InDelta(t, 100.0/300*100, wc.DeviationPercent, 1e-9)
	assert.Equal(t, model.SeverityMedium, wc.Severity)

	sl, ok := byType[model.IssueSentenceLengthHigh]
	require.True(t, ok)
	assert.InDelta(t, (400.0-8)/8*100, sl.DeviationPercent, 1e-9)
	assert.Equal(t, model.SeverityMedium, sl.Severity)

	_, low := byType[model.IssueWordCountTooLow]
	assert.False(t, low)
}

func TestCheckQualityIssues_EmotionalWordsCounted(t *testing.T) {
	e, live := newTestEngine(t)
	a := live.Current().Policy.Audiences[policy.EarlyReader]
	a.WordCount = policy.WordBand{}
	a.MinParagraphs = 0
	a.MinDialogueRatio = 0
	require.NoError(t, live.SetAudience(policy.EarlyReader, a))

	assert.Empty(t, e.CheckQualityIssues("So much joy, and Courage; w1 w2 w3 w4 w5 w6.", policy.EarlyReader))

	got := e.CheckQualityIssues("w1 w2 w3 w4 w5 w6 w7 w8 w9 w10.", policy.EarlyReader)
	require.Len(t, got, 1)
	assert.Equal(t, model.IssueEmotionalContentLow, got[0].Type)
}

func TestCheckQualityIssues_EmptyText(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.NotPanics(t, func() {
		got := e.CheckQualityIssues("", policy.Preschool)
		assert.NotEmpty(t, got)
	})
}

func TestSeverityFor_Monotone(t *testing.T) {
	types := []string{
		model.IssueWordCountTooLow, model.IssueWordCountTooHigh, model.IssueSentenceLengthHigh,
		model.IssueParagraphCountLow, model.IssueEmotionalContentLow, model.IssueDialogueRatioTooLow,
		"something_new",
	}
	for _, typ := range types {
		t.Run(typ, func(t *testing.T) {
			prev := model.Severity(0)
			for dev := 0.0; dev <= 300; dev += 2.5 {
				s := SeverityFor(typ, dev)
				assert.GreaterOrEqual(t, s, prev, "deviation %.1f", dev)
				prev = s
			}
		})
	}

	assert.Equal(t, model.SeverityMedium, SeverityFor(model.IssueWordCountTooLow, 50))
	assert.Equal(t, model.SeverityHigh, SeverityFor(model.IssueWordCountTooLow, 50.1))
}

func TestShouldRetry(t *testing.T) {
	v := func(s model.Severity) model.ConstraintViolation { return model.ConstraintViolation{Severity: s} }
	i := func(s model.Severity, dev float64) model.QualityIssue {
		return model.QualityIssue{Severity: s, DeviationPercent: dev}
	}

	tests := []struct {
		name       string
		violations []model.ConstraintViolation
		issues     []model.QualityIssue
		want       bool
	}{
		{"nothing", nil, nil, false},
		{"one critical", []model.ConstraintViolation{v(model.SeverityCritical)}, nil, true},
		{"one high", []model.ConstraintViolation{v(model.SeverityHigh)}, nil, false},
		{"two high", []model.ConstraintViolation{v(model.SeverityHigh), v(model.SeverityHigh)}, nil, true},
		{"high issue far off", nil, []model.QualityIssue{i(model.SeverityHigh, 60)}, true},
		{"high issue at limit", nil, []model.QualityIssue{i(model.SeverityHigh, 50)}, false},
		{"medium issue far off", nil, []model.QualityIssue{i(model.SeverityMedium, 90)}, false},
		{"three low", []model.ConstraintViolation{v(model.SeverityLow)}, []model.QualityIssue{i(model.SeverityLow, 1), i(model.SeverityLow, 1)}, true},
		{"two minor", []model.ConstraintViolation{v(model.SeverityMedium)}, []model.QualityIssue{i(model.SeverityLow, 10)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.violations, tt.issues))
		})
	}
}

func TestBuildRetryInstructions_Ordering(t *testing.T) {
	violations := []model.ConstraintViolation{
		{Type: "violence", Severity: model.SeverityCritical, Description: "violent content", MatchedText: "weapon"},
		{Type: "negative_emotions", Severity: model.SeverityMedium, Description: "intense negative emotion", MatchedText: "fear"},
		{Type: model.ViolationComplexity, Severity: model.SeverityMedium, Description: "too many complex words"},
	}
	issues := []model.QualityIssue{
		{Type: model.IssueSentenceLengthHigh, Severity: model.SeverityLow, Description: "sentences"},
		{Type: model.IssueDialogueRatioTooLow, Severity: model.SeverityMedium, Description: "dialogue"},
		{Type: model.IssueEmotionalContentLow, Severity: model.SeverityHigh, Description: "emotion"},
		{Type: model.IssueWordCountTooHigh, Severity: model.SeverityMedium, Description: "too long", TargetValue: 300},
	}

	got := BuildRetryInstructions(violations, issues)
	require.Len(t, got, 5)

	assert.Equal(t, model.AdjustConstraint, got[0].AdjustmentType)
	assert.Equal(t, 4, got[0].Priority)
	assert.Contains(t, got[0].InstructionText, "violent content: 'weapon'")
	assert.NotContains(t, got[0].InstructionText, "fear")

	assert.Equal(t, "Language too complex", got[1].Reason)
	assert.Equal(t, 3, got[1].Priority)
	assert.Equal(t, "emotion", got[2].Reason)
	assert.Equal(t, 3, got[2].Priority)

	assert.Equal(t, "dialogue", got[3].Reason)
	assert.Equal(t, 2, got[3].Priority)
	assert.Equal(t, "too long", got[4].Reason)
	assert.Equal(t, model.AdjustTarget, got[4].AdjustmentType)
	assert.Contains(t, got[4].InstructionText, "at most 300 words")

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Priority, got[i].Priority)
	}
}

func TestBuildRetryInstructions_Empty(t *testing.T) {
	got := BuildRetryInstructions(nil, []model.QualityIssue{{Severity: model.SeverityLow}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApplyInstructions(t *testing.T) {
	assert.Equal(t, "Write a story.", ApplyInstructions("Write a story.", nil))

	got := ApplyInstructions("Write a story.", []model.RetryInstruction{
		{Reason: "Too short", InstructionText: "Expand it."},
		{Reason: "No dialogue", InstructionText: "Add dialogue."},
	})
	assert.Equal(t, "Write a story."+
		"\n\n=== RETRY INSTRUCTIONS ===\n"+
		"\nToo short:\nExpand it.\n"+
		"\nNo dialogue:\nAdd dialogue.\n", got)
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 1.0, HealthScore(nil, nil))
	assert.InDelta(t, 0.65, HealthScore(
		[]model.ConstraintViolation{{Severity: model.SeverityMedium}, {Severity: model.SeverityLow}},
		[]model.QualityIssue{{Severity: model.SeverityLow}},
	), 1e-9)
	assert.Equal(t, 0.0, HealthScore(
		[]model.ConstraintViolation{{Severity: model.SeverityCritical}, {Severity: model.SeverityCritical}, {Severity: model.SeverityCritical}},
		nil,
	))
}

func TestValidate(t *testing.T) {
	e, live := newTestEngine(t)

	report := e.Validate("He raised the weapon and began to fight.", policy.Preschool)
	assert.False(t, report.Valid)
	assert.True(t, report.RetryNeeded)
	require.NotEmpty(t, report.RetryInstructions)
	assert.Equal(t, model.AdjustConstraint, report.RetryInstructions[0].AdjustmentType)
	assert.Less(t, report.HealthScore, 0.5)

	require.NoError(t, live.SetAudience(policy.Adult, policy.Audience{
		WordCount:      policy.WordBand{Min: 1, Max: 100, Target: 10},
		SentenceLength: policy.SentenceBand{Max: 30, Avg: 25},
	}))
	clean := e.Validate("A calm day by the sea.", policy.Adult)
	assert.True(t, clean.Valid)
	assert.False(t, clean.RetryNeeded)
	assert.Empty(t, clean.Violations)
	assert.Empty(t, clean.Issues)
	assert.NotNil(t, clean.RetryInstructions)
	assert.Equal(t, 1.0, clean.HealthScore)
}
