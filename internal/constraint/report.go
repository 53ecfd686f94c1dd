package constraint

import "github.com/sells-group/content-gate/internal/model"

var (
	violationPenalty = map[model.Severity]float64{
		model.SeverityCritical: 0.5,
		model.SeverityHigh:     0.3,
		model.SeverityMedium:   0.2,
		model.SeverityLow:      0.1,
	}
	issuePenalty = map[model.Severity]float64{
		model.SeverityHigh:   0.2,
		model.SeverityMedium: 0.1,
		model.SeverityLow:    0.05,
	}
)

// HealthScore is 1 minus a penalty per finding, floored at 0.
func HealthScore(violations []model.ConstraintViolation, issues []model.QualityIssue) float64 {
	score := 1.0
	for _, v := range violations {
		score -= violationPenalty[v.Severity]
	}
	for _, i := range issues {
		score -= issuePenalty[i.Severity]
	}
	if score < 0 {
		return 0
	}
	return score
}

// Validate runs every check for one text and audience.
func (e *Engine) Validate(text, audience string) model.ValidationReport {
	violations := e.CheckConstraints(text, audience)
	issues := e.CheckQualityIssues(text, audience)

	report := model.ValidationReport{
		Valid:             true,
		Violations:        violations,
		Issues:            issues,
		RetryNeeded:       ShouldRetry(violations, issues),
		RetryInstructions: []model.RetryInstruction{},
		HealthScore:       HealthScore(violations, issues),
	}
	if report.RetryNeeded {
		report.RetryInstructions = BuildRetryInstructions(violations, issues)
	}
	for _, v := range violations {
		if v.Severity == model.SeverityCritical {
			report.Valid = false
			break
		}
	}
	return report
}
