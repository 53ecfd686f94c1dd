package scorer

import (
	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/textstats"
)

// EvaluateBilingual scores a German text and its English counterpart
// against the same target and rates how closely the two line up.
func (e *Engine) EvaluateBilingual(german, english string, spec model.TargetSpec) model.BilingualScore {
	de := spec
	de.Language = model.LanguageGerman
	en := spec
	en.Language = model.LanguageEnglish

	out := model.BilingualScore{
		German:      e.Evaluate(german, de),
		English:     e.Evaluate(english, en),
		Consistency: translationConsistency(german, english),
	}
	out.Overall = (out.German.Overall + out.English.Overall + out.Consistency) / 3
	return out
}

// translationConsistency averages the word count ratio and the paragraph
// count ratio of the two texts, smaller over larger.
func translationConsistency(a, b string) float64 {
	wa, wb := textstats.WordCount(a), textstats.WordCount(b)
	if wa == 0 || wb == 0 {
		return 0
	}
	wordRatio := ratio(wa, wb)

	var paragraphRatio float64
	pa, pb := len(textstats.Paragraphs(a)), len(textstats.Paragraphs(b))
	if pa > 0 && pb > 0 {
		paragraphRatio = ratio(pa, pb)
	}
	return (wordRatio + paragraphRatio) / 2
}

func ratio(a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}
