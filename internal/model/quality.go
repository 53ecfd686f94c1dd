package model

// Dimension names one of the weighted quality sub-scores.
type Dimension string

const (
	DimensionWordLimit   Dimension = "wordLimit"
	DimensionEmotion     Dimension = "emotion"
	DimensionRepetition  Dimension = "repetition"
	DimensionReadability Dimension = "readability"
	DimensionStructure   Dimension = "structure"
)

// Dimensions lists every dimension in evaluation order.
var Dimensions = []Dimension{
	DimensionWordLimit,
	DimensionEmotion,
	DimensionRepetition,
	DimensionReadability,
	DimensionStructure,
}

// IssueFlag marks a dimension that scored below its flag threshold.
type IssueFlag string

const (
	FlagWordLimit   IssueFlag = "WORD_LIMIT"
	FlagEmotion     IssueFlag = "EMOTION"
	FlagRepetition  IssueFlag = "REPETITION"
	FlagReadability IssueFlag = "READABILITY"
	FlagStructure   IssueFlag = "STRUCTURE"
)

// QualityLevel is a coarse band over the overall score.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "Excellent"
	QualityGood      QualityLevel = "Good"
	QualityFair      QualityLevel = "Fair"
	QualityPoor      QualityLevel = "Poor"
)

// LevelFor returns the quality band for an overall score.
func LevelFor(overall float64) QualityLevel {
	switch {
	case overall >= 0.8:
		return QualityExcellent
	case overall >= 0.6:
		return QualityGood
	case overall >= 0.4:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Review thresholds on the overall score.
const (
	ReviewThreshold   = 0.7
	CriticalThreshold = 0.5
)

// QualityScore is the result of one scoring evaluation. It is built once and
// not mutated afterwards.
type QualityScore struct {
	Overall        float64               `json:"overall"`
	PerDimension   map[Dimension]float64 `json:"perDimension"`
	Flags          []IssueFlag           `json:"flags"`
	Level          QualityLevel          `json:"level"`
	ReviewRequired bool                  `json:"reviewRequired"`
	CriticalIssues bool                  `json:"criticalIssues"`
	Suggestions    []string              `json:"suggestions"`
}

// HasFlag reports whether f was raised.
func (q QualityScore) HasFlag(f IssueFlag) bool {
	for _, got := range q.Flags {
		if got == f {
			return true
		}
	}
	return false
}

// BilingualScore holds a paired German/English evaluation.
type BilingualScore struct {
	German      QualityScore `json:"german"`
	English     QualityScore `json:"english"`
	Consistency float64      `json:"consistency"`
	Overall     float64      `json:"overall"`
}
