package scorer

import (
	"math"
	"strings"

	"github.com/sells-group/content-gate/internal/textstats"
)

const (
	optimalEmotionRatio    = 0.02
	optimalRepetitionRatio = 0.25
	minRepetitionWords     = 10
	neutralEmotionScore    = 0.5
)

// scoreWordLimit gives full credit at the target and none at 50% deviation.
func scoreWordLimit(actual, target int) float64 {
	if target <= 0 {
		return 1.0
	}
	deviation := math.Abs(float64(actual-target)) / float64(target)
	return math.Max(0, 1-deviation*2)
}

// emotionKeywords selects lexicon categories that contain the tag or are
// contained by it. No match selects every category.
func emotionKeywords(lexicon map[string][]string, tag string) []string {
	tag = textstats.Lower(strings.TrimSpace(tag))
	var keywords []string
	for category, words := range lexicon {
		if strings.Contains(tag, category) || strings.Contains(category, tag) {
			keywords = append(keywords, words...)
		}
	}
	if len(keywords) == 0 {
		for _, words := range lexicon {
			keywords = append(keywords, words...)
		}
	}
	return keywords
}

func scoreEmotion(text string, totalWords int, tag string, lexicon map[string][]string) float64 {
	if strings.TrimSpace(tag) == "" || len(lexicon) == 0 {
		return neutralEmotionScore
	}
	if totalWords == 0 {
		return 0
	}
	count := textstats.CountTokens(text, emotionKeywords(lexicon, tag))
	ratio := float64(count) / float64(totalWords)
	return math.Min(1, ratio/optimalEmotionRatio)
}

// scoreRepetition tolerates repetition up to the optimum, then falls off
// linearly to 0 at total repetition.
func scoreRepetition(words []string) float64 {
	if len(words) < minRepetitionWords {
		return 1.0
	}
	rep := 1 - textstats.UniqueRatio(words)
	if rep <= optimalRepetitionRatio {
		return 1.0
	}
	penalty := (rep - optimalRepetitionRatio) / (1 - optimalRepetitionRatio)
	return math.Max(0, 1-penalty)
}

func scoreReadability(text string, child bool) float64 {
	if len(textstats.Sentences(text)) == 0 {
		return 0
	}
	avg := textstats.MeanSentenceLength(text)
	if child {
		switch {
		case avg <= 15:
			return 1.0
		case avg <= 25:
			return 0.7
		default:
			return 0.3
		}
	}
	switch {
	case avg >= 10 && avg <= 25:
		return 1.0
	case avg >= 5 && avg <= 35:
		return 0.8
	default:
		return 0.4
	}
}

// scoreStructure averages a paragraph length band and a paragraph count band.
func scoreStructure(text string) float64 {
	paragraphs := textstats.Paragraphs(text)
	if len(paragraphs) == 0 {
		return 0
	}

	var lengthScore float64
	avg := textstats.MeanParagraphLength(paragraphs)
	switch {
	case avg >= 50 && avg <= 150:
		lengthScore = 1.0
	case avg >= 30 && avg <= 200:
		lengthScore = 0.8
	default:
		lengthScore = 0.4
	}

	var countScore float64
	n := len(paragraphs)
	switch {
	case n >= 2 && n <= 8:
		countScore = 1.0
	case n >= 1 && n <= 12:
		countScore = 0.7
	default:
		countScore = 0.3
	}

	return (lengthScore + countScore) / 2
}
