package policy

import "github.com/sells-group/content-gate/internal/model"

// Audience names.
const (
	Preschool   = "preschool"
	EarlyReader = "early_reader"
	MiddleGrade = "middle_grade"
	YoungAdult  = "young_adult"
	Adult       = "adult"
)

// Default returns the built-in policy tables.
func Default() *Policy {
	return &Policy{
		DefaultAudience: Adult,
		Aliases: map[string]string{
			"children": EarlyReader,
			"kids":     EarlyReader,
			"teen":     YoungAdult,
		},
		Audiences: map[string]Audience{
			Preschool: {
				WordCount:        WordBand{Min: 100, Max: 300, Target: 200},
				SentenceLength:   SentenceBand{Max: 8, Avg: 6},
				MinEmotionRatio:  0.02,
				MinDialogueRatio: 0.10,
				MinParagraphs:    2,
				ChildReadability: true,
				CheckComplexity:  true,
			},
			EarlyReader: {
				WordCount:        WordBand{Min: 300, Max: 600, Target: 400},
				SentenceLength:   SentenceBand{Max: 12, Avg: 10},
				MinEmotionRatio:  0.03,
				MinDialogueRatio: 0.15,
				MinParagraphs:    3,
				ChildReadability: true,
				CheckComplexity:  true,
			},
			MiddleGrade: {
				WordCount:        WordBand{Min: 600, Max: 1000, Target: 800},
				SentenceLength:   SentenceBand{Max: 18, Avg: 15},
				MinEmotionRatio:  0.04,
				MinDialogueRatio: 0.20,
				MinParagraphs:    4,
				ChildReadability: true,
				CheckComplexity:  true,
			},
			YoungAdult: {
				WordCount:        WordBand{Min: 1000, Max: 1500, Target: 1200},
				SentenceLength:   SentenceBand{Max: 25, Avg: 20},
				MinEmotionRatio:  0.05,
				MinDialogueRatio: 0.25,
				MinParagraphs:    5,
			},
			Adult: {
				WordCount:        WordBand{Min: 1200, Max: 2000, Target: 1500},
				SentenceLength:   SentenceBand{Max: 30, Avg: 25},
				MinEmotionRatio:  0.06,
				MinDialogueRatio: 0.30,
				MinParagraphs:    5,
			},
		},
		Rules: []Rule{
			{
				Category:    "violence",
				Description: "violent content",
				Patterns: []string{
					`\b(blut|blood|gewalt|violence|kampf|fight|schlag|hit|töten|kill)\b`,
					`\b(waffe|weapon|messer|knife|pistole|gun)\b`,
					`\b(angriff|attack|verletzung|injury|schmerz|pain)\b`,
				},
				Audiences: []string{Preschool, EarlyReader},
				SeverityRules: []SeverityRule{
					{Keywords: []string{"töten", "kill", "waffe", "weapon"}, Severity: model.SeverityCritical},
					{Keywords: []string{"kampf", "fight", "gewalt", "violence"}, Severity: model.SeverityHigh},
				},
				DefaultSeverity: model.SeverityMedium,
			},
			{
				Category:    "inappropriate_content",
				Description: "content unsuitable for the audience",
				Patterns: []string{
					`\b(verliebt|in love|kuss|kiss|beziehung|relationship)\b`,
					`\b(alkohol|alcohol|drogen|drugs|rauchen|smoking)\b`,
					`\b(fluchen|swearing|schimpfwörter|curse words)\b`,
				},
				Audiences:       []string{Preschool, EarlyReader, MiddleGrade},
				DefaultSeverity: model.SeverityHigh,
			},
			{
				Category:    "negative_emotions",
				Description: "intense negative emotion",
				Patterns: []string{
					`\b(verzweiflung|despair|hoffnungslos|hopeless|selbstmord|suicide)\b`,
					`\b(hass|hate|wut|anger|traurig|sad)\b`,
					`\b(angst|fear|panik|panic|terror)\b`,
				},
				Audiences:       []string{Preschool, EarlyReader},
				DefaultSeverity: model.SeverityMedium,
			},
			{
				Category:    "complex_concepts",
				Description: "concepts beyond the audience",
				Patterns: []string{
					`\b(philosophie|philosophy|metaphysik|metaphysics|existenz|existence)\b`,
					`\b(politik|politics|religion|ideologie|ideology)\b`,
					`\b(psychologie|psychology|psychoanalyse|psychoanalysis)\b`,
				},
				Audiences:       []string{Preschool, EarlyReader},
				DefaultSeverity: model.SeverityLow,
			},
		},
		EmotionLexicon: map[string]map[string][]string{
			model.LanguageGerman: {
				"wonder":     {"staunen", "wundern", "verwundert", "erstaunt", "fasziniert"},
				"joy":        {"freude", "fröhlich", "glücklich", "begeistert", "vergnügt"},
				"courage":    {"mut", "mutig", "tapfer", "beherzt", "furchtlos"},
				"friendship": {"freundschaft", "freundlich", "verbunden", "gemeinsam"},
				"growth":     {"wachsen", "lernen", "entwickeln", "reifen", "fortschritt"},
			},
			model.LanguageEnglish: {
				"wonder":     {"wonder", "amazed", "astonished", "fascinated", "curious"},
				"joy":        {"joy", "happy", "excited", "delighted", "cheerful"},
				"courage":    {"courage", "brave", "bold", "fearless", "daring"},
				"friendship": {"friendship", "friendly", "together", "bond"},
				"growth":     {"grow", "learn", "develop", "progress", "improve"},
			},
		},
		EmotionalWords: []string{
			"freude", "joy", "glück", "happiness", "liebe", "love", "wunder", "wonder",
			"mut", "courage", "stark", "strong", "tapfer", "brave", "entschlossen", "determined",
			"freundschaft", "friendship", "herz", "heart", "warm", "warmth", "verbunden", "connected",
			"lachen", "laugh", "spaß", "fun", "spielen", "play", "träumen", "dream",
			"angst", "fear", "sorgen", "worries", "traurig", "sad", "einsam", "lonely",
			"hoffnung", "hope", "vertrauen", "trust", "glauben", "believe", "confidence",
		},
		Complexity: Complexity{MinRunes: 12, MaxLongWords: 5},
	}
}
