// Package policy holds the audience-scoped threshold and rule tables that
// drive scoring and constraint checks.
package policy

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/content-gate/internal/model"
)

// WordBand bounds the word count for an audience.
type WordBand struct {
	Min    int `yaml:"min" json:"min"`
	Max    int `yaml:"max" json:"max"`
	Target int `yaml:"target" json:"target"`
}

// SentenceBand bounds mean sentence length in words.
type SentenceBand struct {
	Max float64 `yaml:"max" json:"max"`
	Avg float64 `yaml:"avg" json:"avg"`
}

// Audience is the threshold table for one audience.
type Audience struct {
	WordCount        WordBand     `yaml:"word_count" json:"wordCount"`
	SentenceLength   SentenceBand `yaml:"sentence_length" json:"sentenceLength"`
	MinEmotionRatio  float64      `yaml:"min_emotion_ratio" json:"minEmotionRatio"`
	MinDialogueRatio float64      `yaml:"min_dialogue_ratio" json:"minDialogueRatio"`
	MinParagraphs    int          `yaml:"min_paragraphs" json:"minParagraphs"`
	ChildReadability bool         `yaml:"child_readability" json:"childReadability"`
	CheckComplexity  bool         `yaml:"check_complexity" json:"checkComplexity"`
}

// SeverityRule assigns Severity to a match containing any of Keywords.
type SeverityRule struct {
	Keywords []string       `yaml:"keywords"`
	Severity model.Severity `yaml:"severity"`
}

// Rule is one category of forbidden content.
type Rule struct {
	Category        string         `yaml:"category"`
	Description     string         `yaml:"description"`
	Patterns        []string       `yaml:"patterns"`
	Audiences       []string       `yaml:"audiences"`
	SeverityRules   []SeverityRule `yaml:"severity_rules"`
	DefaultSeverity model.Severity `yaml:"default_severity"`
}

// AppliesTo reports whether the rule is scoped to audience.
func (r Rule) AppliesTo(audience string) bool {
	for _, a := range r.Audiences {
		if a == audience {
			return true
		}
	}
	return false
}

// SeverityFor returns the severity of a matched string. The first rule whose
// keyword occurs in the match wins.
func (r Rule) SeverityFor(match string) model.Severity {
	m := strings.ToLower(match)
	for _, sr := range r.SeverityRules {
		for _, k := range sr.Keywords {
			if strings.Contains(m, strings.ToLower(k)) {
				return sr.Severity
			}
		}
	}
	return r.DefaultSeverity
}

// Complexity configures the long-word check.
type Complexity struct {
	MinRunes     int `yaml:"min_runes"`
	MaxLongWords int `yaml:"max_long_words"`
}

// Policy is the full table set. Treat a Policy as read-only once it is
// handed to a Live holder.
type Policy struct {
	DefaultAudience string                         `yaml:"default_audience"`
	Aliases         map[string]string              `yaml:"aliases"`
	Audiences       map[string]Audience            `yaml:"audiences"`
	Rules           []Rule                         `yaml:"rules"`
	EmotionLexicon  map[string]map[string][]string `yaml:"emotion_lexicon"`
	EmotionalWords  []string                       `yaml:"emotional_words"`
	Complexity      Complexity                     `yaml:"complexity"`
}

// Resolve maps an audience name through aliases to a table entry, falling
// back to the default audience.
func (p *Policy) Resolve(audience string) (string, Audience) {
	name := strings.ToLower(strings.TrimSpace(audience))
	if alias, ok := p.Aliases[name]; ok {
		name = alias
	}
	if a, ok := p.Audiences[name]; ok {
		return name, a
	}
	return p.DefaultAudience, p.Audiences[p.DefaultAudience]
}

// Validate checks the tables for internal consistency.
func (p *Policy) Validate() error {
	var errs []string

	if _, ok := p.Audiences[p.DefaultAudience]; !ok {
		errs = append(errs, fmt.Sprintf("default_audience %q has no table", p.DefaultAudience))
	}
	for alias, target := range p.Aliases {
		if _, ok := p.Audiences[target]; !ok {
			errs = append(errs, fmt.Sprintf("alias %q points at unknown audience %q", alias, target))
		}
	}
	for name, a := range p.Audiences {
		if err := a.validate(); err != nil {
			errs = append(errs, fmt.Sprintf("audience %s: %v", name, err))
		}
	}
	for i, r := range p.Rules {
		if r.Category == "" {
			errs = append(errs, fmt.Sprintf("rule %d: category is required", i))
		}
		if len(r.Patterns) == 0 {
			errs = append(errs, fmt.Sprintf("rule %s: at least one pattern is required", r.Category))
		}
		for _, pat := range r.Patterns {
			if _, err := regexp.Compile(pat); err != nil {
				errs = append(errs, fmt.Sprintf("rule %s: bad pattern %q", r.Category, pat))
			}
		}
		if r.DefaultSeverity < model.SeverityLow || r.DefaultSeverity > model.SeverityCritical {
			errs = append(errs, fmt.Sprintf("rule %s: default_severity is required", r.Category))
		}
	}
	if p.Complexity.MinRunes < 0 || p.Complexity.MaxLongWords < 0 {
		errs = append(errs, "complexity values must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("policy: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (a Audience) validate() error {
	var errs []string
	w := a.WordCount
	if w.Min < 0 || w.Target < 0 || w.Max < 0 {
		errs = append(errs, "word_count values must be >= 0")
	}
	if w.Max > 0 && (w.Min > w.Max || w.Target > w.Max) {
		errs = append(errs, "word_count must satisfy min <= target <= max")
	}
	for name, v := range map[string]float64{
		"sentence_length.max": a.SentenceLength.Max,
		"sentence_length.avg": a.SentenceLength.Avg,
		"min_emotion_ratio":   a.MinEmotionRatio,
		"min_dialogue_ratio":  a.MinDialogueRatio,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, name+" must be finite")
		}
	}
	if a.SentenceLength.Max <= 0 {
		errs = append(errs, "sentence_length.max must be > 0")
	}
	if a.MinEmotionRatio < 0 || a.MinEmotionRatio > 1 {
		errs = append(errs, "min_emotion_ratio must be in [0,1]")
	}
	if a.MinDialogueRatio < 0 || a.MinDialogueRatio > 1 {
		errs = append(errs, "min_dialogue_ratio must be in [0,1]")
	}
	if a.MinParagraphs < 0 {
		errs = append(errs, "min_paragraphs must be >= 0")
	}
	if len(errs) > 0 {
		return eris.New(strings.Join(errs, ", "))
	}
	return nil
}

// Clone returns a deep copy so updates never alias a live table.
func (p *Policy) Clone() *Policy {
	out := &Policy{
		DefaultAudience: p.DefaultAudience,
		Aliases:         make(map[string]string, len(p.Aliases)),
		Audiences:       make(map[string]Audience, len(p.Audiences)),
		Rules:           make([]Rule, len(p.Rules)),
		EmotionLexicon:  make(map[string]map[string][]string, len(p.EmotionLexicon)),
		EmotionalWords:  append([]string(nil), p.EmotionalWords...),
		Complexity:      p.Complexity,
	}
	for k, v := range p.Aliases {
		out.Aliases[k] = v
	}
	for k, v := range p.Audiences {
		out.Audiences[k] = v
	}
	for i, r := range p.Rules {
		r.Patterns = append([]string(nil), r.Patterns...)
		r.Audiences = append([]string(nil), r.Audiences...)
		r.SeverityRules = append([]SeverityRule(nil), r.SeverityRules...)
		out.Rules[i] = r
	}
	for lang, cats := range p.EmotionLexicon {
		c := make(map[string][]string, len(cats))
		for cat, words := range cats {
			c[cat] = append([]string(nil), words...)
		}
		out.EmotionLexicon[lang] = c
	}
	return out
}
