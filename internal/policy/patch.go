package policy

import (
	"strings"

	"github.com/sells-group/content-gate/internal/model"
)

// WordBandPatch is a partial WordBand. Nil fields keep their value.
type WordBandPatch struct {
	Min    *int `json:"min,omitempty"`
	Max    *int `json:"max,omitempty"`
	Target *int `json:"target,omitempty"`
}

// SentenceBandPatch is a partial SentenceBand.
type SentenceBandPatch struct {
	Max *float64 `json:"max,omitempty"`
	Avg *float64 `json:"avg,omitempty"`
}

// AudiencePatch is a partial update of one audience table.
type AudiencePatch struct {
	WordCount        *WordBandPatch     `json:"wordCount,omitempty"`
	SentenceLength   *SentenceBandPatch `json:"sentenceLength,omitempty"`
	MinEmotionRatio  *float64           `json:"minEmotionRatio,omitempty"`
	MinDialogueRatio *float64           `json:"minDialogueRatio,omitempty"`
	MinParagraphs    *int               `json:"minParagraphs,omitempty"`
	ChildReadability *bool              `json:"childReadability,omitempty"`
	CheckComplexity  *bool              `json:"checkComplexity,omitempty"`
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Apply returns a with the patch's non-nil fields applied.
func (p AudiencePatch) Apply(a Audience) Audience {
	if w := p.WordCount; w != nil {
		set(&a.WordCount.Min, w.Min)
		set(&a.WordCount.Max, w.Max)
		set(&a.WordCount.Target, w.Target)
	}
	if sl := p.SentenceLength; sl != nil {
		set(&a.SentenceLength.Max, sl.Max)
		set(&a.SentenceLength.Avg, sl.Avg)
	}
	set(&a.MinEmotionRatio, p.MinEmotionRatio)
	set(&a.MinDialogueRatio, p.MinDialogueRatio)
	set(&a.MinParagraphs, p.MinParagraphs)
	set(&a.ChildReadability, p.ChildReadability)
	set(&a.CheckComplexity, p.CheckComplexity)
	return a
}

// Audience returns the table registered under name or one of its aliases.
func (l *Live) Audience(name string) (string, Audience, bool) {
	p := l.Current().Policy
	key, ok := p.lookup(name)
	if !ok {
		return "", Audience{}, false
	}
	return key, p.Audiences[key], true
}

// PatchAudience merges patch into the named audience table and returns the
// table now in force. Unknown audiences and invalid results are input
// errors; on error the policy is unchanged.
func (l *Live) PatchAudience(name string, patch AudiencePatch) (Audience, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, ok := l.snap.Policy.lookup(name)
	if !ok {
		return Audience{}, model.InvalidInput("policy: unknown audience %q", name)
	}
	next := l.snap.Policy.Clone()
	next.Audiences[key] = patch.Apply(next.Audiences[key])
	snap, err := compile(next)
	if err != nil {
		return l.snap.Policy.Audiences[key], model.InvalidInput("%s", err.Error())
	}
	l.snap = snap
	return next.Audiences[key], nil
}

// lookup resolves name through the alias table without falling back to the
// default audience.
func (p *Policy) lookup(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := p.Aliases[key]; ok {
		key = alias
	}
	_, ok := p.Audiences[key]
	return key, ok
}
