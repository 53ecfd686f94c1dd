package policy

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// filePolicy mirrors Policy with optional sections so a file only needs to
// carry what it overrides.
type filePolicy struct {
	DefaultAudience string                         `yaml:"default_audience"`
	Aliases         map[string]string              `yaml:"aliases"`
	Audiences       map[string]Audience            `yaml:"audiences"`
	Rules           []Rule                         `yaml:"rules"`
	EmotionLexicon  map[string]map[string][]string `yaml:"emotion_lexicon"`
	EmotionalWords  []string                       `yaml:"emotional_words"`
	Complexity      *Complexity                    `yaml:"complexity"`
}

// LoadFile reads a YAML policy file and merges it over the defaults.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "policy: read %s", path)
	}
	return Parse(data)
}

// Parse merges YAML policy overrides over the defaults. The document has a
// top-level "policy" key.
func Parse(data []byte) (*Policy, error) {
	var wrapper struct {
		Policy filePolicy `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "policy: parse")
	}

	p := Default()
	fp := wrapper.Policy
	if fp.DefaultAudience != "" {
		p.DefaultAudience = fp.DefaultAudience
	}
	for k, v := range fp.Aliases {
		p.Aliases[k] = v
	}
	for k, v := range fp.Audiences {
		p.Audiences[k] = v
	}
	if len(fp.Rules) > 0 {
		p.Rules = fp.Rules
	}
	for lang, cats := range fp.EmotionLexicon {
		p.EmotionLexicon[lang] = cats
	}
	if len(fp.EmotionalWords) > 0 {
		p.EmotionalWords = fp.EmotionalWords
	}
	if fp.Complexity != nil {
		p.Complexity = *fp.Complexity
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
