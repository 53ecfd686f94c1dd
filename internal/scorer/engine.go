package scorer

import (
	"sync"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/monitoring"
	"github.com/sells-group/content-gate/internal/policy"
	"github.com/sells-group/content-gate/internal/textstats"
)

// Flag thresholds per dimension. A dimension below its threshold raises
// the matching flag.
var flagThresholds = []struct {
	dim       model.Dimension
	flag      model.IssueFlag
	threshold float64
}{
	{model.DimensionWordLimit, model.FlagWordLimit, 0.6},
	{model.DimensionEmotion, model.FlagEmotion, 0.5},
	{model.DimensionRepetition, model.FlagRepetition, 0.6},
	{model.DimensionReadability, model.FlagReadability, 0.6},
	{model.DimensionStructure, model.FlagStructure, 0.6},
}

var suggestionRules = []struct {
	dim       model.Dimension
	threshold float64
	text      string
}{
	{model.DimensionWordLimit, 0.7, "Adjust the word count to land closer to the target"},
	{model.DimensionEmotion, 0.6, "Bring the core emotion forward more strongly"},
	{model.DimensionRepetition, 0.7, "Reduce repeated words"},
	{model.DimensionReadability, 0.7, "Tune sentence length for the audience"},
	{model.DimensionStructure, 0.7, "Improve the paragraph structure"},
}

const goodQualitySuggestion = "Text is already of good quality"

// Engine scores text against a target. It is safe for concurrent use.
type Engine struct {
	live    *policy.Live
	metrics *monitoring.Metrics

	mu  sync.RWMutex
	cfg config.ScoringConfig
}

// NewEngine creates an Engine over the live policy with the given weights.
func NewEngine(live *policy.Live, cfg config.ScoringConfig) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{
		live:    live,
		metrics: monitoring.NewMetrics(),
		cfg:     cfg,
	}, nil
}

// Config returns the weights in force.
func (e *Engine) Config() config.ScoringConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig replaces the weights after validation.
func (e *Engine) SetConfig(cfg config.ScoringConfig) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}

// UpdateConfig applies patch to the weights in force and returns the
// result. An invalid result leaves the weights unchanged.
func (e *Engine) UpdateConfig(patch ConfigPatch) (config.ScoringConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := patch.Apply(e.cfg)
	if err := ValidateConfig(next); err != nil {
		return e.cfg, err
	}
	e.cfg = next
	return next, nil
}

// Evaluate scores text against spec. Blank text scores 0 on every
// dimension. The result depends only on the arguments and the policy and
// weights in force.
func (e *Engine) Evaluate(text string, spec model.TargetSpec) model.QualityScore {
	cfg := e.Config()
	dims := make(map[model.Dimension]float64, len(model.Dimensions))

	if !textstats.IsBlank(text) {
		p := e.live.Current().Policy
		_, audience := p.Resolve(spec.Audience)
		words := textstats.Words(text)

		dims[model.DimensionWordLimit] = scoreWordLimit(len(words), spec.WordCount)
		dims[model.DimensionEmotion] = scoreEmotion(text, len(words), spec.EmotionTag, p.EmotionLexicon[languageOf(spec)])
		dims[model.DimensionRepetition] = scoreRepetition(words)
		dims[model.DimensionReadability] = scoreReadability(text, audience.ChildReadability)
		dims[model.DimensionStructure] = scoreStructure(text)
	} else {
		for _, d := range model.Dimensions {
			dims[d] = 0
		}
	}

	overall := dims[model.DimensionWordLimit]*cfg.WordLimitWeight +
		dims[model.DimensionEmotion]*cfg.EmotionWeight +
		dims[model.DimensionRepetition]*cfg.RepetitionWeight +
		dims[model.DimensionReadability]*cfg.ReadabilityWeight +
		dims[model.DimensionStructure]*cfg.StructureWeight
	overall = clamp01(overall)

	e.metrics.ObserveScore(overall)

	return model.QualityScore{
		Overall:        overall,
		PerDimension:   dims,
		Flags:          flagsFor(dims),
		Level:          model.LevelFor(overall),
		ReviewRequired: overall < model.ReviewThreshold,
		CriticalIssues: overall < model.CriticalThreshold,
		Suggestions:    suggestionsFor(dims),
	}
}

// languageOf defaults an unset language to German.
func languageOf(spec model.TargetSpec) string {
	if spec.Language == "" {
		return model.LanguageGerman
	}
	return spec.Language
}

func flagsFor(dims map[model.Dimension]float64) []model.IssueFlag {
	flags := []model.IssueFlag{}
	for _, ft := range flagThresholds {
		if dims[ft.dim] < ft.threshold {
			flags = append(flags, ft.flag)
		}
	}
	return flags
}

func suggestionsFor(dims map[model.Dimension]float64) []string {
	var out []string
	for _, sr := range suggestionRules {
		if dims[sr.dim] < sr.threshold {
			out = append(out, sr.text)
		}
	}
	if len(out) == 0 {
		out = append(out, goodQualitySuggestion)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
