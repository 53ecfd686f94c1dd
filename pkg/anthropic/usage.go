package anthropic

import (
	"strings"

	"go.uber.org/zap"
)

// Prompt cache pricing relative to the base input rate.
const (
	cacheWriteMultiplier = 1.25
	cacheReadMultiplier  = 0.1
)

// modelRate is USD per million tokens.
type modelRate struct {
	input, output float64
}

// familyRates are keyed by model family so dated model IDs resolve.
var familyRates = map[string]modelRate{
	"claude-haiku":  {input: 0.80, output: 4.00},
	"claude-sonnet": {input: 3.00, output: 15.00},
	"claude-opus":   {input: 15.00, output: 75.00},
}

func rateFor(model string) (modelRate, bool) {
	for family, r := range familyRates {
		if strings.HasPrefix(model, family) {
			return r, true
		}
	}
	return modelRate{}, false
}

// TokenUsage is the token count of one generation call.
type TokenUsage struct {
	InputTokens      int64 `json:"inputTokens"`
	OutputTokens     int64 `json:"outputTokens"`
	CacheWriteTokens int64 `json:"cacheWriteTokens,omitempty"`
	CacheReadTokens  int64 `json:"cacheReadTokens,omitempty"`
}

// EstimateCost returns the estimated cost in USD, or 0 for an unknown
// model family.
func (u TokenUsage) EstimateCost(model string) float64 {
	r, ok := rateFor(model)
	if !ok {
		return 0
	}
	const perToken = 1e-6
	return perToken * (float64(u.InputTokens)*r.input +
		float64(u.OutputTokens)*r.output +
		float64(u.CacheWriteTokens)*r.input*cacheWriteMultiplier +
		float64(u.CacheReadTokens)*r.input*cacheReadMultiplier)
}

// LogCost logs the usage and estimated cost of one call.
func (u TokenUsage) LogCost(model string) {
	zap.L().Info("anthropic: usage",
		zap.String("model", model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheWriteTokens),
		zap.Int64("cache_read_tokens", u.CacheReadTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}
