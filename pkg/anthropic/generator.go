package anthropic

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/resilience"
)

// ErrEmptyResponse is returned when the model answers without text.
var ErrEmptyResponse = eris.New("anthropic: empty response")

// GeneratorConfig tunes the Generator.
type GeneratorConfig struct {
	Model        string
	MaxTokens    int64
	Temperature  *float64
	SystemPrompt string

	// RequestsPerSecond limits calls to the API. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int

	Breaker resilience.CircuitBreakerConfig
}

// GeneratorConfigFrom converts the provider section of the app config.
func GeneratorConfigFrom(c config.AnthropicConfig) GeneratorConfig {
	temp := c.Temperature
	return GeneratorConfig{
		Model:             c.Model,
		MaxTokens:         c.MaxTokens,
		Temperature:       &temp,
		SystemPrompt:      c.SystemPrompt,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Breaker:           resilience.BreakerFromConfig(c),
	}
}

// ClientOptions builds SDK options from the provider config.
func ClientOptions(c config.AnthropicConfig) []option.RequestOption {
	var opts []option.RequestOption
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(c.TimeoutSecs)*time.Second))
	}
	return opts
}

// Generator produces text for a prompt with one Messages call. Calls are
// rate limited and guarded by a circuit breaker that trips on transient
// provider failures only.
type Generator struct {
	client  Client
	cfg     GeneratorConfig
	system  []SystemBlock
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// NewGenerator creates a Generator over client.
func NewGenerator(client Client, cfg GeneratorConfig) *Generator {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if cfg.Breaker.ShouldTrip == nil {
		cfg.Breaker.ShouldTrip = resilience.IsTransient
	}
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = resilience.StateLogger("anthropic")
	}
	return &Generator{
		client:  client,
		cfg:     cfg,
		system:  BuildCachedSystemBlocks(cfg.SystemPrompt, ""),
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (g *Generator) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// Generate sends prompt as a single user message and returns the text of
// the answer.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "anthropic: rate limit wait")
	}

	resp, err := resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (*MessageResponse, error) {
		return g.client.CreateMessage(ctx, MessageRequest{
			Model:       g.cfg.Model,
			MaxTokens:   g.cfg.MaxTokens,
			System:      g.system,
			Prompt:      prompt,
			Temperature: g.cfg.Temperature,
		})
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(g.cfg.Model)
	if resp.Truncated() {
		zap.L().Warn("anthropic: response truncated at max tokens",
			zap.String("model", g.cfg.Model),
			zap.Int64("max_tokens", g.cfg.MaxTokens),
		)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
