package resilience

import (
	"time"

	"github.com/sells-group/content-gate/internal/config"
)

// BackoffFromConfig converts retry settings to a Backoff. Unset values keep
// the defaults.
func BackoffFromConfig(c config.RetryConfig) Backoff {
	b := DefaultBackoff()
	if c.InitialBackoffMs > 0 {
		b.Initial = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		b.Max = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	if c.Multiplier > 0 {
		b.Multiplier = c.Multiplier
	}
	if c.JitterFraction >= 0 {
		b.JitterFraction = c.JitterFraction
	}
	return b
}

// BreakerFromConfig converts provider settings to a CircuitBreakerConfig.
func BreakerFromConfig(c config.AnthropicConfig) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if c.BreakerFailures > 0 {
		cfg.FailureThreshold = c.BreakerFailures
	}
	if c.BreakerResetSecs > 0 {
		cfg.ResetTimeout = time.Duration(c.BreakerResetSecs) * time.Second
	}
	return cfg
}
