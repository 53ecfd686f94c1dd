package anthropic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/resilience"
)

func config0() config.AnthropicConfig {
	return config.AnthropicConfig{
		Key:          "sk-ant-test",
		Model:        "claude-sonnet-4-5-20250929",
		MaxTokens:    2000,
		Temperature:  0.4,
		SystemPrompt: "Du schreibst Kindergeschichten.",
	}
}

func textResponse(text string) *MessageResponse {
	return &MessageResponse{
		ID:         "msg_1",
		Content:    []ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

func TestGeneratorConfigFrom(t *testing.T) {
	c := config0()
	c.RequestsPerSecond = 2
	c.Burst = 4
	c.BreakerFailures = 3
	c.BreakerResetSecs = 10

	cfg := GeneratorConfigFrom(c)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Model)
	assert.Equal(t, int64(2000), cfg.MaxTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.4, *cfg.Temperature, 1e-9)
	assert.InDelta(t, 2, cfg.RequestsPerSecond, 1e-9)
	assert.Equal(t, 4, cfg.Burst)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.Breaker.ResetTimeout)
}

func TestGenerator_Generate(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req MessageRequest) bool {
		return req.Model == "claude-sonnet-4-5-20250929" &&
			req.MaxTokens == 2000 &&
			req.Prompt == "Schreibe eine Geschichte." &&
			len(req.System) == 1 &&
			req.System[0].CacheControl != nil
	})).Return(textResponse("Es war einmal."), nil)

	g := NewGenerator(mc, GeneratorConfigFrom(config0()))
	text, err := g.Generate(context.Background(), "Schreibe eine Geschichte.")
	require.NoError(t, err)
	assert.Equal(t, "Es war einmal.", text)
	mc.AssertExpectations(t)
}

func TestGenerator_NoSystemPrompt(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req MessageRequest) bool {
		return req.System == nil
	})).Return(textResponse("ok"), nil)

	c := config0()
	c.SystemPrompt = ""
	_, err := NewGenerator(mc, GeneratorConfigFrom(c)).Generate(context.Background(), "p")
	require.NoError(t, err)
	mc.AssertExpectations(t)
}

func TestGenerator_EmptyResponse(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{StopReason: "max_tokens"}, nil)

	_, err := NewGenerator(mc, GeneratorConfigFrom(config0())).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerator_BreakerTripsOnTransient(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("overloaded"), 529))

	c := config0()
	c.BreakerFailures = 2
	c.BreakerResetSecs = 3600
	g := NewGenerator(mc, GeneratorConfigFrom(c))

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), "p")
		require.Error(t, err)
		assert.True(t, resilience.IsTransient(err))
	}
	assert.Equal(t, resilience.CircuitOpen, g.Breaker().State())

	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	mc.AssertNumberOfCalls(t, "CreateMessage", 2)
}

func TestGenerator_PermanentErrorsDoNotTrip(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("invalid request"))

	c := config0()
	c.BreakerFailures = 1
	g := NewGenerator(mc, GeneratorConfigFrom(c))

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), "p")
		require.Error(t, err)
	}
	assert.Equal(t, resilience.CircuitClosed, g.Breaker().State())
	mc.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestGenerator_RateLimitHonorsContext(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("ok"), nil)

	c := config0()
	c.RequestsPerSecond = 0.001
	c.Burst = 1
	g := NewGenerator(mc, GeneratorConfigFrom(c))

	_, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	mc.AssertNumberOfCalls(t, "CreateMessage", 1)
}
