package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/content-gate/internal/constraint"
	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/orchestrator"
	"github.com/sells-group/content-gate/internal/policy"
	"github.com/sells-group/content-gate/internal/promotion"
	"github.com/sells-group/content-gate/internal/resilience"
	"github.com/sells-group/content-gate/internal/scorer"
	"github.com/sells-group/content-gate/internal/store"
)

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

const story = "Der kleine Fuchs lief mutig durch den Wald. Er fand eine Freundin. Gemeinsam lachten sie laut."

func newTestServer(t *testing.T, gen orchestrator.Generator) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	live, err := policy.NewLive(policy.Default())
	require.NoError(t, err)
	sc, err := scorer.NewEngine(live, scorer.DefaultScoringConfig())
	require.NoError(t, err)
	ce := constraint.NewEngine(live)

	st := store.NewMemory()
	gate, err := promotion.New(st, promotion.DefaultConfig())
	require.NoError(t, err)

	orch := orchestrator.New(gen, sc, ce, orchestrator.Options{Backoff: resilience.Backoff{Initial: 1, Max: 1, Multiplier: 1}})

	srv := New(Deps{
		Scorer:            sc,
		Constraints:       ce,
		Orchestrator:      orch,
		Gate:              gate,
		Policy:            live,
		Store:             st,
		DefaultMaxRetries: 1,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["generator"])
}

func TestHealth_StoreDown(t *testing.T) {
	srv := New(Deps{Store: pingerFunc(func(context.Context) error { return errors.New("connection refused") })})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, body["store"], "connection refused")
}

func TestMetrics(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvaluate(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	body := `{"text": "` + story + `", "target": {"wordCount": 16, "audience": "early_reader", "emotionTag": "courage"}}`
	resp, out := do(t, http.MethodPost, ts.URL+"/v1/evaluate", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overall, ok := out["overall"].(float64)
	require.True(t, ok)
	assert.Greater(t, overall, 0.0)
	assert.LessOrEqual(t, overall, 1.0)
	assert.Contains(t, out, "perDimension")
}

func TestEvaluate_BadInput(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"text": `},
		{"missing audience", `{"text": "hi", "target": {"wordCount": 10}}`},
		{"negative word count", `{"text": "hi", "target": {"wordCount": -1, "audience": "preschool"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := do(t, http.MethodPost, ts.URL+"/v1/evaluate", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestEvaluateBilingual(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	body := `{"german": "` + story + `", "english": "The little fox ran bravely through the forest. He found a friend. Together they laughed out loud.", "target": {"wordCount": 16, "audience": "early_reader"}}`
	resp, out := do(t, http.MethodPost, ts.URL+"/v1/evaluate/bilingual", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, "german")
	assert.Contains(t, out, "english")
	assert.Contains(t, out, "consistency")
}

func TestConstraints(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, out := do(t, http.MethodPost, ts.URL+"/v1/constraints", `{"text": "`+story+`", "audience": "preschool"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "healthScore")

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/constraints", `{"text": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerate_NoGenerator(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, out := do(t, http.MethodPost, ts.URL+"/v1/generate", `{"prompt": "p", "target": {"audience": "preschool"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, out["error"])
}

func TestGenerate(t *testing.T) {
	calls := 0
	gen := generatorFunc(func(context.Context, string) (string, error) {
		calls++
		return story, nil
	})
	ts, _ := newTestServer(t, gen)

	resp, out := do(t, http.MethodPost, ts.URL+"/v1/generate", `{"prompt": "Write a fox story", "target": {"wordCount": 16, "audience": "early_reader"}, "maxRetries": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, story, out["finalText"])
	assert.Equal(t, 1, calls)

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/generate", `{"prompt": "", "target": {"audience": "early_reader"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPromotionLifecycle(t *testing.T) {
	ts, st := newTestServer(t, nil)
	base := ts.URL + "/v1"

	resp, out := do(t, http.MethodPost, base+"/promotions", `{"artifactId": "story-1", "version": "v1", "qualityScore": 0.9, "feedbackScore": 0.9}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "APPROVED", out["status"])
	assert.Equal(t, true, out["approved"])

	resp, out = do(t, http.MethodPost, base+"/promotions", `{"artifactId": "story-1", "version": "v2", "qualityScore": 0.9, "feedbackScore": 0.9}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COOLDOWN", out["status"])
	assert.Contains(t, out, "cooldownRemainingHours")

	resp, out = do(t, http.MethodGet, base+"/artifacts/story-1/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recs, ok := out["records"].([]any)
	require.True(t, ok)
	assert.Len(t, recs, 2)

	resp, out = do(t, http.MethodGet, base+"/artifacts/story-1/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, out["totalAttempts"])
	assert.EqualValues(t, 1, out["approvedCount"])

	resp, _ = do(t, http.MethodPost, base+"/artifacts/story-1/cooldown/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, ok, err := st.LastPromotion(context.Background(), "story-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromote_InvalidRequest(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, out := do(t, http.MethodPost, ts.URL+"/v1/promotions", `{"artifactId": "", "qualityScore": 0.9, "feedbackScore": 0.9}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "artifact id is required")
}

func TestGateConfig(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	url := ts.URL + "/v1/config/gate"

	resp, out := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 24, out["cooldownHours"])

	resp, out = do(t, http.MethodPatch, url, `{"cooldownHours": 6}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 6, out["cooldownHours"])

	resp, _ = do(t, http.MethodPatch, url, `{"scoreWeight": 0.9}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, out = do(t, http.MethodGet, url, "")
	assert.EqualValues(t, 6, out["cooldownHours"])
	assert.EqualValues(t, 0.7, out["scoreWeight"])
}

func TestScoringConfig(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	url := ts.URL + "/v1/config/scoring"

	resp, out := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0.25, out["wordLimitWeight"])

	resp, out = do(t, http.MethodPatch, url, `{"wordLimitWeight": 0.45, "structureWeight": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0.45, out["wordLimitWeight"])
	assert.EqualValues(t, 0.2, out["emotionWeight"])

	resp, out = do(t, http.MethodPatch, url, `{"emotionWeight": 0.9}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "weights should sum to 1")

	resp, _ = do(t, http.MethodPatch, url, `{"emotionWeight": "lots"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, out = do(t, http.MethodGet, url, "")
	assert.EqualValues(t, 0.45, out["wordLimitWeight"])
	assert.EqualValues(t, 0, out["structureWeight"])
}

func TestAudienceConfig(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	base := ts.URL + "/v1/config/policy/audiences/"

	resp, out := do(t, http.MethodGet, base+"kids", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, policy.EarlyReader, out["audience"])

	resp, out = do(t, http.MethodPatch, base+policy.EarlyReader, `{"wordCount": {"max": 500}, "minParagraphs": 2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := out["table"].(map[string]any)
	assert.EqualValues(t, 2, table["minParagraphs"])
	band := table["wordCount"].(map[string]any)
	assert.EqualValues(t, 500, band["max"])
	assert.EqualValues(t, 300, band["min"])

	resp, out = do(t, http.MethodPatch, base+policy.EarlyReader, `{"wordCount": {"max": 100}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "min <= target <= max")

	resp, _ = do(t, http.MethodPatch, base+"toddler", `{"minParagraphs": 1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, base+"toddler", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, out = do(t, http.MethodGet, base+policy.EarlyReader, "")
	band = out["table"].(map[string]any)["wordCount"].(map[string]any)
	assert.EqualValues(t, 500, band["max"])
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/promotions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://studio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRespondErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", model.InvalidInput("bad"), http.StatusBadRequest},
		{"no generator", orchestrator.ErrNoGenerator, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondErr(w, tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}
