package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/audit"
	"github.com/sells-group/content-gate/internal/constraint"
	"github.com/sells-group/content-gate/internal/orchestrator"
	"github.com/sells-group/content-gate/internal/policy"
	"github.com/sells-group/content-gate/internal/promotion"
	"github.com/sells-group/content-gate/internal/scorer"
	"github.com/sells-group/content-gate/internal/store"
	anthropicpkg "github.com/sells-group/content-gate/pkg/anthropic"
)

// engines are the pure evaluation components. They need no external
// resources.
type engines struct {
	Policy      *policy.Live
	Scorer      *scorer.Engine
	Constraints *constraint.Engine
}

// initEngines loads the policy table (file or defaults) and builds the
// scorer and constraint engines.
func initEngines() (*engines, error) {
	p := policy.Default()
	if cfg.Policy.File != "" {
		loaded, err := policy.LoadFile(cfg.Policy.File)
		if err != nil {
			return nil, err
		}
		p = loaded
		zap.L().Info("policy loaded", zap.String("file", cfg.Policy.File))
	}
	live, err := policy.NewLive(p)
	if err != nil {
		return nil, eris.Wrap(err, "init policy")
	}
	sc, err := scorer.NewEngine(live, cfg.Scoring)
	if err != nil {
		return nil, eris.Wrap(err, "init scorer")
	}
	return &engines{
		Policy:      live,
		Scorer:      sc,
		Constraints: constraint.NewEngine(live),
	}, nil
}

// gateEnv holds the promotion gate and the resources behind it.
type gateEnv struct {
	Store     store.HistoryStore
	Publisher audit.Publisher
	Gate      *promotion.Gate
}

// Close releases the store and the audit publisher.
func (ge *gateEnv) Close() {
	if ge.Publisher != nil {
		if err := ge.Publisher.Close(); err != nil {
			zap.L().Warn("close audit publisher", zap.Error(err))
		}
	}
	if ge.Store != nil {
		_ = ge.Store.Close()
	}
}

// initGate opens the history store and the audit publisher and builds the
// gate. Callers should defer env.Close().
func initGate(ctx context.Context) (*gateEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	pub, err := audit.New(cfg.Audit)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init audit publisher")
	}

	gate, err := promotion.New(st, promotion.ConfigFromSettings(cfg.Gate), promotion.WithPublisher(pub))
	if err != nil {
		_ = pub.Close()
		_ = st.Close()
		return nil, err
	}

	zap.L().Debug("gate initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Int("audit_brokers", len(cfg.Audit.Brokers)),
	)
	return &gateEnv{Store: st, Publisher: pub, Gate: gate}, nil
}

// initOrchestrator builds the retry orchestrator. Without an API key the
// orchestrator has no generator and Run reports ErrNoGenerator.
func initOrchestrator(e *engines) *orchestrator.Orchestrator {
	var gen orchestrator.Generator
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key, anthropicpkg.ClientOptions(cfg.Anthropic)...)
		gen = anthropicpkg.NewGenerator(client, anthropicpkg.GeneratorConfigFrom(cfg.Anthropic))
	} else {
		zap.L().Debug("CONTENTGATE_ANTHROPIC_KEY not set, generation disabled")
	}
	return orchestrator.New(gen, e.Scorer, e.Constraints, orchestrator.OptionsFromConfig(cfg.Retry))
}
