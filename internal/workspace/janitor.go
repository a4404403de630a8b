package workspace

import (
	"context"
	"time"

	"github.com/smallbiznis/dunning/internal/clock"
	"github.com/smallbiznis/dunning/internal/config"
	obsmetrics "github.com/smallbiznis/dunning/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// JanitorConfig controls idle eviction.
type JanitorConfig struct {
	SweepInterval time.Duration
	IdleTTL       time.Duration
}

func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		SweepInterval: 5 * time.Minute,
		IdleTTL:       2 * time.Hour,
	}
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	defaults := DefaultJanitorConfig()
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaults.SweepInterval
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = defaults.IdleTTL
	}
	return c
}

func ProvideJanitorConfig(cfg config.Config) JanitorConfig {
	return JanitorConfig{
		SweepInterval: cfg.WorkspaceSweepInterval,
		IdleTTL:       cfg.WorkspaceIdleTTL,
	}.withDefaults()
}

type JanitorParams struct {
	fx.In

	Store   *Store
	Log     *zap.Logger
	Clock   clock.Clock
	Config  JanitorConfig                `optional:"true"`
	Metrics *obsmetrics.WorkspaceMetrics `optional:"true"`
}

// Janitor periodically evicts idle workspaces so abandoned sessions do not
// keep their ledgers in memory.
type Janitor struct {
	store   *Store
	log     *zap.Logger
	clock   clock.Clock
	cfg     JanitorConfig
	metrics *obsmetrics.WorkspaceMetrics
}

func NewJanitor(p JanitorParams) *Janitor {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{
		store:   p.Store,
		log:     log.Named("workspace.janitor"),
		clock:   clk,
		cfg:     p.Config.withDefaults(),
		metrics: p.Metrics,
	}
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce() int {
	start := j.clock.Now()
	evicted := j.store.Sweep(j.cfg.IdleTTL)
	j.metrics.ObserveSweep(j.clock.Now().Sub(start))
	if evicted > 0 {
		j.log.Info("evicted idle workspaces",
			zap.Int("evicted", evicted),
			zap.Int("active", j.store.Len()),
		)
	}
	return evicted
}

func (j *Janitor) RunForever(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.SweepInterval)
	defer ticker.Stop()
	nextRun := j.clock.Now().Add(j.cfg.SweepInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if lag := j.clock.Now().Sub(nextRun); lag > 0 {
			j.metrics.ObserveRunLoopLag(lag)
		}
		j.RunOnce()
		nextRun = nextRun.Add(j.cfg.SweepInterval)
	}
}

func StartJanitor(lc fx.Lifecycle, janitor *Janitor) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go janitor.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
