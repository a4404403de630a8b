package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EvictionReasonIdle    = "idle"
	EvictionReasonCleared = "cleared"
)

// WorkspaceMetrics tracks per-session reconciliation workspaces and the janitor
// that evicts them.
type WorkspaceMetrics struct {
	active        prometheus.Gauge
	created       prometheus.Counter
	evicted       *prometheus.CounterVec
	sweepRuns     prometheus.Counter
	sweepDuration prometheus.Histogram
	runLoopLag    prometheus.Observer
}

var (
	workspaceMetricsOnce sync.Once
	workspaceMetrics     *WorkspaceMetrics
)

// Workspace returns the singleton workspace metrics registry.
func Workspace() *WorkspaceMetrics {
	return WorkspaceWithConfig(Config{})
}

// WorkspaceWithConfig returns the singleton workspace metrics registry using config labels.
func WorkspaceWithConfig(cfg Config) *WorkspaceMetrics {
	workspaceMetricsOnce.Do(func() {
		workspaceMetrics = newWorkspaceMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return workspaceMetrics
}

// ResetWorkspaceMetricsForTest resets the workspace metrics singleton for tests.
func ResetWorkspaceMetricsForTest() {
	workspaceMetricsOnce = sync.Once{}
	workspaceMetrics = nil
}

// NewWorkspaceMetricsForTest builds an unshared registry-bound instance.
func NewWorkspaceMetricsForTest(registerer prometheus.Registerer) *WorkspaceMetrics {
	return newWorkspaceMetrics(registerer, Config{ServiceName: "dunning", Environment: "test"})
}

func newWorkspaceMetrics(registerer prometheus.Registerer, cfg Config) *WorkspaceMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "dunning_workspaces_active",
		Help:        "Reconciliation workspaces currently held in memory.",
		ConstLabels: constLabels,
	})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "dunning_workspaces_created_total",
		Help:        "Reconciliation workspaces opened.",
		ConstLabels: constLabels,
	})
	evicted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "dunning_workspaces_evicted_total",
		Help:        "Reconciliation workspaces dropped, by reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "dunning_workspace_sweeps_total",
		Help:        "Janitor sweep runs.",
		ConstLabels: constLabels,
	})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "dunning_workspace_sweep_duration_seconds",
		Help:        "Time spent evicting idle workspaces.",
		Buckets:     []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		ConstLabels: constLabels,
	})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "dunning_workspace_janitor_lag_seconds",
		Help:        "Lag between the scheduled janitor tick and the sweep start.",
		Buckets:     []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		active,
		created,
		evicted,
		sweepRuns,
		sweepDuration,
		runLoopLag,
	)

	return &WorkspaceMetrics{
		active:        active,
		created:       created,
		evicted:       evicted,
		sweepRuns:     sweepRuns,
		sweepDuration: sweepDuration,
		runLoopLag:    runLoopLag,
	}
}

// SetActive reports the number of live workspaces.
func (m *WorkspaceMetrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

// IncCreated counts an opened workspace.
func (m *WorkspaceMetrics) IncCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// AddEvicted counts dropped workspaces by reason.
func (m *WorkspaceMetrics) AddEvicted(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.evicted.WithLabelValues(reason).Add(float64(count))
}

// ObserveSweep records one janitor run.
func (m *WorkspaceMetrics) ObserveSweep(duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepDuration.Observe(duration.Seconds())
}

// ObserveRunLoopLag records lag between the scheduled tick and actual run start.
func (m *WorkspaceMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil {
		return
	}
	lag := duration
	if lag < 0 {
		lag = 0
	}
	m.runLoopLag.Observe(lag.Seconds())
}
