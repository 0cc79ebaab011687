package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/riskibarqy/skater-value/internal/usecase"
)

const metricsNamespace = "skater_value"

// Metrics records pipeline runs in its own registry. The pipeline is a batch job, so the
// registry is pushed to a Pushgateway after each run instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	loads         *prometheus.CounterVec
	datasetRows   *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	discrepancies prometheus.Gauge
	lastRunUnix   *prometheus.GaugeVec
}

var _ usecase.RunObserver = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset loads by snapshot outcome.",
		}, []string{"dataset", "outcome"}),
		datasetRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded table per dataset.",
		}, []string{"dataset"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		discrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "discrepancy_players",
			Help:      "Players in the latest discrepancy table.",
		}),
		lastRunUnix: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last run by status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveLoad(dataset string, outcome usecase.LoadOutcome, rows int) {
	m.loads.WithLabelValues(dataset, string(outcome)).Inc()
	m.datasetRows.WithLabelValues(dataset).Set(float64(rows))
}

func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRun(status string, discrepancies int, elapsed time.Duration) {
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.lastRunUnix.WithLabelValues(status).SetToCurrentTime()
	if status == usecase.RunStatusSucceeded {
		m.discrepancies.Set(float64(discrepancies))
	}
}

// Push replaces the job's metric group on the gateway. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
