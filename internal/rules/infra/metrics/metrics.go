// Package metrics records per-run pipeline counters in a private Prometheus
// registry and writes them in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// Fetch results used as the "result" label.
const (
	ResultOK     = "ok"
	ResultError  = "error"
	ResultCached = "cached"
)

// Recorder owns the run metrics.
type Recorder struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	rules    *prometheus.GaugeVec
	lastRun  prometheus.Gauge
}

// New builds a Recorder backed by its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airules_source_fetch_total",
				Help: "Source fetch attempts by source and result",
			},
			[]string{"source", "result"},
		),
		rules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "airules_rules",
				Help: "Rules in the assembled set by category",
			},
			[]string{"category"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airules_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
	}
	r.registry.MustRegister(r.fetches, r.rules, r.lastRun)
	return r
}

// SourceFetched counts one fetch attempt.
func (r *Recorder) SourceFetched(source, result string) {
	r.fetches.WithLabelValues(source, result).Inc()
}

// SetRuleCounts publishes the size of every category.
func (r *Recorder) SetRuleCounts(rules domain.Rules) {
	for _, c := range domain.Categories {
		r.rules.WithLabelValues(c.String()).Set(float64(len(rules.Values(c))))
	}
}

// MarkRun stamps the completion time.
func (r *Recorder) MarkRun(t time.Time) {
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile atomically writes the current values to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
