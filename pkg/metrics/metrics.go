// Package metrics collects the figures of one cycle on a private Prometheus registry. A batch
// job has no scrape endpoint, so the registry is pushed to a Pushgateway when one is
// configured.
package metrics

import (
	"fmt"
	"time"

	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const job = "airpods_dealz"

// Recorder is safe to use as a nil pointer, in which case every call is a no-op.
type Recorder struct {
	reg *prometheus.Registry

	records       *prometheus.CounterVec
	attempts      *prometheus.GaugeVec
	alerts        *prometheus.CounterVec
	cheapest      *prometheus.GaugeVec
	average       *prometheus.GaugeVec
	ledgerSize    prometheus.Gauge
	cycleDuration prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealz_records_total",
				Help: "Raw records handled per source and outcome",
			},
			[]string{"source", "outcome"},
		),
		attempts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dealz_source_attempts",
				Help: "Extraction attempts used per source in the last cycle",
			},
			[]string{"source"},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealz_alerts_total",
				Help: "Offers alerted per tier",
			},
			[]string{"tier"},
		),
		cheapest: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dealz_cheapest_price",
				Help: "Cheapest current price per tier",
			},
			[]string{"tier"},
		),
		average: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dealz_rolling_average_price",
				Help: "One month rolling average price per tier",
			},
			[]string{"tier"},
		),
		ledgerSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dealz_ledger_entries",
				Help: "Entries in the history ledger after the cycle",
			},
		),
		cycleDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dealz_cycle_duration_seconds",
				Help: "Wall time of the last cycle",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dealz_last_success_timestamp_seconds",
				Help: "Unix time of the last cycle that completed",
			},
		),
	}

	r.reg.MustRegister(
		r.records,
		r.attempts,
		r.alerts,
		r.cheapest,
		r.average,
		r.ledgerSize,
		r.cycleDuration,
		r.lastSuccess,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) Accepted(source string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(source, "accepted").Inc()
}

// Rejected counts a dropped record under its rejection reason.
func (r *Recorder) Rejected(source, reason string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(source, reason).Inc()
}

func (r *Recorder) Attempts(source string, n int) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(source).Set(float64(n))
}

func (r *Recorder) Alerted(t product.Tier) {
	if r == nil {
		return
	}
	r.alerts.WithLabelValues(t.String()).Inc()
}

func (r *Recorder) Cheapest(t product.Tier, price float64) {
	if r == nil {
		return
	}
	r.cheapest.WithLabelValues(t.String()).Set(price)
}

func (r *Recorder) Average(t product.Tier, avg float64) {
	if r == nil {
		return
	}
	r.average.WithLabelValues(t.String()).Set(avg)
}

func (r *Recorder) LedgerSize(n int) {
	if r == nil {
		return
	}
	r.ledgerSize.Set(float64(n))
}

// CycleDone records the duration of a completed cycle.
func (r *Recorder) CycleDone(d time.Duration, at time.Time) {
	if r == nil {
		return
	}
	r.cycleDuration.Set(d.Seconds())
	r.lastSuccess.Set(float64(at.Unix()))
}

// Push replaces this job's metric group on the Pushgateway at url.
func (r *Recorder) Push(url string) error {
	if r == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(r.reg).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
