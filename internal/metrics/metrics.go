// Package metrics exposes Prometheus counters for the RSI check pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds all Prometheus metrics for the watcher. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ChecksTotal   *prometheus.CounterVec // labels: outcome
	FetchAttempts *prometheus.CounterVec // labels: result
	AlertsTotal   *prometheus.CounterVec // labels: signal
	LastRSI       prometheus.Gauge
	CheckDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics registers and returns all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsisentinel_checks_total",
			Help: "RSI check cycles by outcome",
		}, []string{"outcome"}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsisentinel_fetch_attempts_total",
			Help: "Kline fetch attempts by result",
		}, []string{"result"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsisentinel_alerts_total",
			Help: "Alerts delivered by signal",
		}, []string{"signal"}),
		LastRSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rsisentinel_rsi",
			Help: "Most recently computed RSI value",
		}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rsisentinel_check_duration_seconds",
			Help:    "Wall time of one check cycle",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 180, 600},
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.ChecksTotal, m.FetchAttempts, m.AlertsTotal, m.LastRSI, m.CheckDuration)
	return m
}

func (m *Metrics) ObserveFetchAttempt(result string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCheck(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
	m.CheckDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRSI(rsi int) {
	if m == nil {
		return
	}
	m.LastRSI.Set(float64(rsi))
}

func (m *Metrics) ObserveAlert(signal string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(signal).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, log logrus.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
