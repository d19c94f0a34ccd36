// Package metrics exports bot activity as Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/puremath/internal/ports"
)

const namespace = "puremath"

// Metrics implements ports.Metrics on top of Prometheus collectors.
type Metrics struct {
	updates       *prometheus.CounterVec
	throttled     prometheus.Counter
	cacheLookups  *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	artifacts     *prometheus.CounterVec
	questions     *prometheus.HistogramVec
	workersBusy   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// MustNew registers the collectors with reg, panicking on conflicts like the
// promauto helpers do. Tests should pass a fresh prometheus.NewRegistry().
func MustNew(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound updates by kind (command, question, skipped).",
		}, []string{"kind"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_total",
			Help:      "Questions rejected by the per-user rate limiter.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Backend generation latency including retries.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}, []string{"outcome"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_delivered_total",
			Help:      "Rendered artifacts sent to users by kind and status.",
		}, []string{"kind", "status"}),
		questions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "question_duration_seconds",
			Help:      "End-to-end question handling time by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		workersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Questions currently being handled by the worker pool.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.updates, m.throttled, m.cacheLookups, m.modelDuration, m.artifacts, m.questions, m.workersBusy)
	return m
}

func (m *Metrics) UpdateReceived(kind string) {
	m.updates.WithLabelValues(kind).Inc()
}

func (m *Metrics) Throttled() {
	m.throttled.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ModelCall(outcome string, elapsed time.Duration) {
	m.modelDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ArtifactDelivered(kind string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.artifacts.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) QuestionCompleted(outcome string, elapsed time.Duration) {
	m.questions.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) WorkersBusy(delta int) {
	m.workersBusy.Add(float64(delta))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log ports.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics endpoint listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

var _ ports.Metrics = (*Metrics)(nil)
