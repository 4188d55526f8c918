package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chaosfire"

// Exporter mirrors collector data as Prometheus series on a private registry.
// A nil *Exporter discards everything.
type Exporter struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	injections *prometheus.CounterVec
}

var _ Recorder = (*Exporter)(nil)

func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Exporter{
		registry: reg,
		// Labels: outcome (success, failure), source (upstream, injected)
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests completed, by outcome and by whether chaos produced the outcome",
		}, []string{"outcome", "source"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency including injected delay",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"outcome"}),
		// Labels: kind (fault, latency, result, behavior), strategy
		injections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injections_total",
			Help:      "Chaos injections performed",
		}, []string{"kind", "strategy"}),
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (e *Exporter) Registry() *prometheus.Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

func (e *Exporter) RecordRequest(latency time.Duration, err error, meta *RequestMetadata) {
	if e == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	source := SourceUpstream
	if meta != nil && meta.Injected {
		source = SourceInjected
	}
	e.requests.WithLabelValues(outcome, source).Inc()
	e.latency.WithLabelValues(outcome).Observe(latency.Seconds())
}

func (e *Exporter) RecordInjection(kind, strategy string) {
	if e == nil {
		return
	}
	e.injections.WithLabelValues(kind, strategy).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	if e == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// Serve starts a /metrics server on addr. Shut it down with the returned
// server's Shutdown.
func (e *Exporter) Serve(addr string, onError func(error)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && onError != nil {
			onError(err)
		}
	}()
	return srv
}
