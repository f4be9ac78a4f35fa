// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/patternmark/pkg/observability"
)

const namespace = "patternmark"

// Hooks records store and document events as Prometheus metrics.
type Hooks struct {
	mutations   *prometheus.CounterVec
	annotations prometheus.Gauge
	loads       *prometheus.CounterVec
	discarded   prometheus.Counter
	reads       *prometheus.CounterVec
	writes      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	written     prometheus.Counter
}

// New creates unregistered collectors. Call Register before use.
func New() *Hooks {
	return &Hooks{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Annotation store mutations by operation.",
		}, []string{"op"}),
		annotations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "annotations",
			Help:      "Number of annotations after the last mutation.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "loads_total",
			Help:      "Document loads by result.",
		}, []string{"result"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "discarded_records_total",
			Help:      "Invalid persisted records dropped during load.",
		}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "reads_total",
			Help:      "Document reads by backend and result.",
		}, []string{"backend", "result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "writes_total",
			Help:      "Document writes by backend and result.",
		}, []string{"backend", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operation_seconds",
			Help:      "Document operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "written_bytes_total",
			Help:      "Bytes written to document storage.",
		}),
	}
}

// Register registers every collector with r.
// Collectors that are already registered are tolerated.
func (h *Hooks) Register(r prometheus.Registerer) error {
	for _, c := range h.collectors() {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (h *Hooks) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		h.mutations, h.annotations, h.loads, h.discarded,
		h.reads, h.writes, h.latency, h.written,
	}
}

// OnMutation implements observability.StoreHooks.
func (h *Hooks) OnMutation(op string, annotations int) {
	h.mutations.WithLabelValues(op).Inc()
	h.annotations.Set(float64(annotations))
}

// OnLoad implements observability.StoreHooks.
func (h *Hooks) OnLoad(annotations, discarded int, err error) {
	if err != nil {
		h.loads.WithLabelValues("malformed").Inc()
		return
	}
	h.loads.WithLabelValues("ok").Inc()
	h.discarded.Add(float64(discarded))
	h.annotations.Set(float64(annotations))
}

// OnRead implements observability.DocumentHooks.
func (h *Hooks) OnRead(_ context.Context, backend string, hit bool, d time.Duration, err error) {
	h.reads.WithLabelValues(backend, readResult(hit, err)).Inc()
	h.latency.WithLabelValues(backend, "read").Observe(d.Seconds())
}

// OnWrite implements observability.DocumentHooks.
func (h *Hooks) OnWrite(_ context.Context, backend string, size int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		h.written.Add(float64(size))
	}
	h.writes.WithLabelValues(backend, result).Inc()
	h.latency.WithLabelValues(backend, "write").Observe(d.Seconds())
}

func readResult(hit bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case hit:
		return "hit"
	default:
		return "miss"
	}
}

var (
	_ observability.StoreHooks    = (*Hooks)(nil)
	_ observability.DocumentHooks = (*Hooks)(nil)
)
