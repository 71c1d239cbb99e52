// Package prom implements the observability hooks with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	m.Register() // installs m as codec, store and HTTP hooks
//
// All metrics live under the graphjson namespace.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/graphjson/pkg/observability"
)

const namespace = "graphjson"

// Metrics holds the collectors behind the hooks.
type Metrics struct {
	// DecodesTotal counts decodes by status (ok, error).
	DecodesTotal *prometheus.CounterVec
	// EncodesTotal counts encodes by status (ok, error).
	EncodesTotal *prometheus.CounterVec
	// Duration measures decode and encode time by op.
	Duration *prometheus.HistogramVec
	// Nodes counts nodes read or written by op.
	Nodes *prometheus.CounterVec
	// Diagnostics counts diagnostics recorded while decoding.
	Diagnostics prometheus.Counter
	// References counts reference resolutions by result (resolved, unresolved).
	References *prometheus.CounterVec
	// InFlight is the number of decodes and encodes running.
	InFlight prometheus.Gauge

	// StoreOps counts store events by backend and result (hit, miss, set).
	StoreOps *prometheus.CounterVec
	// StoreBytes counts bytes written by backend.
	StoreBytes *prometheus.CounterVec

	// HTTPRequests counts outgoing requests by method and status code.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration measures outgoing request latency by host.
	HTTPDuration *prometheus.HistogramVec
	// HTTPErrors counts failed outgoing requests by host.
	HTTPErrors *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		DecodesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "codec", Name: "decodes_total",
			Help: "Documents decoded by status.",
		}, []string{"status"}),
		EncodesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "codec", Name: "encodes_total",
			Help: "Documents encoded by status.",
		}, []string{"status"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "codec", Name: "duration_seconds",
			Help:    "Decode and encode duration in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
		Nodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "codec", Name: "nodes_total",
			Help: "Nodes decoded or encoded.",
		}, []string{"op"}),
		Diagnostics: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "codec", Name: "diagnostics_total",
			Help: "Diagnostics recorded while decoding.",
		}),
		References: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "codec", Name: "references_total",
			Help: "References bound after decoding by result.",
		}, []string{"result"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "codec", Name: "in_flight",
			Help: "Decodes and encodes currently running.",
		}),
		StoreOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "operations_total",
			Help: "Store reads and writes by backend and result.",
		}, []string{"backend", "result"}),
		StoreBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "written_bytes_total",
			Help: "Bytes written to stores.",
		}, []string{"backend"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http_client", Name: "requests_total",
			Help: "Outgoing HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http_client", Name: "duration_seconds",
			Help:    "Outgoing HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		HTTPErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http_client", Name: "errors_total",
			Help: "Outgoing HTTP requests that failed without a response.",
		}, []string{"host"}),
	}
}

// Register installs m as the global codec, store and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetCodecHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnDecodeStart(context.Context, string) { m.InFlight.Inc() }

func (m *Metrics) OnDecodeComplete(_ context.Context, _ string, nodes, diagnostics int, d time.Duration, err error) {
	m.InFlight.Dec()
	m.DecodesTotal.WithLabelValues(status(err)).Inc()
	m.Duration.WithLabelValues("decode").Observe(d.Seconds())
	m.Nodes.WithLabelValues("decode").Add(float64(nodes))
	m.Diagnostics.Add(float64(diagnostics))
}

func (m *Metrics) OnEncodeStart(context.Context, string) { m.InFlight.Inc() }

func (m *Metrics) OnEncodeComplete(_ context.Context, _ string, nodes int, d time.Duration, err error) {
	m.InFlight.Dec()
	m.EncodesTotal.WithLabelValues(status(err)).Inc()
	m.Duration.WithLabelValues("encode").Observe(d.Seconds())
	m.Nodes.WithLabelValues("encode").Add(float64(nodes))
}

func (m *Metrics) OnResolve(_ context.Context, _ string, resolved, unresolved int) {
	m.References.WithLabelValues("resolved").Add(float64(resolved))
	m.References.WithLabelValues("unresolved").Add(float64(unresolved))
}

func (m *Metrics) OnStoreHit(_ context.Context, backend string) {
	m.StoreOps.WithLabelValues(backend, "hit").Inc()
}

func (m *Metrics) OnStoreMiss(_ context.Context, backend string) {
	m.StoreOps.WithLabelValues(backend, "miss").Inc()
}

func (m *Metrics) OnStoreSet(_ context.Context, backend string, size int) {
	m.StoreOps.WithLabelValues(backend, "set").Inc()
	m.StoreBytes.WithLabelValues(backend).Add(float64(size))
}

// OnRequest is a no-op; requests are counted when they complete.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, host, _ string, code int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.HTTPErrors.WithLabelValues(host).Inc()
}

var (
	_ observability.CodecHooks = (*Metrics)(nil)
	_ observability.StoreHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
