package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters on a private registry. All methods are
// safe on a nil receiver so tests can pass nil.
type Metrics struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	persistFailures prometheus.Counter
	exports         *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	remoteSyncs     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "mutations_total",
			Help:      "Inventory store mutations by operation.",
		}, []string{"op"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "persist_failures_total",
			Help:      "Failed writes of a city bundle to storage.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "exports_total",
			Help:      "Generated workbooks by delivery mode.",
		}, []string{"mode"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "bot_uploads_total",
			Help:      "Workbooks received by the bot, by result.",
		}, []string{"result"}),
		remoteSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "remote_syncs_total",
			Help:      "Remote spreadsheet sync runs, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		m.mutations,
		m.persistFailures,
		m.exports,
		m.uploads,
		m.remoteSyncs,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Mutation(op string) {
	if m != nil {
		m.mutations.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) PersistFailure() {
	if m != nil {
		m.persistFailures.Inc()
	}
}

func (m *Metrics) Export(mode string) {
	if m != nil {
		m.exports.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) Upload(result string) {
	if m != nil {
		m.uploads.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) RemoteSync(result string) {
	if m != nil {
		m.remoteSyncs.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) HTTPRequest(route, code string) {
	if m != nil {
		m.httpRequests.WithLabelValues(route, code).Inc()
	}
}
