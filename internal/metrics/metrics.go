// Package metrics exposes Prometheus instruments for sync runs and Tickspot
// API calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tickspot_scraper"

// Sync groups the instruments recorded by the sync use case and the API
// client. All methods are safe on a nil *Sync.
type Sync struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	synced      *prometheus.CounterVec
	apiCalls    *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

// NewSync creates the instruments and registers them with reg.
func NewSync(reg prometheus.Registerer) (*Sync, error) {
	s := &Sync{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of a sync run.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		synced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synced_records_total",
			Help:      "Records upserted into the sink by kind.",
		}, []string{"kind"}),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_total",
			Help:      "Tickspot API calls by method and status code.",
		}, []string{"method", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_duration_seconds",
			Help:      "Tickspot API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	for _, c := range []prometheus.Collector{s.runs, s.runDuration, s.synced, s.apiCalls, s.apiDuration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering sync metrics")
		}
	}
	return s, nil
}

// ObserveRun records one finished sync run.
func (s *Sync) ObserveRun(d time.Duration, err error) {
	if s == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.runs.WithLabelValues(result).Inc()
	s.runDuration.Observe(d.Seconds())
}

// AddSynced counts n upserted records of kind.
func (s *Sync) AddSynced(kind string, n int) {
	if s == nil || n <= 0 {
		return
	}
	s.synced.WithLabelValues(kind).Add(float64(n))
}

// ObserveCall records one API call. status is 0 when no reply was received.
func (s *Sync) ObserveCall(method string, status int, d time.Duration) {
	if s == nil {
		return
	}
	s.apiCalls.WithLabelValues(method, strconv.Itoa(status)).Inc()
	s.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
