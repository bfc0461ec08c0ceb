package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	geocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natalis_geocode_requests_total",
		Help: "Place searches by outcome (cache_hit, remote, error, short_query).",
	}, []string{"outcome"})

	chartBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natalis_chart_builds_total",
		Help: "Chart ensure runs by outcome (fresh, skipped, rendered, no_markup, failed).",
	}, []string{"outcome"})

	chartQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "natalis_chart_queue_depth",
		Help: "Profiles waiting for a chart build.",
	})

	upstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natalis_upstream_request_seconds",
		Help:    "Latency of calls to remote services.",
		Buckets: prometheus.DefBuckets,
	}, []string{"upstream", "result"})

	rectificationScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "natalis_rectification_scored_total",
		Help: "Rectification sessions that reached scoring.",
	})
)

func RecordGeocode(outcome string) {
	geocodeRequests.WithLabelValues(outcome).Inc()
}

func RecordChartBuild(outcome string) {
	chartBuilds.WithLabelValues(outcome).Inc()
}

func SetChartQueueDepth(n int) {
	chartQueueDepth.Set(float64(n))
}

// ObserveUpstream records one remote call; err decides the result label.
func ObserveUpstream(upstream string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	upstreamLatency.WithLabelValues(upstream, result).Observe(d.Seconds())
}

func RecordRectificationScored() {
	rectificationScored.Inc()
}
