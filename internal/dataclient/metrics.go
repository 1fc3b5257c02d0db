package dataclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dataclient_request_duration_seconds",
		Help:    "Latency of requests to the REST data server",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"collection", "method", "code"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

func observe(collection, method, code string, start time.Time) {
	requestDuration.WithLabelValues(collection, method, code).Observe(time.Since(start).Seconds())
}
