package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Total number of requests received from the watch",
		},
		[]string{"kind"},
	)

	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_replies_total",
			Help: "Total number of replies delivered to the watch outbox",
		},
		[]string{"kind"},
	)

	PipelineFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_pipeline_failures_total",
			Help: "Total number of request pipelines that ended without a reply",
		},
		[]string{"reason"},
	)

	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_provider_fetch_duration_seconds",
			Help:    "Duration of provider fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)
