package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// rendersTotal counts dashboard renders by chart kind and outcome.
	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricedash_renders_total",
			Help: "Total number of dashboard renders by chart kind and outcome",
		},
		[]string{"chart", "outcome"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricedash_uploads_total",
			Help: "Total number of spreadsheet uploads by file format",
		},
		[]string{"format"},
	)

	uploadRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricedash_upload_rows",
			Help:    "Number of rows read from each accepted upload",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// queryDuration covers connect, query and close for one render.
	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricedash_query_duration_seconds",
			Help:    "Time spent loading the product table from the database",
			Buckets: prometheus.DefBuckets,
		},
	)
)
