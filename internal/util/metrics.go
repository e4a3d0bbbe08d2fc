package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_upserted_total",
		Help: "Total number of order rows inserted or replaced",
	})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Total number of order records rejected by validation",
	}, []string{"source"})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Total number of order rows deleted",
	})

	StorageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_storage_failures_total",
		Help: "Total number of failed store operations",
	}, []string{"op"})

	BulkBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orders_bulk_batch_size",
		Help:    "Number of records per bulk ingestion call",
		Buckets: prometheus.ExponentialBuckets(1, 4, 7),
	})

	OrderCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_cache_lookups_total",
		Help: "Order cache lookups by result",
	}, []string{"result"})

	BIProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bi_proxy_requests_total",
		Help: "Total number of BI proxy calls by outcome",
	}, []string{"outcome"})

	BIProxyUpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bi_proxy_upstream_latency_seconds",
		Help:    "Latency of calls to the upstream BI API",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
