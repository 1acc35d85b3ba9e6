package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tpcc_transactions_total",
		Help: "Total number of engine transactions by kind and outcome",
	}, []string{"kind", "outcome"})

	TransactionPhaseSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tpcc_transaction_phase_seconds",
		Help:    "Time spent in the begin, query and commit phases of engine transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "phase"})

	NewOrderRollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tpcc_new_order_rollbacks_total",
		Help: "Total number of New-Order transactions aborted on request",
	})

	DeliveredOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tpcc_delivered_orders_total",
		Help: "Total number of orders delivered",
	})

	DeliveriesQueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tpcc_deliveries_queued_total",
		Help: "Total number of deferred deliveries published",
	})

	DeliveryEventsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tpcc_delivery_events_skipped_total",
		Help: "Total number of duplicate deferred delivery events ignored",
	})

	BrokerMessagesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tpcc_broker_messages_failed_total",
		Help: "Total number of consumed messages dropped after their retries failed",
	}, []string{"topic"})

	CustomerCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tpcc_customer_cache_lookups_total",
		Help: "Customer-by-surname cache lookups by result",
	}, []string{"result"})

	PrepareDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tpcc_prepare_duration_seconds",
		Help:    "Duration of database preparation",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
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
