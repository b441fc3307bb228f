package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_created_total",
		Help: "Total number of transactions created",
	})

	TransactionsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_approved_total",
		Help: "Total number of transactions marked paid",
	})

	TransactionsSoftDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_soft_deleted_total",
		Help: "Total number of transactions moved to the trash",
	})

	TransactionsRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_restored_total",
		Help: "Total number of transactions restored from the trash",
	})

	TransactionsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_purged_total",
		Help: "Total number of transactions permanently removed",
	})

	TransitionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transitions_rejected_total",
		Help: "Total number of rejected lifecycle transitions",
	}, []string{"op", "reason"})

	StockReservedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_reserved_units_total",
		Help: "Total product units reserved by paid transactions",
	})

	StockReleasedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_released_units_total",
		Help: "Total product units released back to the pool",
	})

	ApproveProofPromptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approve_proof_prompts_total",
		Help: "Total approvals deferred because proof of payment was missing",
	})

	TransitionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_latency_seconds",
		Help:    "Latency of transaction lifecycle transitions",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

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
