package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation outcomes
const (
	outcomeConfirmed = "confirmed"
	outcomeConflict  = "conflict"
	outcomeExhausted = "exhausted"
	outcomeStore     = "store_error"
	outcomeTimeout   = "timeout"
)

// Retry reasons
const (
	retryCollision   = "collision"
	retryUnconfirmed = "unconfirmed"
)

var (
	// Allocations partitioned by how they ended
	idAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gestion_id_allocations_total",
			Help: "Total number of gestion id allocations by outcome",
		},
		[]string{"outcome"},
	)

	// Retries consumed from the allocation budget
	idAllocationRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gestion_id_allocation_retries_total",
			Help: "Total number of gestion id allocation retries by reason",
		},
		[]string{"reason"},
	)

	idAllocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gestion_id_allocation_duration_seconds",
			Help:    "Time spent allocating and confirming a gestion id",
			Buckets: prometheus.DefBuckets,
		},
	)
)
