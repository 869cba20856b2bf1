package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capmatch_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ApplicationTransitions counts application status transitions.
	ApplicationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capmatch_application_transitions_total",
		Help: "Total application status transitions by target status",
	}, []string{"status"})

	// CapacityRejections counts approvals refused because a supervisor was full.
	CapacityRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capmatch_capacity_rejections_total",
		Help: "Total approvals rejected due to exhausted supervisor capacity",
	})

	// TransactionRetries counts capacity transaction retries after commit conflicts.
	TransactionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capmatch_transaction_retries_total",
		Help: "Total capacity transaction retries after serialization conflicts",
	})

	// RateLimitedRequests counts requests denied by the rate limiter.
	RateLimitedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capmatch_rate_limited_requests_total",
		Help: "Total requests denied by the rate limiter, by resource",
	}, []string{"resource"})
)
