package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "postflow", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "postflow", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// Transitions counts lifecycle actions; outcome is "changed" or "noop".
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "postflow", Name: "transitions_total", Help: "Number of lifecycle actions applied to posts."},
		[]string{"action", "from", "to", "outcome"},
	)
	PostsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "postflow", Name: "posts_created_total", Help: "Number of posts created."},
	)
	ArchiveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "postflow", Name: "archive_failures_total", Help: "Number of published posts that could not be archived."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Transitions)
	reg.MustRegister(PostsCreated)
	reg.MustRegister(ArchiveFailures)
}
