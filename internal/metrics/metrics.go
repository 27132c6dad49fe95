package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	domainMetricsOnce sync.Once

	requestsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connection_requests_created_total",
			Help: "Total number of connection request creation attempts",
		},
		[]string{"status"},
	)

	chainJoinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_joins_total",
			Help: "Total number of chain join attempts",
		},
		[]string{"status"},
	)

	chainCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_completions_total",
			Help: "Total number of chain completion attempts",
		},
		[]string{"status"},
	)

	connectionInvitesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connection_invites_total",
			Help: "Total number of connection invite attempts",
		},
		[]string{"status"},
	)

	swipesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"action"},
	)

	linkClicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_clicks_total",
			Help: "Total number of share link visits",
		},
		[]string{"unique"},
	)

	creditsAwardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_awarded_total",
			Help: "Credits paid out to chain participants",
		},
	)
)

func RegisterDomainMetrics() {
	domainMetricsOnce.Do(func() {
		prometheus.MustRegister(
			requestsCreatedTotal,
			chainJoinsTotal,
			chainCompletionsTotal,
			connectionInvitesTotal,
			swipesTotal,
			linkClicksTotal,
			creditsAwardedTotal,
		)
	})
}

func IncRequestCreated(status string) {
	RegisterDomainMetrics()
	requestsCreatedTotal.WithLabelValues(status).Inc()
}

func IncChainJoin(status string) {
	RegisterDomainMetrics()
	chainJoinsTotal.WithLabelValues(status).Inc()
}

func IncChainCompletion(status string) {
	RegisterDomainMetrics()
	chainCompletionsTotal.WithLabelValues(status).Inc()
}

func IncConnectionInvite(status string) {
	RegisterDomainMetrics()
	connectionInvitesTotal.WithLabelValues(status).Inc()
}

func IncSwipe(action string) {
	RegisterDomainMetrics()
	swipesTotal.WithLabelValues(action).Inc()
}

func IncLinkClick(unique bool) {
	RegisterDomainMetrics()
	label := "false"
	if unique {
		label = "true"
	}
	linkClicksTotal.WithLabelValues(label).Inc()
}

func AddCreditsAwarded(credits int64) {
	RegisterDomainMetrics()
	if credits > 0 {
		creditsAwardedTotal.Add(float64(credits))
	}
}
