package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Counters default to unregistered instances so packages can record
// without InitCustomMetrics having been called (tests, tools).
var (
	UserRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moviecat_users_registered_total",
		Help: "Total number of local users registered.",
	})
	LoginSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moviecat_logins_success_total",
		Help: "Total number of successful logins by method.",
	}, []string{"method"})
	LoginFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moviecat_logins_failure_total",
		Help: "Total number of failed logins by reason.",
	}, []string{"reason"})
	FederatedUsersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moviecat_federated_users_created_total",
		Help: "Total number of accounts created through federated login.",
	})
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moviecat_tmdb_requests_total",
		Help: "TMDB requests by endpoint group and outcome.",
	}, []string{"endpoint", "outcome"})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moviecat_cache_lookups_total",
		Help: "Response cache lookups by result.",
	}, []string{"result"})
)

// InitCustomMetrics registers the custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for name, c := range map[string]prometheus.Collector{
		"UserRegisteredTotal":        UserRegisteredTotal,
		"LoginSuccessTotal":          LoginSuccessTotal,
		"LoginFailureTotal":          LoginFailureTotal,
		"FederatedUsersCreatedTotal": FederatedUsersCreatedTotal,
		"UpstreamRequestsTotal":      UpstreamRequestsTotal,
		"CacheLookupsTotal":          CacheLookupsTotal,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}
}
