package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated      prometheus.Counter
	LoginAttempts     *prometheus.CounterVec
	TokenExchanges    *prometheus.CounterVec
	ProfilesCreated   prometheus.Counter
	NicknameConflicts prometheus.Counter
	RequestLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gomunity_users_created_total",
			Help: "Total number of users created through the identity bridge",
		}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gomunity_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		TokenExchanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gomunity_kakao_token_exchanges_total",
			Help: "Kakao token exchange calls by outcome",
		}, []string{"outcome"}),
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gomunity_profiles_created_total",
			Help: "Total number of onboarding profiles created",
		}),
		NicknameConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gomunity_nickname_conflicts_total",
			Help: "Profile creations rejected because the nickname was taken",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gomunity_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// ObserveRequest records one request in the latency histogram.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	m.RequestLatency.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}
