package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// requestsTotal считает запросы к сервису аккаунтов по конечной точке и исходу.
// Исходы: ok, api_error, unauthorized, network_error.
var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "omg_portal_upstream_requests_total",
		Help: "Requests issued to the remote account service.",
	},
	[]string{"endpoint", "outcome"},
)

func observe(endpoint, outcome string) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
}
