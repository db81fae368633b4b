package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestTotals = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resource_dashboard_api_requests_total",
		Help: "Total number of API requests handled, by route and status.",
	},
	[]string{"method", "route", "status"},
)

func recordRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	requestTotals.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
