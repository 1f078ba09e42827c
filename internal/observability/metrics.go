package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProvidersOnline   = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "wash_dispatch", Name: "providers_online", Help: "Number of online providers"})
	OrdersDispatched  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "orders_dispatched_total", Help: "Total order offers sent to providers"})
	OrdersAccepted    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "orders_accepted_total", Help: "Total offers accepted"})
	OrdersRejected    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "orders_rejected_total", Help: "Total offers rejected"})
	OrdersTimedOut    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "orders_timed_out_total", Help: "Total offers that hit the response timeout"})
	OrdersFinished    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "orders_finished_total", Help: "Total orders finished"})
	CascadesExhausted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "cascades_exhausted_total", Help: "Auto-select searches that ran out of candidates"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "wash_dispatch", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wash_dispatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
