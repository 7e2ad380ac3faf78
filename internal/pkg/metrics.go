package pkg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	Requests           *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CommunitiesCreated prometheus.Counter
	MembershipsCreated prometheus.Counter
	PostsCreated       prometheus.Counter
}

// NewMetrics 使用独立 registry，避免重复注册到全局默认 registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CommunitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "communities_created_total",
			Help: "Total number of communities created",
		}),
		MembershipsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memberships_created_total",
			Help: "Total number of community joins",
		}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Total number of posts created",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.RequestDuration,
		m.CommunitiesCreated,
		m.MembershipsCreated,
		m.PostsCreated,
	)
	return m
}
