// Package metrics provides Prometheus instrumentation for hellopool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for hellopool components.
type Registry struct {
	// Worker Pool Metrics
	JobsSubmitted        *prometheus.CounterVec
	JobsCompleted        *prometheus.CounterVec
	JobsPanicked         *prometheus.CounterVec
	JobExecutionDuration *prometheus.HistogramVec
	JobQueueWait         *prometheus.HistogramVec
	WorkerPoolSize       *prometheus.GaugeVec
	WorkerPoolActive     *prometheus.GaugeVec
	WorkerPoolQueued     *prometheus.GaugeVec

	// Server Metrics
	ConnectionsAccepted *prometheus.CounterVec
	AcceptErrors        *prometheus.CounterVec
	Responses           *prometheus.CounterVec
	ConnectionErrors    *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by hellopool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
// All metrics are registered immediately; registering twice on the same
// registerer panics.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Worker Pool Metrics
		JobsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "jobs_submitted_total",
				Help:      "Total number of jobs accepted by the pool",
			},
			[]string{"pool_name"},
		),

		JobsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "jobs_completed_total",
				Help:      "Total number of jobs that returned normally",
			},
			[]string{"pool_name"},
		),

		JobsPanicked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "jobs_panicked_total",
				Help:      "Total number of jobs that panicked and took down their worker",
			},
			[]string{"pool_name"},
		),

		JobExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "job_duration_seconds",
				Help:      "Time spent executing jobs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		JobQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "job_queue_wait_seconds",
				Help:      "Time jobs spent queued before a worker picked them up",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of workers executing a job",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hellopool",
				Subsystem: "workerpool",
				Name:      "queued_jobs",
				Help:      "Number of queued jobs",
			},
			[]string{"pool_name"},
		),

		// Server Metrics
		ConnectionsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "server",
				Name:      "connections_accepted_total",
				Help:      "Total number of accepted connections",
			},
			[]string{"server_name"},
		),

		AcceptErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "server",
				Name:      "accept_errors_total",
				Help:      "Total number of failed accepts",
			},
			[]string{"server_name"},
		),

		Responses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "server",
				Name:      "responses_total",
				Help:      "Total number of responses written, by status code",
			},
			[]string{"server_name", "code"},
		),

		ConnectionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hellopool",
				Subsystem: "server",
				Name:      "connection_errors_total",
				Help:      "Total number of connections that failed while reading or writing",
			},
			[]string{"server_name", "stage"},
		),
	}
}
