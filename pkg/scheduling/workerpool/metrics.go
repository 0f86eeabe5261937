package workerpool

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/hellopool/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

var _ metrics.Instrumentable = (*MetricsPool)(nil)

// NewWithMetrics creates a new worker pool with metrics enabled.
func NewWithMetrics(size int, name string) *MetricsPool {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	config := metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	}

	return NewWithConfigAndMetrics(Config{Size: size}, name, config)
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
// When metricsConfig.Enabled is false the pool records nothing until EnableMetrics is called.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) *MetricsPool {
	var registry *metrics.Registry
	if metricsConfig.Enabled {
		registry = metricsConfig.Resolve()
	}
	return NewWithRegistry(config, name, registry)
}

// NewWithRegistry creates a new worker pool recording into an existing registry.
// A nil registry creates the pool with metrics disabled.
func NewWithRegistry(config Config, name string, registry *metrics.Registry) *MetricsPool {
	mp := &MetricsPool{
		pool: NewWithConfig(config),
		name: name,
	}

	if registry != nil {
		mp.registry.Store(registry)
		mp.enabled.Store(true)
		mp.updateMetrics()
	}

	return mp
}

// activeRegistry returns the registry to record into, or nil when disabled.
func (mp *MetricsPool) activeRegistry() *metrics.Registry {
	if !mp.enabled.Load() {
		return nil
	}
	return mp.registry.Load()
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	registry := mp.activeRegistry()
	if registry == nil {
		return
	}

	registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Execute enqueues a job; it panics under the same conditions as Pool.Execute.
func (mp *MetricsPool) Execute(job Job) {
	if err := mp.Submit(job); err != nil {
		panic(err)
	}
}

// Submit enqueues a job, wrapping it to record queue wait and execution time.
func (mp *MetricsPool) Submit(job Job) error {
	if job == nil {
		return mp.pool.Submit(nil)
	}

	submitTime := time.Now()
	err := mp.pool.Submit(func() {
		mp.runJob(job, submitTime)
	})

	if err == nil {
		if registry := mp.activeRegistry(); registry != nil {
			registry.JobsSubmitted.WithLabelValues(mp.name).Inc()
		}
	}
	mp.updateMetrics()

	return err
}

// runJob executes job and records its metrics. A panic or runtime.Goexit is
// counted as panicked and then propagated unchanged so the worker still terminates.
func (mp *MetricsPool) runJob(job Job, submitTime time.Time) {
	start := time.Now()
	if registry := mp.activeRegistry(); registry != nil {
		registry.JobQueueWait.WithLabelValues(mp.name).Observe(start.Sub(submitTime).Seconds())
	}

	completed := false
	defer func() {
		registry := mp.activeRegistry()
		if registry == nil {
			return
		}
		registry.JobExecutionDuration.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
		if completed {
			registry.JobsCompleted.WithLabelValues(mp.name).Inc()
		} else {
			registry.JobsPanicked.WithLabelValues(mp.name).Inc()
		}
	}()

	job()
	completed = true
}

// Close tears down the wrapped pool and publishes the final state.
func (mp *MetricsPool) Close() error {
	err := mp.pool.Close()
	mp.updateMetrics()
	return err
}

// Size returns the number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued jobs.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()

	if registry := mp.activeRegistry(); registry != nil {
		registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	}

	return queueSize
}

// ActiveWorkers returns the number of workers currently executing jobs.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()

	if registry := mp.activeRegistry(); registry != nil {
		registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	}

	return activeWorkers
}

// TotalSubmitted returns the total number of jobs submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of jobs completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// Dropped returns the number of jobs left unexecuted when Close finished.
func (mp *MetricsPool) Dropped() int64 {
	return mp.pool.Dropped()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if !config.Enabled {
		mp.DisableMetrics()
		return nil
	}

	if config.Registry != nil || mp.registry.Load() == nil {
		mp.registry.Store(config.Resolve())
	}
	mp.enabled.Store(true)
	mp.updateMetrics()

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}
