// Package metrics provides Prometheus instrumentation for hellopool components.
//
// # Overview
//
// The metrics package provides instrumentation for:
//   - Worker pools (pool size, active workers, queued jobs, job durations, panics)
//   - The connection server (accepted connections, responses by status, I/O failures)
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	pool := workerpool.NewWithMetrics(4, "http")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":9090", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	pool := workerpool.NewWithConfigAndMetrics(
//		workerpool.Config{Size: 4},
//		"http",
//		metrics.Config{Enabled: true, Registry: registry},
//	)
//
// NewRegistry registers every collector on the given registerer, so create at
// most one Registry per registerer and share it between components.
package metrics
