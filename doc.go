/*
Package hellopool is a small TCP server built around a fixed-size worker pool,
plus a line search tool.

Job execution (pkg/scheduling, pkg/streaming):
  - workerpool: fixed set of workers consuming an unbounded FIFO queue, with
    close-then-join teardown and Prometheus instrumentation
  - channel: the unbounded queue the workers share

Serving (pkg/server, pkg/ratelimit):
  - server: accepts connections and hands each to the pool as one job that
    reads a single request line and writes hello.html or 404.html
  - bucket: token bucket that paces Accept

Support (pkg/config, pkg/logging, pkg/metrics, pkg/common):
  - config: YAML/JSON settings loaded with koanf
  - logging: slog loggers with optional lumberjack file rotation
  - metrics: Prometheus collectors for pools and servers

Tools (pkg/search, cmd):
  - cmd/hello: the server binary
  - cmd/minigrep: prints the lines of a file containing a query

Example usage:

	import "github.com/vnykmshr/hellopool/pkg/scheduling/workerpool"

	pool := workerpool.New(4)
	defer pool.Close()

	for i := 0; i < 8; i++ {
		i := i
		pool.Execute(func() { fmt.Println("job", i) })
	}
*/
package hellopool
