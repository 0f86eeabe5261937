/*
Package workerpool provides a fixed-size worker pool that executes jobs on long-lived goroutines.

A pool starts a fixed number of workers when it is created. Every worker pulls jobs from one
shared, unbounded FIFO queue and runs each job to completion before asking for the next one.
Closing the pool closes the queue, lets the workers drain whatever is still queued, and waits
for each of them to exit.

Basic usage:

	pool := workerpool.New(4) // 4 workers

	pool.Execute(func() {
		// Do work
	})

	if err := pool.Close(); err != nil {
		log.Printf("worker failure: %v", err)
	}

Jobs:

A job is a plain func(). It has no arguments and no result, so a job handles its own
errors; the pool only observes whether it returned or panicked. Capture what the job
needs in the closure:

	for _, conn := range conns {
		conn := conn
		pool.Execute(func() {
			handle(conn)
		})
	}

Submission:

Execute never blocks: the queue is unbounded, so submitting more jobs than there are
workers simply queues them. Jobs are handed to workers in submission order; completion
order depends on how long each job takes.

	pool.Execute(job)          // panics on a nil job or a closed pool
	err := pool.Submit(job)    // same, but returns the error instead

Submitting to a closed pool is a usage-order bug. Execute treats it as fatal; Submit
returns an error wrapping errors.ErrClosed for callers that race with shutdown on purpose.

Construction:

	pool := workerpool.New(0)          // panics: size must be positive
	pool, err := workerpool.NewSafe(n) // returns a *errors.ValidationError instead

	pool := workerpool.NewWithConfig(workerpool.Config{
		Size:   8,
		Logger: logger,
		OnWorkerStart: func(workerID int) {
			log.Printf("worker %d started", workerID)
		},
	})

Shutdown:

Close is the teardown. It must run once the pool is no longer used for submission,
typically with defer:

	pool := workerpool.New(4)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Print(err)
		}
	}()

Close first closes the queue, then joins workers 0 through N-1 in order. Every job
accepted before Close is executed before Close returns, unless the worker that picked
it up (or every worker) died earlier.

Panics:

A panicking job is not retried and its worker is not restarted: the worker stops
immediately, other workers keep running, and nothing is logged at that moment. The
failure is reported by Close as a *PanicError carrying the worker id, the panic value
and the stack. Several failures are joined with errors.Join.

	err := pool.Close()
	var panicErr *workerpool.PanicError
	if errors.As(err, &panicErr) {
		log.Printf("worker %d died: %v", panicErr.WorkerID, panicErr.Value)
	}

A job that ends its goroutine through runtime.Goexit, as t.FailNow does, stops
the worker the same way and is reported as an *ExitError.

If every worker has died, jobs still queued are never run; Dropped reports how many.

Logging:

Workers log through the configured *slog.Logger: a debug line each time a worker
picks up a job and an info line when it observes the closed queue and exits.

Metrics:

MetricsPool decorates a pool with Prometheus metrics (size, active workers, queued
jobs, queue wait, execution time, completions and panics):

	registry := metrics.NewRegistry(prometheus.NewRegistry())
	pool := workerpool.NewWithRegistry(workerpool.Config{Size: 4}, "http", registry)

Thread Safety:

Execute, Submit and the introspection methods are safe for concurrent use. Close may
be called more than once and always returns the first result.
*/
package workerpool
