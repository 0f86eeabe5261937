package workerpool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
)

// Execute enqueues a job for execution by the next idle worker.
// It never blocks. A nil job or a closed pool is a programming error and panics.
func (p *workerPool) Execute(job Job) {
	if err := p.Submit(job); err != nil {
		panic(err)
	}
}

// Submit enqueues a job for execution by the next idle worker.
func (p *workerPool) Submit(job Job) error {
	if job == nil {
		return hperrors.NewValidationError("workerpool", "job", nil, "cannot be nil").
			WithHint("provide a non-nil job")
	}

	if err := p.queue.Send(job); err != nil {
		return fmt.Errorf("cannot submit job: %w", hperrors.ErrClosed)
	}

	atomic.AddInt64(&p.totalSubmitted, 1)
	return nil
}

// Close closes the queue, then joins every worker in id order.
func (p *workerPool) Close() error {
	p.closeOnce.Do(func() {
		// Workers exit once the closed queue is drained.
		p.queue.Close()

		var errs []error
		for i := range p.workers {
			p.logger.Info("shutting down worker", "worker", p.workers[i].id)
			if err := p.workers[i].join(); err != nil {
				errs = append(errs, err)
			}
		}

		// Only reachable when every worker died before draining the queue.
		if remaining := p.queue.Len(); remaining > 0 {
			atomic.StoreInt64(&p.dropped, int64(remaining))
			p.logger.Warn("jobs left unexecuted", "count", remaining)
		}

		p.closeErr = errors.Join(errs...)
	})

	return p.closeErr
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer close(w.done)

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for {
		job, err := w.pool.queue.Receive()
		if err != nil {
			w.pool.logger.Info("worker disconnected; shutting down", "worker", w.id)
			return
		}

		w.pool.logger.Debug("worker got a job; executing", "worker", w.id)
		if !w.execute(job) {
			// The job panicked; this worker is done for good.
			return
		}
	}
}

// execute runs a single job, reporting false if it did not return normally.
func (w *worker) execute(job Job) (ok bool) {
	atomic.AddInt32(&w.pool.activeWorkers, 1)
	defer func() {
		atomic.AddInt32(&w.pool.activeWorkers, -1)
		r := recover()
		switch {
		case r != nil:
			w.err = &PanicError{
				WorkerID: w.id,
				Value:    r,
				Stack:    debug.Stack(),
			}
		case !ok:
			// runtime.Goexit unwinds through here with nothing to recover.
			w.err = &ExitError{WorkerID: w.id}
		}
	}()

	job()

	atomic.AddInt64(&w.pool.totalCompleted, 1)
	ok = true
	return ok
}

// join blocks until the worker has exited and returns its failure, if any.
func (w *worker) join() error {
	<-w.done
	return w.err
}
