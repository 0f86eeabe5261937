package workerpool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
	"github.com/vnykmshr/hellopool/pkg/common/validation"
	"github.com/vnykmshr/hellopool/pkg/streaming/channel"
)

// Job is a unit of work executed exactly once by one worker.
// Jobs have no result; any error handling belongs inside the job.
type Job func()

// Pool represents a fixed-size worker pool that executes jobs concurrently.
type Pool interface {
	// Execute enqueues a job and returns immediately.
	// It panics if the job is nil or the pool has been closed.
	Execute(job Job)

	// Submit enqueues a job like Execute but reports misuse as an error.
	// Returns an error wrapping errors.ErrClosed once Close has begun.
	Submit(job Job) error

	// Close stops accepting jobs, lets the workers drain the queue and
	// waits for every worker to exit, in worker id order.
	// Returns nil when all workers exited normally, otherwise the joined
	// *PanicError or *ExitError of every worker that died running a job.
	// Calling Close more than once returns the first result.
	Close() error

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued jobs waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing jobs.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of jobs accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of jobs that returned normally.
	TotalCompleted() int64

	// Dropped returns the number of jobs left unexecuted when Close finished.
	// It is non-zero only when every worker died before the queue drained.
	Dropped() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Size is the number of workers in the pool.
	// Must be greater than 0.
	Size int

	// Logger receives worker lifecycle diagnostics.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnWorkerStart is called when a worker starts.
	// Useful for per-worker initialization.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker exits, normally or not.
	OnWorkerStop func(workerID int)
}

// PanicError reports a worker that terminated because its job panicked.
type PanicError struct {
	// WorkerID identifies the worker that died.
	WorkerID int

	// Value is the value passed to panic.
	Value interface{}

	// Stack is the goroutine stack captured at the panic site.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workerpool: worker %d panicked: %v", e.WorkerID, e.Value)
}

// Unwrap returns errors.ErrWorkerPanicked.
func (e *PanicError) Unwrap() error {
	return hperrors.ErrWorkerPanicked
}

// ExitError reports a worker whose job ended the goroutine without
// returning or panicking, for example through runtime.Goexit.
type ExitError struct {
	WorkerID int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("workerpool: worker %d exited during a job", e.WorkerID)
}

// Unwrap returns errors.ErrWorkerExited.
func (e *ExitError) Unwrap() error {
	return hperrors.ErrWorkerExited
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	logger *slog.Logger

	// Core pool state
	workers   []worker
	queue     channel.Queue[Job]
	closeOnce sync.Once
	closeErr  error

	// State tracking
	activeWorkers  int32
	totalSubmitted int64
	totalCompleted int64
	dropped        int64
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool

	// done is closed when run returns; err is written before that.
	done chan struct{}
	err  error
}

// New creates a new worker pool with size workers.
// It panics if size is not positive.
func New(size int) Pool {
	return NewWithConfig(Config{Size: size})
}

// NewSafe creates a new worker pool with size workers, returning a
// validation error instead of panicking when size is not positive.
func NewSafe(size int) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "size", size); err != nil {
		return nil, err
	}
	return New(size), nil
}

// NewWithConfig creates a new worker pool with the specified configuration.
// It panics if config.Size is not positive.
func NewWithConfig(config Config) Pool {
	if err := validation.ValidatePositive("workerpool", "size", config.Size); err != nil {
		panic(err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool := &workerPool{
		config: config,
		logger: logger,
		queue:  channel.New[Job](),
	}

	// Create and start workers
	pool.workers = make([]worker, config.Size)
	for i := 0; i < config.Size; i++ {
		pool.workers[i] = worker{
			id:   i,
			pool: pool,
			done: make(chan struct{}),
		}
		go pool.workers[i].run()
	}

	return pool
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return len(p.workers)
}

// QueueSize returns the current number of queued jobs waiting for execution.
func (p *workerPool) QueueSize() int {
	return p.queue.Len()
}

// ActiveWorkers returns the number of workers currently executing jobs.
func (p *workerPool) ActiveWorkers() int {
	return int(atomic.LoadInt32(&p.activeWorkers))
}

// TotalSubmitted returns the total number of jobs accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return atomic.LoadInt64(&p.totalSubmitted)
}

// TotalCompleted returns the total number of jobs that returned normally.
func (p *workerPool) TotalCompleted() int64 {
	return atomic.LoadInt64(&p.totalCompleted)
}

// Dropped returns the number of jobs left unexecuted when Close finished.
func (p *workerPool) Dropped() int64 {
	return atomic.LoadInt64(&p.dropped)
}
