/*
Package scheduling holds the job execution side of hellopool.

  - workerpool: fixed-size worker pool with an unbounded FIFO queue

A pool is sized once and never grows. Jobs are plain func() values taken
off the queue by whichever worker is free:

	pool := workerpool.New(4)
	defer pool.Close()

	pool.Execute(func() {
		handle(conn)
	})

Close stops accepting jobs, lets the workers drain what is queued and joins
them in worker id order. A worker whose job panics stops; its panic is
reported by Close.
*/
package scheduling
