/*
Package server is the connection side of hellopool: it accepts TCP
connections and hands each one to a worker pool as a single job.

Each job reads exactly one request line. "GET / HTTP/1.1" is answered with
hello.html and a 200 status; any other line gets 404.html and a 404 status.
The connection is closed after the response is written. Errors reading or
writing a connection are handled inside the job and never reach the pool.

Basic usage:

	pool := workerpool.New(4)
	defer pool.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:7878")
	if err != nil {
		return err
	}

	srv := &server.Server{Listener: ln, Pool: pool, Handler: &server.Handler{}}
	return srv.Serve(ctx)

Serve stops after MaxConnections accepted connections (zero means no limit)
or when ctx is cancelled, and logs "Shutting down." on its way out. Closing
the pool, which waits for in-flight connections, is the caller's job.

StatsReporter logs pool counters on a cron schedule:

	reporter, err := server.NewStatsReporter("@every 30s", pool, logger)
	if err != nil {
		return err
	}
	reporter.Start()
	defer reporter.Stop()
*/
package server
