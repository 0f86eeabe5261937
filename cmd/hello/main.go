// hello is a single-line TCP server backed by a fixed-size worker pool.
//
// Usage:
//
//	hello [--config file] [--addr host:port] [--pool-size n] [--root dir]
//	      [--max-connections n] [--accept-rate r] [--metrics-addr host:port]
//
// Each accepted connection is handed to the pool as one job. The job reads a
// single request line and answers "GET / HTTP/1.1" with hello.html, anything
// else with 404.html. With --max-connections the server stops after that many
// connections; otherwise it runs until SIGINT or SIGTERM. On the way out the
// pool drains queued connections and reports any worker that died.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/hellopool/pkg/config"
	"github.com/vnykmshr/hellopool/pkg/logging"
	"github.com/vnykmshr/hellopool/pkg/metrics"
	"github.com/vnykmshr/hellopool/pkg/ratelimit/bucket"
	"github.com/vnykmshr/hellopool/pkg/scheduling/workerpool"
	"github.com/vnykmshr/hellopool/pkg/server"
)

// Version is set with -ldflags "-X main.Version=...".
var Version = "0.1.0-dev"

const name = "hello"

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runApp(ctx, createApp(), args, stderr)
}

func runApp(ctx context.Context, app *cli.Command, args []string, stderr io.Writer) int {
	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "hello: %v\n", err)
		return 1
	}
	return 0
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "serve hello.html to one request line per connection",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML or JSON config file"},
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
			&cli.IntFlag{Name: "pool-size", Usage: "number of worker goroutines"},
			&cli.StringFlag{Name: "root", Usage: "directory holding hello.html and 404.html"},
			&cli.IntFlag{Name: "max-connections", Usage: "stop after this many connections (0 = unlimited)"},
			&cli.FloatFlag{Name: "accept-rate", Usage: "accept at most this many connections per second (0 = unlimited)"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		// run reports every error once; keep cli from printing or exiting.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
			}
			return serve(ctx, cfg, ln, logger)
		},
	}
}

// loadConfig reads --config, if given, and applies any flags set on top of it.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if cmd.IsSet("addr") {
		cfg.Server.Addr = cmd.String("addr")
	}
	if cmd.IsSet("pool-size") {
		cfg.Server.PoolSize = cmd.Int("pool-size")
	}
	if cmd.IsSet("root") {
		cfg.Server.Root = cmd.String("root")
	}
	if cmd.IsSet("max-connections") {
		cfg.Server.MaxConnections = cmd.Int("max-connections")
	}
	if cmd.IsSet("accept-rate") {
		cfg.Server.AcceptRate = cmd.Float("accept-rate")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}

	return cfg, cfg.Validate()
}

// newLogger builds the process logger from cfg and records how it was set up.
func newLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	opts := logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	logger, closeLog, err := logging.New(opts)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("starting", "version", Version, "logging", opts.String())
	return logger, closeLog, nil
}

// serve runs the server on ln until it stops, then closes the pool.
// Worker failures reported by the pool are returned with any serve error.
func serve(ctx context.Context, cfg config.Config, ln net.Listener, logger *slog.Logger) error {
	poolConfig := workerpool.Config{Size: cfg.Server.PoolSize, Logger: logger}

	var (
		pool    workerpool.Pool
		reg     *metrics.Registry
		promReg *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg = metrics.NewRegistry(promReg)
		pool = workerpool.NewWithRegistry(poolConfig, name, reg)
	} else {
		pool = workerpool.NewWithConfig(poolConfig)
	}

	handler := &server.Handler{
		ReadTimeout: cfg.Server.ReadTimeout,
		Logger:      logger,
		Metrics:     reg,
		Name:        name,
	}
	if cfg.Server.Root != "" {
		handler.Root = os.DirFS(cfg.Server.Root)
	}

	srv := &server.Server{
		Listener:       ln,
		Pool:           pool,
		Handler:        handler,
		MaxConnections: cfg.Server.MaxConnections,
		Logger:         logger,
		Metrics:        reg,
		Name:           name,
	}

	if cfg.Server.AcceptRate > 0 {
		limiter, err := bucket.NewSafe(bucket.Limit(cfg.Server.AcceptRate), cfg.Server.AcceptBurst)
		if err != nil {
			_ = ln.Close()
			return errors.Join(err, pool.Close())
		}
		srv.AcceptLimiter = limiter
	}

	if cfg.Stats.Schedule != "" {
		reporter, err := server.NewStatsReporter(cfg.Stats.Schedule, pool, logger)
		if err != nil {
			_ = ln.Close()
			return errors.Join(err, pool.Close())
		}
		reporter.Start()
		defer reporter.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The metrics endpoint lives only as long as the listener.
		defer cancel()
		return srv.Serve(gctx)
	})
	if promReg != nil {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, promReg, logger)
		})
	}

	serveErr := g.Wait()
	closeErr := pool.Close()
	if closeErr != nil {
		logger.Error("worker pool reported failures", "error", closeErr, "dropped", pool.Dropped())
	}
	return errors.Join(serveErr, closeErr)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
