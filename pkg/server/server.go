package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
	"github.com/vnykmshr/hellopool/pkg/common/validation"
	"github.com/vnykmshr/hellopool/pkg/metrics"
	"github.com/vnykmshr/hellopool/pkg/scheduling/workerpool"
)

// Executor runs jobs. *workerpool.Pool implementations satisfy it.
type Executor interface {
	Execute(job workerpool.Job)
}

// Limiter paces Accept. *bucket.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Server accepts connections and hands each one to Pool as a single job.
type Server struct {
	Listener net.Listener
	Pool     Executor
	Handler  *Handler

	// MaxConnections stops Serve after that many accepted connections.
	// Zero means unlimited.
	MaxConnections int

	// AcceptLimiter, when set, is waited on before each Accept.
	AcceptLimiter Limiter

	// Logger receives lifecycle messages. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics, when set, counts accepted connections and accept failures under Name.
	Metrics *metrics.Registry
	Name    string
}

// Validate reports configuration errors before serving.
func (s *Server) Validate() error {
	if s.Listener == nil {
		return hperrors.NewValidationError("server", "listener", nil, "must not be nil")
	}
	if s.Pool == nil {
		return hperrors.NewValidationError("server", "pool", nil, "must not be nil")
	}
	return validation.ValidateNonNegative("server", "max_connections", s.MaxConnections)
}

// Serve accepts connections until MaxConnections is reached, ctx is done or the
// listener fails. The listener is closed on return. A nil error means Serve
// stopped because of MaxConnections or ctx; pool teardown is left to the caller.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler := s.Handler
	if handler == nil {
		handler = &Handler{Logger: logger, Metrics: s.Metrics, Name: s.Name}
	}

	stop := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			_ = s.Listener.Close()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		<-watcherDone
		_ = s.Listener.Close()
		logger.Info("Shutting down.")
	}()

	logger.Info("listening", "addr", s.Listener.Addr().String(), "max_connections", s.MaxConnections)

	for accepted := 0; s.MaxConnections == 0 || accepted < s.MaxConnections; {
		if s.AcceptLimiter != nil {
			if err := s.AcceptLimiter.Wait(ctx); err != nil {
				return nil
			}
		}

		conn, err := s.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.recordAcceptError()
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Warn("accept failed; retrying", "error", err)
				continue
			}
			return hperrors.NewOperationError("server", "Accept", err)
		}

		accepted++
		if s.Metrics != nil {
			s.Metrics.ConnectionsAccepted.WithLabelValues(s.Name).Inc()
		}

		s.Pool.Execute(func() {
			handler.ServeConn(conn)
		})
	}

	return nil
}

func (s *Server) recordAcceptError() {
	if s.Metrics != nil {
		s.Metrics.AcceptErrors.WithLabelValues(s.Name).Inc()
	}
}
