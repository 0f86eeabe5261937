// Package bucket is a token bucket used to pace how fast the server
// accepts connections.
package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
)

// Limit is a refill rate in tokens per second. Inf disables limiting.
type Limit float64

// Inf is the infinite rate limit; it allows all events.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config configures a Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the bucket capacity. The bucket starts full.
	Burst int

	// Clock provides the current time. If nil, the system clock is used.
	Clock Clock
}

// Limiter is a token bucket. It is safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// New creates a limiter and panics on invalid arguments.
func New(rate Limit, burst int) *Limiter {
	l, err := NewSafe(rate, burst)
	if err != nil {
		panic(err)
	}
	return l
}

// NewSafe creates a limiter, returning a validation error for a
// negative rate or a non-positive burst.
func NewSafe(rate Limit, burst int) (*Limiter, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst})
}

// NewWithConfig creates a limiter from config.
func NewWithConfig(config Config) (*Limiter, error) {
	if config.Rate < 0 || math.IsNaN(float64(config.Rate)) {
		return nil, hperrors.NewValidationError("bucket", "rate", config.Rate, "rate cannot be negative").
			WithHint("use a positive rate, or Inf for no limit")
	}
	if config.Burst <= 0 {
		return nil, hperrors.NewValidationError("bucket", "burst", config.Burst, "burst must be positive").
			WithHint("burst is how many connections may be accepted back to back")
	}
	if config.Clock == nil {
		config.Clock = systemClock{}
	}

	return &Limiter{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     float64(config.Burst),
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool {
	_, ok := l.reserve(l.clock.Now(), 0)
	return ok
}

// Wait blocks until a token is available or ctx is done.
// A token reserved by a cancelled wait is returned to the bucket.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay, ok := l.reserve(l.clock.Now(), math.MaxInt64)
	if !ok {
		// No token arrives within a representable wait, as with a zero rate.
		<-ctx.Done()
		return ctx.Err()
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.cancel()
		return ctx.Err()
	}
}

// Limit returns the refill rate.
func (l *Limiter) Limit() Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// Tokens returns the number of tokens available now. It is negative while
// waiters hold reservations.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(l.clock.Now())
	return l.tokens
}

// reserve takes one token, possibly on credit, and returns how long the
// caller must wait before using it. It fails when the wait would exceed maxWait.
func (l *Limiter) reserve(now time.Time, maxWait time.Duration) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limit == Inf {
		return 0, true
	}

	l.refill(now)
	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}
	if l.limit == 0 {
		return 0, false
	}

	// Compare before converting: tiny rates overflow time.Duration.
	wait := float64(time.Second) * (1 - l.tokens) / float64(l.limit)
	if wait > float64(maxWait) {
		return 0, false
	}
	l.tokens--
	return time.Duration(wait), true
}

func (l *Limiter) cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(l.clock.Now())
	l.tokens = math.Min(l.tokens+1, float64(l.burst))
}

func (l *Limiter) refill(now time.Time) {
	if l.limit == Inf {
		l.tokens = float64(l.burst)
		l.lastUpdate = now
		return
	}

	elapsed := now.Sub(l.lastUpdate)
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.tokens+elapsed.Seconds()*float64(l.limit), float64(l.burst))
	l.lastUpdate = now
}
