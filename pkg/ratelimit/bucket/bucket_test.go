package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/hellopool/internal/testutil"
	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewSafe(t *testing.T) {
	tests := []struct {
		name    string
		rate    Limit
		burst   int
		wantErr bool
	}{
		{"valid", 10, 5, false},
		{"infinite", Inf, 1, false},
		{"zero rate", 0, 1, false},
		{"negative rate", -1, 1, true},
		{"zero burst", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSafe(tt.rate, tt.burst)
			if tt.wantErr {
				testutil.AssertError(t, err)
				testutil.AssertEqual(t, hperrors.IsValidationError(err), true)
				return
			}
			testutil.AssertNoError(t, err)
		})
	}

	testutil.AssertPanics(t, func() { New(10, 0) })
}

func TestEvery(t *testing.T) {
	testutil.AssertEqual(t, Every(100*time.Millisecond), Limit(10))
	testutil.AssertEqual(t, Every(0), Inf)
}

func TestAllowBurstThenRefill(t *testing.T) {
	clock := newFakeClock()
	l, err := NewWithConfig(Config{Rate: 2, Burst: 3, Clock: clock})
	testutil.AssertNoError(t, err)

	for i := 0; i < 3; i++ {
		testutil.AssertEqual(t, l.Allow(), true)
	}
	testutil.AssertEqual(t, l.Allow(), false)

	clock.Advance(500 * time.Millisecond)
	testutil.AssertEqual(t, l.Allow(), true)
	testutil.AssertEqual(t, l.Allow(), false)

	clock.Advance(time.Hour)
	testutil.AssertEqual(t, l.Tokens(), 3.0)
	testutil.AssertEqual(t, l.Burst(), 3)
	testutil.AssertEqual(t, l.Limit(), Limit(2))
}

func TestZeroRate(t *testing.T) {
	clock := newFakeClock()
	l, err := NewWithConfig(Config{Rate: 0, Burst: 1, Clock: clock})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, l.Allow(), true)
	clock.Advance(time.Hour)
	testutil.AssertEqual(t, l.Allow(), false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	testutil.AssertEqual(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestTinyRateStillLimits(t *testing.T) {
	l := New(1e-12, 1)

	testutil.AssertEqual(t, l.Allow(), true)
	testutil.AssertEqual(t, l.Allow(), false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	testutil.AssertEqual(t, l.Wait(ctx), context.DeadlineExceeded)
	if tokens := l.Tokens(); tokens >= 1 {
		t.Fatalf("tokens = %v after a failed wait, want < 1", tokens)
	}
}

func TestInfiniteRate(t *testing.T) {
	l := New(Inf, 1)
	for i := 0; i < 100; i++ {
		testutil.AssertEqual(t, l.Allow(), true)
	}
	testutil.AssertNoError(t, l.Wait(context.Background()))
}

func TestWaitPaces(t *testing.T) {
	l := New(Every(20*time.Millisecond), 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		testutil.AssertNoError(t, l.Wait(context.Background()))
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("three waits at 50/s took %v, want at least 30ms", elapsed)
	}
}

func TestWaitCancelReturnsToken(t *testing.T) {
	clock := newFakeClock()
	l, err := NewWithConfig(Config{Rate: 1, Burst: 1, Clock: clock})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, l.Allow(), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	testutil.AssertEqual(t, l.Wait(ctx), context.Canceled)
	testutil.AssertEqual(t, l.Tokens(), 0.0)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	testutil.AssertEqual(t, l.Wait(ctx), context.DeadlineExceeded)
	testutil.AssertEqual(t, l.Tokens(), 0.0)
}
