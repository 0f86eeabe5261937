package testutil

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var counter int32
		go func() {
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&counter, 1)
		}()

		Eventually(t, func() bool {
			return atomic.LoadInt32(&counter) == 1
		}, time.Second, 10*time.Millisecond)
	})
}

func TestWaitForInt32(t *testing.T) {
	var value int32

	go func() {
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&value, 42)
	}()

	WaitForInt32(t, &value, 42, time.Second)
}

func TestAssertPanics(t *testing.T) {
	got := AssertPanics(t, func() { panic("boom") })
	AssertEqual(t, got, interface{}("boom"))
}

func TestAssertClosesWithin(t *testing.T) {
	done := make(chan struct{})
	close(done)
	AssertClosesWithin(t, done, 10*time.Millisecond)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should have a deadline")
	}
	if time.Until(deadline) > TestTimeout {
		t.Errorf("deadline too far in the future: %v", time.Until(deadline))
	}
}

func TestAssertions(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, errors.New("err"))
	AssertEqual(t, 1, 1)
	AssertNotEqual(t, "a", "b")
}

func TestMockWriter(t *testing.T) {
	mw := NewMockWriter()

	n, err := mw.Write([]byte("hello"))
	AssertNoError(t, err)
	AssertEqual(t, n, 5)
	AssertEqual(t, mw.String(), "hello")

	mw.SetErrorOnNth(2)
	_, err = mw.Write([]byte("x"))
	AssertError(t, err)

	boom := errors.New("boom")
	mw.SetAlwaysError(boom)
	_, err = mw.Write([]byte("y"))
	AssertEqual(t, err, boom)
	AssertEqual(t, mw.WriteCount(), 3)
}
