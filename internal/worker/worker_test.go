package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlusher struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (f *fakeFlusher) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("storage unavailable")
	}
	return nil
}

func (f *fakeFlusher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastRetry(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	assert.Equal(t, 100*time.Millisecond, p.NextDelay(0))
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, p.NextDelay(3))
	assert.Equal(t, time.Second, p.NextDelay(10))

	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(1))
	assert.Equal(t, 2*time.Second, RetryPolicy{}.NextDelay(2))
}

func TestAutosaveFlushRetries(t *testing.T) {
	f := &fakeFlusher{failures: 2}
	w := NewAutosaveWorker(f, time.Hour, fastRetry(3), nil)

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 3, f.Calls())
}

func TestAutosaveFlushGivesUp(t *testing.T) {
	f := &fakeFlusher{failures: 10}
	w := NewAutosaveWorker(f, time.Hour, fastRetry(2), nil)

	assert.Error(t, w.Flush(context.Background()))
	assert.Equal(t, 3, f.Calls())
}

func TestAutosaveFlushStopsOnCancel(t *testing.T) {
	f := &fakeFlusher{failures: 10}
	w := NewAutosaveWorker(f, time.Hour, RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, w.Flush(ctx), context.Canceled)
	assert.Equal(t, 1, f.Calls())
}

func TestAutosaveRun(t *testing.T) {
	f := &fakeFlusher{}
	w := NewAutosaveWorker(f, 5*time.Millisecond, fastRetry(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.Calls() >= 3 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("autosave did not stop")
	}

	// one last flush on shutdown
	stopped := f.Calls()
	assert.GreaterOrEqual(t, stopped, 4)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, f.Calls())
}

func TestNewAutosaveWorkerDefaults(t *testing.T) {
	w := NewAutosaveWorker(&fakeFlusher{}, 0, RetryPolicy{MaxRetries: -1}, nil)
	assert.Equal(t, 20*time.Second, w.interval)
	assert.Zero(t, w.retry.MaxRetries)
}
