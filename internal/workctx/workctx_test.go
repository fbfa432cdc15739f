package workctx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDeadlinePrefersEarlierOfCallerAndDefault(t *testing.T) {
	callerDeadline := time.Now().Add(10 * time.Millisecond)
	ctx, cancel := WithDeadline(context.Background(), callerDeadline, 30*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, callerDeadline, deadline, 5*time.Millisecond)
}

func TestWithDeadlineFallsBackToAdapterDefaultWhenCallerUnset(t *testing.T) {
	ctx, cancel := WithDeadline(context.Background(), time.Time{}, 50*time.Millisecond)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.True(t, time.Until(deadline) <= 50*time.Millisecond)
}

func TestCSRFGateRunsOnceForConcurrentCallers(t *testing.T) {
	var gate CSRFGate
	var calls int64

	const n = 25
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = gate.Do(context.Background(), "sayistay", func(ctx context.Context) error {
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&calls, 1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestCSRFGateForgetAllowsRerun(t *testing.T) {
	var gate CSRFGate
	var calls int64

	run := func() error {
		return gate.Do(context.Background(), "sayistay", func(ctx context.Context) error {
			atomic.AddInt64(&calls, 1)
			return nil
		})
	}
	require.NoError(t, run())
	require.NoError(t, run())
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))

	gate.Forget("sayistay")
	require.NoError(t, run())
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}
