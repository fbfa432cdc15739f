package httpsession

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentWarmUpFetchesOnce(t *testing.T) {
	pool := New(nil)
	pool.Register(SourcePolicy{SourceID: "sayistay"})

	var fetchCount int64
	fetchToken := func(ctx context.Context) (string, error) {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&fetchCount, 1)
		return "token-123", nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := pool.WarmUp(context.Background(), "sayistay", "genel_kurul", fetchToken)
			require.NoError(t, err)
			results[i] = tok
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&fetchCount), "exactly one landing-page fetch must be observed for N concurrent Cold callers")
	for _, r := range results {
		assert.Equal(t, "token-123", r)
	}
}

func TestOnAuthFailureForcesRefetch(t *testing.T) {
	pool := New(nil)
	pool.Register(SourcePolicy{SourceID: "sayistay"})

	var fetchCount int64
	fetchToken := func(ctx context.Context) (string, error) {
		atomic.AddInt64(&fetchCount, 1)
		return "token", nil
	}

	_, err := pool.WarmUp(context.Background(), "sayistay", "daire", fetchToken)
	require.NoError(t, err)
	_, err = pool.WarmUp(context.Background(), "sayistay", "daire", fetchToken)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&fetchCount))

	pool.OnAuthFailure("sayistay", "daire")
	_, err = pool.WarmUp(context.Background(), "sayistay", "daire", fetchToken)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&fetchCount))
}

func TestBorrowLazyRegisters(t *testing.T) {
	pool := New(nil)
	sess, err := pool.Borrow(context.Background(), "unregistered_source")
	require.NoError(t, err)
	assert.Equal(t, "unregistered_source", sess.SourceID)
	assert.NotNil(t, sess.Client)
}
