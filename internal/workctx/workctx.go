// Package workctx implements the concurrency and cancellation fabric (C6):
// per-call deadline composition and the singleflight-backed CSRF gate that
// guarantees one landing-page fetch per Cold→Warm transition regardless of
// concurrent callers, per spec.md §4.4.x and §8.
package workctx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// WithDeadline derives a context bounded by the earlier of the caller's
// deadline (if any) and parent-relative adapterDefault, so a caller that
// requests a shorter budget than the adapter's own default never waits
// longer than asked, and a caller with no deadline still gets the adapter's
// default.
func WithDeadline(parent context.Context, callerDeadline time.Time, adapterDefault time.Duration) (context.Context, context.CancelFunc) {
	defaultDeadline := time.Now().Add(adapterDefault)
	if callerDeadline.IsZero() || defaultDeadline.Before(callerDeadline) {
		return context.WithDeadline(parent, defaultDeadline)
	}
	return context.WithDeadline(parent, callerDeadline)
}

// CSRFGate serializes Cold→Warm session transitions per source_id so that N
// concurrent callers targeting the same source observe exactly one
// landing-page fetch. It is a thin, named wrapper around singleflight so
// call sites read as domain operations rather than generic memoization.
type CSRFGate struct {
	group singleflight.Group
	mu    sync.Mutex
	done  map[string]bool
}

func (g *CSRFGate) isDone(sourceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done[sourceID]
}

// Do runs fn at most once concurrently for a given sourceID; concurrent
// callers for the same sourceID block on the in-flight call and share its
// result. Once fn has succeeded for a sourceID, later calls return nil
// without invoking fn until Forget is called.
func (g *CSRFGate) Do(ctx context.Context, sourceID string, fn func(context.Context) error) error {
	if g.isDone(sourceID) {
		return nil
	}
	_, err, _ := g.group.Do(sourceID, func() (any, error) {
		if g.isDone(sourceID) {
			return nil, nil
		}
		if err := fn(ctx); err != nil {
			return nil, err
		}
		g.mu.Lock()
		if g.done == nil {
			g.done = make(map[string]bool)
		}
		g.done[sourceID] = true
		g.mu.Unlock()
		return nil, nil
	})
	return err
}

// Forget drops any in-flight or completed call keyed by sourceID, allowing
// the next Do to actually invoke fn again. Used after OnAuthFailure
// invalidates a cached token.
func (g *CSRFGate) Forget(sourceID string) {
	g.mu.Lock()
	delete(g.done, sourceID)
	g.mu.Unlock()
	g.group.Forget(sourceID)
}
