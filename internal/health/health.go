// Package health implements the health and telemetry surface (C8):
// concurrent per-backend probing and aggregate status rollup, per
// SPEC_FULL.md §4.8.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
)

// AggregateHealth is the rolled-up status across every registered backend.
type AggregateHealth struct {
	Status  model.HealthStatus
	Samples []model.HealthSample
}

// ProbeAll runs one Health probe per adapter concurrently, each bounded by
// perProbe, and aggregates per spec.md §4.8: healthy iff every backend is
// healthy, degraded if the set is mixed, unhealthy if none responded
// healthy.
func ProbeAll(ctx context.Context, adapters []adapter.Adapter, perProbe time.Duration) AggregateHealth {
	samples := make([]model.HealthSample, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, perProbe)
			defer cancel()
			samples[i] = a.Health(probeCtx)
			return nil
		})
	}
	// errgroup's error is always nil here: Health never returns an error,
	// it reports failure as model.HealthUnhealthy in the sample itself.
	_ = g.Wait()

	return AggregateHealth{Status: aggregate(samples), Samples: samples}
}

func aggregate(samples []model.HealthSample) model.HealthStatus {
	if len(samples) == 0 {
		return model.HealthUnhealthy
	}
	healthyCount := 0
	for _, s := range samples {
		if s.Status == model.HealthHealthy {
			healthyCount++
		}
	}
	switch {
	case healthyCount == len(samples):
		return model.HealthHealthy
	case healthyCount == 0:
		return model.HealthUnhealthy
	default:
		return model.HealthDegraded
	}
}
