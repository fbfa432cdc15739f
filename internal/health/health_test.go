package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
)

type fakeAdapter struct {
	id     config.SourceID
	status model.HealthStatus
}

func (f fakeAdapter) SourceID() config.SourceID { return f.id }
func (f fakeAdapter) Subtypes() []string        { return []string{""} }
func (f fakeAdapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	return model.SearchResultPage{}, nil
}
func (f fakeAdapter) Fetch(ctx context.Context, h model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	return nil, "", "", nil
}
func (f fakeAdapter) Health(ctx context.Context) model.HealthSample {
	return model.HealthSample{SourceID: string(f.id), Status: f.status}
}

func TestProbeAllHealthyWhenAllHealthy(t *testing.T) {
	adapters := []adapter.Adapter{
		fakeAdapter{id: config.SourceYargitay, status: model.HealthHealthy},
		fakeAdapter{id: config.SourceDanistay, status: model.HealthHealthy},
	}
	agg := ProbeAll(context.Background(), adapters, time.Second)
	assert.Equal(t, model.HealthHealthy, agg.Status)
	assert.Len(t, agg.Samples, 2)
}

func TestProbeAllDegradedWhenMixed(t *testing.T) {
	adapters := []adapter.Adapter{
		fakeAdapter{id: config.SourceYargitay, status: model.HealthHealthy},
		fakeAdapter{id: config.SourceDanistay, status: model.HealthUnhealthy},
	}
	agg := ProbeAll(context.Background(), adapters, time.Second)
	assert.Equal(t, model.HealthDegraded, agg.Status)
}

func TestProbeAllUnhealthyWhenNoneHealthy(t *testing.T) {
	adapters := []adapter.Adapter{
		fakeAdapter{id: config.SourceYargitay, status: model.HealthUnhealthy},
	}
	agg := ProbeAll(context.Background(), adapters, time.Second)
	assert.Equal(t, model.HealthUnhealthy, agg.Status)
}

func TestProbeAllUnhealthyWhenEmpty(t *testing.T) {
	agg := ProbeAll(context.Background(), nil, time.Second)
	assert.Equal(t, model.HealthUnhealthy, agg.Status)
	assert.Empty(t, agg.Samples)
}
