package toolregistry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/normalize"
)

type recordingAdapter struct {
	id          config.SourceID
	searchCalls int
	fetchCalls  int
	searchErr   error
}

func (a *recordingAdapter) SourceID() config.SourceID { return a.id }
func (a *recordingAdapter) Subtypes() []string        { return []string{""} }
func (a *recordingAdapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	a.searchCalls++
	if a.searchErr != nil {
		return model.SearchResultPage{}, a.searchErr
	}
	return model.SearchResultPage{SourceID: string(a.id), Entries: []model.Entry{{Title: "result"}}}, nil
}
func (a *recordingAdapter) Fetch(ctx context.Context, h model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	a.fetchCalls++
	return []byte("<p>decision text</p>"), adapter.KindHTMLFragment, "https://example.test/doc", nil
}
func (a *recordingAdapter) Health(ctx context.Context) model.HealthSample {
	return model.HealthSample{SourceID: string(a.id), Status: model.HealthHealthy}
}

func newTestRegistry(t *testing.T, backend *recordingAdapter) *Registry {
	t.Helper()
	descriptors := []Descriptor{
		{
			Name: "search_yargitay", Source: string(backend.id), Capability: CapabilitySearch,
			Schema: ArgSchema{Fields: baseSearchFields()},
		},
		{
			Name: "get_yargitay_document", Source: string(backend.id), Capability: CapabilityFetch,
			Schema: fetchSchema(),
		},
	}
	reg, err := New(Deps{
		Adapters:   []adapter.Adapter{backend},
		Normalizer: normalize.New(),
		Timeouts:   config.Config{},
	}, descriptors...)
	require.NoError(t, err)
	return reg
}

func TestDispatchRejectsUnknownToolWithoutCallingAdapter(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	env := reg.Dispatch(context.Background(), "search_nonexistent", nil)
	assert.Equal(t, "not_found", env.ErrorKind)
	assert.Equal(t, 0, backend.searchCalls)
}

func TestDispatchRejectsUnknownArgumentBeforeAdapterCall(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	args, _ := json.Marshal(map[string]any{"not_a_real_field": "x"})
	env := reg.Dispatch(context.Background(), "search_yargitay", args)
	assert.Equal(t, "invalid_argument", env.ErrorKind, "schema closure: unknown fields must be rejected before any adapter call")
	assert.Equal(t, 0, backend.searchCalls)
}

func TestDispatchRejectsOutOfRangePageSizeBeforeAdapterCall(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	args, _ := json.Marshal(map[string]any{"phrase": "test", "page_size": 500})
	env := reg.Dispatch(context.Background(), "search_yargitay", args)
	assert.Equal(t, "invalid_argument", env.ErrorKind)
	assert.Equal(t, 0, backend.searchCalls, "out-of-range page_size must fail before any network call")
}

func TestDispatchSearchSucceeds(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	args, _ := json.Marshal(map[string]any{"phrase": "test", "page_index": 1, "page_size": 20})
	env := reg.Dispatch(context.Background(), "search_yargitay", args)
	assert.Empty(t, env.ErrorKind)
	assert.Equal(t, 1, backend.searchCalls)
	page, ok := env.Result.(model.SearchResultPage)
	require.True(t, ok)
	assert.Len(t, page.Entries, 1)
}

func TestDispatchFetchNormalizesAndChunks(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	handle := model.DocumentHandle{SourceID: string(config.SourceYargitay), NativeID: "123"}
	args, _ := json.Marshal(map[string]any{"document_handle": handle.Encode()})
	env := reg.Dispatch(context.Background(), "get_yargitay_document", args)
	assert.Empty(t, env.ErrorKind)
	assert.Equal(t, 1, backend.fetchCalls)
	doc, ok := env.Result.(model.NormalizedDocument)
	require.True(t, ok)
	assert.Equal(t, 1, doc.ChunkIndex)
	assert.Contains(t, doc.ChunkText, "decision text")
}

func TestDispatchFetchRejectsMalformedHandleBeforeAdapterCall(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	args, _ := json.Marshal(map[string]any{"document_handle": "not-a-valid-handle"})
	env := reg.Dispatch(context.Background(), "get_yargitay_document", args)
	assert.Equal(t, "invalid_argument", env.ErrorKind)
	assert.Equal(t, 0, backend.fetchCalls)
}

func TestDispatchPropagatesAdapterErrorKind(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)
	backend.searchErr = gatewayerr.New(gatewayerr.BackendFailure, "upstream returned 503")

	args, _ := json.Marshal(map[string]any{"phrase": "test"})
	env := reg.Dispatch(context.Background(), "search_yargitay", args)
	assert.Equal(t, "backend_failure", env.ErrorKind)
}

func TestHealthToolAggregatesAllAdapters(t *testing.T) {
	backend := &recordingAdapter{id: config.SourceYargitay}
	reg := newTestRegistry(t, backend)

	env := reg.Dispatch(context.Background(), "health", nil)
	assert.Empty(t, env.ErrorKind)
}
