package toolregistry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/health"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/normalize"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/workctx"
)

// Registry is the immutable tool surface built once at startup from a
// literal Descriptor list. It owns no adapter state itself — adapters and
// their pools are constructed by cmd/gateway and handed in.
type Registry struct {
	descriptors map[string]Descriptor
	adapters    map[string]adapter.Adapter // keyed by source_id
	normalizer  *normalize.Normalizer
	timeouts    config.Config
	logger      telemetry.Logger
	metrics     telemetry.Metrics
	tracer      telemetry.Tracer
}

// Deps bundles the Registry's external collaborators.
type Deps struct {
	Adapters   []adapter.Adapter
	Normalizer *normalize.Normalizer
	Timeouts   config.Config
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
	Tracer     telemetry.Tracer
}

// New builds an immutable Registry from descriptors and deps. It returns an
// error if two descriptors claim the same tool name, or a descriptor names
// a source with no corresponding adapter.
func New(deps Deps, descriptors ...Descriptor) (*Registry, error) {
	byName := make(map[string]Descriptor, len(descriptors))
	bySource := make(map[string]adapter.Adapter, len(deps.Adapters))
	for _, a := range deps.Adapters {
		bySource[string(a.SourceID())] = a
	}
	for _, d := range descriptors {
		if _, dup := byName[d.Name]; dup {
			return nil, gatewayerr.Newf(gatewayerr.InvalidArgument, "duplicate tool name %q", d.Name)
		}
		if _, ok := bySource[d.Source]; !ok {
			return nil, gatewayerr.Newf(gatewayerr.InvalidArgument, "descriptor %q references unregistered source %q", d.Name, d.Source)
		}
		byName[d.Name] = d
	}
	logger := deps.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Registry{
		descriptors: byName,
		adapters:    bySource,
		normalizer:  deps.Normalizer,
		timeouts:    deps.Timeouts,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}, nil
}

// Descriptors returns every registered tool descriptor, for the host
// runtime's own discovery call.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	return out
}

// Dispatch validates args against the named tool's schema, then routes to
// the owning adapter. Validation never touches the network: InvalidArgument
// is always returned before any adapter method runs (schema-closure
// property).
func (r *Registry) Dispatch(ctx context.Context, toolName string, rawArgs json.RawMessage) Envelope {
	start := time.Now()
	callID := uuid.NewString()
	envelope := Envelope{ToolCallID: callID, ToolName: toolName}

	ctx, span := r.tracer.Start(ctx, "toolregistry.Dispatch")
	defer span.End()

	if toolName == "health" {
		envelope.Result = r.dispatchHealth(ctx)
		envelope.DurationMs = time.Since(start).Milliseconds()
		return envelope
	}

	descriptor, ok := r.descriptors[toolName]
	if !ok {
		return r.fail(envelope, start, gatewayerr.Newf(gatewayerr.NotFound, "unknown tool %q", toolName))
	}
	envelope.SourceID = descriptor.Source

	if !descriptor.Annotations.ReadOnly {
		return r.fail(envelope, start, gatewayerr.Newf(gatewayerr.AccessDenied, "tool %q declares readOnlyHint=false and is refused", toolName))
	}

	var args map[string]any
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return r.fail(envelope, start, gatewayerr.Wrap(gatewayerr.InvalidArgument, "malformed arguments", err))
		}
	}
	if err := Validate(descriptor.Schema, args); err != nil {
		return r.fail(envelope, start, err)
	}

	backend, ok := r.adapters[descriptor.Source]
	if !ok {
		return r.fail(envelope, start, gatewayerr.Newf(gatewayerr.NotFound, "no adapter registered for source %q", descriptor.Source))
	}

	timeout := r.timeouts.Timeout(config.SourceID(descriptor.Source))
	var deadline time.Time
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	callCtx, cancel := workctx.WithDeadline(ctx, deadline, timeout)
	defer cancel()

	var result any
	var err error
	switch descriptor.Capability {
	case CapabilitySearch:
		result, err = r.dispatchSearch(callCtx, backend, descriptor, args)
	case CapabilityFetch:
		result, err = r.dispatchFetch(callCtx, args)
	case CapabilityHealth:
		sample := backend.Health(callCtx)
		result, err = sample, nil
	default:
		err = gatewayerr.Newf(gatewayerr.InvalidArgument, "descriptor %q has unknown capability %q", descriptor.Name, descriptor.Capability)
	}
	if err != nil {
		if ge, ok := gatewayerr.As(err); ok {
			err = ge.WithSource(descriptor.Source, descriptor.Name)
		}
		return r.fail(envelope, start, err)
	}

	if doc, ok := result.(model.NormalizedDocument); ok {
		// fetch_unified's descriptor names "bedesten" as its nominal source,
		// but the document was actually served by its origin court.
		envelope.SourceID = doc.Handle.SourceID
	}

	envelope.Result = result
	envelope.DurationMs = time.Since(start).Milliseconds()
	r.logger.Info(ctx, "dispatch ok", "tool_name", toolName, "source_id", envelope.SourceID, "duration_ms", envelope.DurationMs)
	r.metrics.RecordTimer("toolregistry.dispatch.duration", time.Since(start), "tool_name", toolName, "source_id", envelope.SourceID)
	return envelope
}

func (r *Registry) dispatchHealth(ctx context.Context) health.AggregateHealth {
	adapters := make([]adapter.Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	return health.ProbeAll(ctx, adapters, 10*time.Second)
}

func (r *Registry) dispatchSearch(ctx context.Context, backend adapter.Adapter, descriptor Descriptor, args map[string]any) (model.SearchResultPage, error) {
	query := buildSearchQuery(descriptor, args)
	return backend.Search(ctx, query)
}

func (r *Registry) dispatchFetch(ctx context.Context, args map[string]any) (model.NormalizedDocument, error) {
	wire, _ := args["document_handle"].(string)
	handle, err := model.DecodeHandle(wire)
	if err != nil {
		return model.NormalizedDocument{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, "decode document handle", err)
	}
	backend, ok := r.adapters[handle.SourceID]
	if !ok {
		return model.NormalizedDocument{}, gatewayerr.Newf(gatewayerr.NotFound, "no adapter registered for source %q", handle.SourceID)
	}

	raw, kind, sourceURL, err := backend.Fetch(ctx, handle)
	if err != nil {
		return model.NormalizedDocument{}, err
	}

	doc, err := r.normalizer.Normalize(raw, normalize.ContainerKind(kind))
	if err != nil {
		return model.NormalizedDocument{}, err
	}

	chunkIndex := 1
	if v, ok := args["chunk_index"]; ok {
		if n, ok := asChunkIndex(v); ok {
			chunkIndex = n
		}
	}
	chunk := doc.Chunk(chunkIndex)
	charCount := doc.RuneCount()

	return model.NormalizedDocument{
		Handle:        handle,
		SourceURL:     sourceURL,
		TotalChunks:   chunk.TotalChunks,
		ChunkIndex:    chunk.ChunkIndex,
		ChunkText:     chunk.Text,
		IsPaginated:   chunk.IsPaginated,
		FullCharCount: &charCount,
	}, nil
}

func asChunkIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (r *Registry) fail(envelope Envelope, start time.Time, err error) Envelope {
	ge, _ := gatewayerr.As(err)
	if ge == nil {
		ge = gatewayerr.Wrap(gatewayerr.BackendFailure, "", err)
	}
	envelope.ErrorKind = string(ge.Kind)
	envelope.ErrorMessage = ge.Error()
	envelope.DurationMs = time.Since(start).Milliseconds()
	r.logger.Warn(context.Background(), "dispatch failed", "tool_name", envelope.ToolName, "error_kind", envelope.ErrorKind)
	r.metrics.IncCounter("toolregistry.dispatch.error", 1, "tool_name", envelope.ToolName, "error_kind", envelope.ErrorKind)
	return envelope
}
