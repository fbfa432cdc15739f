// Package telemetry abstracts structured logging, metrics, and tracing so the
// gateway core never depends directly on a logging or OTEL provider. Concrete
// implementations delegate to Clue and OpenTelemetry; tests use the no-op
// implementations.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the gateway. The
// interface is intentionally small so adapters and pools can be tested with
// lightweight stubs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers for per-source and
// per-tool instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so gateway code stays agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// CallTelemetry captures the counters recorded for a single tool call, per
// spec.md §4.8: input/output token estimates, wall-clock duration, and the
// success/error kind. A structured log line is emitted per call; no shared
// in-memory dashboard is required.
type CallTelemetry struct {
	ToolName        string
	SourceID        string
	DurationMs      int64
	InputTokensEst  int
	OutputTokensEst int
	ErrorKind       string // empty on success
}
