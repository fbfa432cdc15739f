// Package adapter defines the common contract every backend adapter (C4)
// implements, plus the shared argument-translation helpers (chamber code
// maps, date encoding) used across the four adapter families, per spec.md §4.4.
package adapter

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
)

// Adapter is the uniform surface the dispatcher drives. Every backend family
// (JSON-over-HTTP, Form/WebForms, browser-driven, third-party-search)
// implements the same five methods; family-specific plumbing (session
// warm-up, browser navigation, pagination quirks) stays inside the adapter.
type Adapter interface {
	// SourceID returns the backend's closed-set identifier.
	SourceID() config.SourceID

	// Subtypes lists the tool-addressable subtypes this adapter exposes.
	// Most adapters return a single empty-string subtype; multi-endpoint
	// backends (the court-of-accounts chambers) return one per endpoint.
	Subtypes() []string

	// Search executes query against the backend and returns one uniform
	// page. Implementations validate query before any network call and
	// return gatewayerr.InvalidArgument on failure.
	Search(ctx context.Context, query model.SearchQuery) (model.SearchResultPage, error)

	// Fetch resolves handle to its raw container bytes and declared kind.
	// The caller (toolregistry) runs normalization; adapters never convert
	// to Markdown themselves.
	Fetch(ctx context.Context, handle model.DocumentHandle) (raw []byte, kind NormalizeKind, sourceURL string, err error)

	// Health performs one cheap backend probe and reports latency and
	// status, never mutating session state.
	Health(ctx context.Context) model.HealthSample
}

// NormalizeKind mirrors normalize.ContainerKind without importing the
// normalize package, keeping adapter free of a dependency on the
// normalization internals it does not otherwise need.
type NormalizeKind string

const (
	KindHTMLFragment NormalizeKind = "html_fragment"
	KindHTMLPage     NormalizeKind = "html_page"
	KindPDF          NormalizeKind = "pdf"
)

// ProbeHasRecords reports whether a Health probe's raw JSON response carries
// at least one record: either arrayPath resolves to a non-empty array, or
// totalPath resolves to a positive number. A backend can return HTTP 200
// with an error payload or an empty result set, so a successful transport
// round-trip alone does not establish Healthy.
func ProbeHasRecords(raw []byte, arrayPath, totalPath string) bool {
	result := gjson.ParseBytes(raw)
	if arrayPath != "" {
		if arr := result.Get(arrayPath); arr.IsArray() && len(arr.Array()) > 0 {
			return true
		}
	}
	if totalPath != "" {
		if total := result.Get(totalPath); total.Exists() && total.Int() > 0 {
			return true
		}
	}
	return false
}

// Clock abstracts time.Now for deadline computation so tests can control it.
type Clock func() time.Time

// Deadline computes an absolute deadline timeout from now, per-source, via
// the configured Clock.
func Deadline(now Clock, timeout time.Duration) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().Add(timeout)
}
