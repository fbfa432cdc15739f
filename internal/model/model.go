// Package model defines the core data entities shared by every adapter, the
// normalizer, and the dispatcher: SearchQuery, SearchResultPage,
// DocumentHandle, and NormalizedDocument, per spec.md §3.
package model

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DateRange is an inclusive [Start, End] range encoded as ISO YYYY-MM-DD.
// Either bound may be empty to denote an open range.
type DateRange struct {
	Start string
	End   string
}

// CaseNumber is the (year, sequence) tuple backends use to identify a
// decision independent of free-text search.
type CaseNumber struct {
	Year     int
	Sequence int
}

// Pagination carries the page_index/page_size pair. page_index is 1-based.
type Pagination struct {
	PageIndex int
	PageSize  int
}

// SearchQuery is the stable, typed search contract forwarded to a single
// adapter. Phrase operator syntax (+required, -excluded, "exact", AND/OR/NOT)
// is forwarded verbatim; the core never interprets it.
type SearchQuery struct {
	SourceID        string
	Subtype         string
	Phrase          string
	DateRange       *DateRange
	ChamberCode     string // closed-set code, e.g. "H1".."C23", "HGK", "D1".."D17", "ALL"
	CaseNumber      *CaseNumber
	SubjectCategory string
	Pagination      Pagination
}

// Validate enforces the cross-field invariants from spec.md §3 that the
// dispatcher must check before any network call: page bounds, and the
// empty-phrase-requires-a-filter rule for adapters that declare it via
// requireFilterOnEmptyPhrase.
func (q SearchQuery) Validate(backendMaxOffset int, requireFilterOnEmptyPhrase bool) error {
	if q.Pagination.PageIndex < 1 {
		return fmt.Errorf("page_index must be >= 1")
	}
	if q.Pagination.PageSize < 1 || q.Pagination.PageSize > 100 {
		return fmt.Errorf("page_size must be in [1,100]")
	}
	if backendMaxOffset > 0 && q.Pagination.PageIndex*q.Pagination.PageSize > backendMaxOffset {
		return fmt.Errorf("page_index*page_size exceeds backend_max_offset (%d)", backendMaxOffset)
	}
	if requireFilterOnEmptyPhrase && strings.TrimSpace(q.Phrase) == "" {
		if q.DateRange == nil && q.ChamberCode == "" && q.CaseNumber == nil && q.SubjectCategory == "" {
			return fmt.Errorf("phrase is empty and no structured filter is set")
		}
	}
	return nil
}

// Entry is one row of a SearchResultPage.
type Entry struct {
	Handle      DocumentHandle
	Title       string
	Applicant   string
	Subject     string
	Outcome     string
	ChamberName string
	DecisionNo  string
	DecisionAt  string // ISO YYYY-MM-DD when available
}

// SearchResultPage is the uniform page shape every adapter's Search returns.
type SearchResultPage struct {
	SourceID     string
	Subtype      string
	TotalRecords *int64 // nil only when the backend does not expose a total
	PageIndex    int
	PageSize     int
	Entries      []Entry
}

// DocumentHandle is the opaque, URL-safe, self-describing token used to
// re-fetch a decision without re-running the search. Two searches returning
// the same underlying decision within one corpus generation must produce
// equal handles (spec.md §3, §8 handle-stability property).
type DocumentHandle struct {
	SourceID  string
	Subtype   string
	NativeID  string // backend-native id: numeric id, URL path, composite key
	PDFURL    string // optional hint
	LandingURL string // optional hint
}

// Encode renders the wire format from spec.md §6:
// "<source_id>:<subtype>:<native_id>" where native_id is URL-safe base64 of
// the backend-native composite. Hints are not encoded into the wire string —
// callers must treat the handle as opaque and re-resolve hints via Fetch.
func (h DocumentHandle) Encode() string {
	native := base64.RawURLEncoding.EncodeToString([]byte(h.NativeID))
	return fmt.Sprintf("%s:%s:%s", h.SourceID, h.Subtype, native)
}

// DecodeHandle parses the wire format produced by Encode. It does not
// populate PDFURL/LandingURL hints; adapters that need them re-derive them
// during Fetch from the decoded NativeID.
func DecodeHandle(wire string) (DocumentHandle, error) {
	parts := strings.SplitN(wire, ":", 3)
	if len(parts) != 3 {
		return DocumentHandle{}, fmt.Errorf("malformed document handle")
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return DocumentHandle{}, fmt.Errorf("malformed document handle native id: %w", err)
	}
	return DocumentHandle{SourceID: parts[0], Subtype: parts[1], NativeID: string(raw)}, nil
}

// NormalizedDocument is the paginated, chunked Markdown view of a fetched
// decision.
type NormalizedDocument struct {
	Handle        DocumentHandle
	SourceURL     string
	TotalChunks   int
	ChunkIndex    int
	ChunkText     string
	IsPaginated   bool
	FullCharCount *int
}

// HealthStatus is the closed set of per-backend health states (spec.md §4.8).
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthSample is one backend's probe result.
type HealthSample struct {
	SourceID  string
	Status    HealthStatus
	LatencyMs int64
	Reason    string
}
