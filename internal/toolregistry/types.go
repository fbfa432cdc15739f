// Package toolregistry implements the tool registry and dispatcher (C5):
// the single RPC surface external callers address, built from literal
// ArgSchema data (never reflection) per SPEC_FULL.md §3's
// "argument schema as data" rule.
package toolregistry

// Capability is the closed set of operations a Descriptor exposes.
type Capability string

const (
	CapabilitySearch Capability = "search"
	CapabilityFetch  Capability = "fetch"
	CapabilityHealth Capability = "health"
)

// FieldKind is the closed set of argument field types the schema validator
// understands.
type FieldKind string

const (
	FieldString     FieldKind = "string"
	FieldInt        FieldKind = "int"
	FieldClosedSet  FieldKind = "closed_set"
	FieldDateRange  FieldKind = "date_range"
	FieldCaseNumber FieldKind = "case_number"
)

// FieldConstraint names one argument field's type, closed-set membership,
// numeric range, and required-ness. Every Descriptor's Schema is a literal
// map of these — no reflection over adapter method signatures.
type FieldConstraint struct {
	Kind      FieldKind
	Required  bool
	ClosedSet []string
	MinInt    int
	MaxInt    int
}

// ArgSchema is the literal, data-driven argument contract for one tool.
type ArgSchema struct {
	Fields map[string]FieldConstraint
}

// Annotations carries human-facing metadata surfaced to the host runtime.
// ReadOnly and OpenWorld mirror the MCP tool-annotation hints: ReadOnly
// false marks a tool that would mutate state if invoked, and Dispatch
// refuses to invoke any such tool since every operation this registry
// exposes is a read against an external legal-research backend.
type Annotations struct {
	Description string
	Idempotent  bool
	ReadOnly    bool
	OpenWorld   bool
}

// Descriptor is one addressable tool: a (source, subtype, capability)
// triple plus its schema and annotations.
type Descriptor struct {
	Name        string
	Source      string
	Subtype     string
	Capability  Capability
	Schema      ArgSchema
	Annotations Annotations
}

// Envelope is the uniform response shape returned to every caller,
// regardless of which backend or capability served the call.
type Envelope struct {
	ToolCallID   string `json:"tool_call_id"`
	ToolName     string `json:"tool_name"`
	SourceID     string `json:"source_id,omitempty"`
	Result       any    `json:"result,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}
