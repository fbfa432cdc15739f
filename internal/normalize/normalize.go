// Package normalize implements the document-normalization pipeline (C1):
// container detection, HTML sanitation, PDF extraction, Markdown conversion,
// and deterministic chunked pagination, per spec.md §4.1.
package normalize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/ledongthuc/pdf"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
)

// ContainerKind identifies the native container of a fetched document.
type ContainerKind string

const (
	ContainerHTMLFragment ContainerKind = "html_fragment"
	ContainerHTMLPage     ContainerKind = "html_page"
	ContainerPDF          ContainerKind = "pdf"
)

// DefaultChunkSize is the default window size in Unicode characters (runes),
// per spec.md §3's NormalizedDocument invariants.
const DefaultChunkSize = 5000

// Document is the result of converting a raw container to Markdown, with
// precomputed rune-offset chunk boundaries so repeated Chunk calls are O(1).
type Document struct {
	Markdown    string
	runes       []rune
	boundaries  []int // rune offsets, len(boundaries) == TotalChunks+1
	TotalChunks int
}

// Chunk is one windowed slice of a Document's Markdown, with the clamped
// chunk index the caller requested.
type Chunk struct {
	ChunkIndex  int
	TotalChunks int
	Text        string
	IsPaginated bool
}

// Normalizer converts raw backend payloads into paginated Markdown.
type Normalizer struct {
	chunkSize    int
	tablePlugins bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithChunkSize overrides the default 5,000-character chunk window.
func WithChunkSize(size int) Option {
	return func(n *Normalizer) {
		if size > 0 {
			n.chunkSize = size
		}
	}
}

// WithTablePlugins enables the table-conversion plugin. Per spec.md §4.1,
// this is a per-adapter switch for backends known to embed tables in their
// decision HTML.
func WithTablePlugins(enabled bool) Option {
	return func(n *Normalizer) { n.tablePlugins = enabled }
}

// New constructs a Normalizer with the given options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// unescapeSequences normalizes common escape sequences the backends embed
// in JSON-wrapped HTML fragments (spec.md §4.1: unescape entities once,
// normalize \", \r\n, \n, \t).
func unescapeSequences(raw string) string {
	replacer := strings.NewReplacer(
		`\"`, `"`,
		`\r\n`, "\n",
		`\n`, "\n",
		`\t`, "\t",
	)
	return replacer.Replace(raw)
}

// Normalize converts raw bytes of the declared container kind into a
// Document with precomputed chunk boundaries. It never retries and never
// mutates backend state; conversion failures surface as ParseFailure.
func (n *Normalizer) Normalize(raw []byte, kind ContainerKind) (*Document, error) {
	var markdown string
	switch kind {
	case ContainerHTMLFragment, ContainerHTMLPage:
		md, err := n.convertHTML(raw)
		if err != nil {
			return nil, gatewayerr.Wrap(gatewayerr.ParseFailure, fmt.Sprintf("convert %s", kind), err)
		}
		markdown = md
	case ContainerPDF:
		md, err := n.convertPDF(raw)
		if err != nil {
			return nil, gatewayerr.Wrap(gatewayerr.ParseFailure, "convert pdf", err)
		}
		markdown = md
	default:
		return nil, gatewayerr.Newf(gatewayerr.ParseFailure, "unknown container kind %q", kind)
	}
	return n.buildDocument(markdown), nil
}

func (n *Normalizer) convertHTML(raw []byte) (string, error) {
	html := unescapeSequences(string(raw))

	plugins := []converter.Plugin{
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	}
	if n.tablePlugins {
		plugins = append(plugins, table.NewTablePlugin())
	}
	conv := converter.NewConverter(converter.WithPlugins(plugins...))

	// ConvertString is invoked directly on the in-memory stream: some
	// backends embed decision ids in paths long enough to exceed filesystem
	// limits, so no temp file is used (spec.md §4.1).
	md, err := conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("html to markdown: %w", err)
	}
	return md, nil
}

func (n *Normalizer) convertPDF(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// buildDocument splits markdown into fixed-size rune windows. Chunking by
// rune count (not byte count) avoids splitting multi-byte UTF-8 characters
// common in Turkish text (ç, ğ, ı, ö, ş, ü).
func (n *Normalizer) buildDocument(markdown string) *Document {
	runes := []rune(markdown)
	size := n.chunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	total := (len(runes) + size - 1) / size
	if total == 0 {
		total = 1
	}
	boundaries := make([]int, 0, total+1)
	for i := 0; i <= total; i++ {
		offset := i * size
		if offset > len(runes) {
			offset = len(runes)
		}
		boundaries = append(boundaries, offset)
	}
	return &Document{
		Markdown:    markdown,
		runes:       runes,
		boundaries:  boundaries,
		TotalChunks: total,
	}
}

// RuneCount returns the document's full length in Unicode characters, not
// bytes, matching the rune-based offsets Chunk slices on.
func (d *Document) RuneCount() int {
	return len(d.runes)
}

// Chunk returns the requested window, clamping out-of-range indices to the
// nearest valid chunk and reporting the clamped value, per spec.md §3's
// NormalizedDocument invariant.
func (d *Document) Chunk(requested int) Chunk {
	idx := requested
	if idx < 1 {
		idx = 1
	}
	if idx > d.TotalChunks {
		idx = d.TotalChunks
	}
	start := d.boundaries[idx-1]
	end := d.boundaries[idx]
	return Chunk{
		ChunkIndex:  idx,
		TotalChunks: d.TotalChunks,
		Text:        string(d.runes[start:end]),
		IsPaginated: d.TotalChunks > 1,
	}
}
