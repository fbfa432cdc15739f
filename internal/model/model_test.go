package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentHandleRoundTrip(t *testing.T) {
	h := DocumentHandle{SourceID: "yargitay", Subtype: "", NativeID: "123456/7"}
	wire := h.Encode()

	decoded, err := DecodeHandle(wire)
	require.NoError(t, err)
	assert.Equal(t, h.SourceID, decoded.SourceID)
	assert.Equal(t, h.Subtype, decoded.Subtype)
	assert.Equal(t, h.NativeID, decoded.NativeID)
}

func TestDocumentHandleStableAcrossEncodes(t *testing.T) {
	h := DocumentHandle{SourceID: "anayasa", Subtype: "bireysel_basvuru", NativeID: "2024/5555"}
	assert.Equal(t, h.Encode(), h.Encode(), "encoding the same handle twice must be identical (handle-stability property)")
}

func TestDecodeHandleRejectsMalformedWire(t *testing.T) {
	_, err := DecodeHandle("not-enough-parts")
	assert.Error(t, err)

	_, err = DecodeHandle("source:subtype:not-base64!!!")
	assert.Error(t, err)
}

func TestSearchQueryValidatePageBounds(t *testing.T) {
	q := SearchQuery{Phrase: "test", Pagination: Pagination{PageIndex: 1, PageSize: 20}}
	assert.NoError(t, q.Validate(0, false))

	q.Pagination.PageIndex = 0
	assert.Error(t, q.Validate(0, false), "page_index below 1 must be rejected")

	q.Pagination.PageIndex = 1
	q.Pagination.PageSize = 0
	assert.Error(t, q.Validate(0, false), "page_size below 1 must be rejected")

	q.Pagination.PageSize = 101
	assert.Error(t, q.Validate(0, false), "page_size above 100 must be rejected")
}

func TestSearchQueryValidateBackendMaxOffset(t *testing.T) {
	q := SearchQuery{Phrase: "x", Pagination: Pagination{PageIndex: 100, PageSize: 100}}
	assert.Error(t, q.Validate(5000, false), "page_index*page_size exceeding backend_max_offset must be rejected")
	assert.NoError(t, q.Validate(10000, false))
}

func TestSearchQueryValidateRequiresFilterOnEmptyPhrase(t *testing.T) {
	q := SearchQuery{Pagination: Pagination{PageIndex: 1, PageSize: 20}}
	assert.Error(t, q.Validate(0, true), "empty phrase with no structured filter must be rejected when required")

	q.ChamberCode = "H1"
	assert.NoError(t, q.Validate(0, true))
}
