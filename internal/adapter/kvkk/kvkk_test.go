package kvkk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBraveResultsMapsWebResults(t *testing.T) {
	raw := []byte(`{
		"query": {"total_results": 42},
		"web": {
			"results": [
				{"url": "https://www.kvkk.gov.tr/Icerik/1", "title": "Karar Özeti 1", "description": "açıklama 1"},
				{"url": "https://www.kvkk.gov.tr/Icerik/2", "title": "Karar Özeti 2", "description": "açıklama 2"}
			]
		}
	}`)

	entries, total := parseBraveResults(raw)
	require.NotNil(t, total)
	assert.Equal(t, int64(42), *total)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://www.kvkk.gov.tr/Icerik/1", entries[0].Handle.NativeID)
	assert.Equal(t, "Karar Özeti 1", entries[0].Title)
	assert.Equal(t, "açıklama 1", entries[0].Subject)
}

func TestParseBraveResultsMissingTotalIsNil(t *testing.T) {
	entries, total := parseBraveResults([]byte(`{"web": {"results": []}}`))
	assert.Nil(t, total)
	assert.Empty(t, entries)
}
