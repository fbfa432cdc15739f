package bddk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTavilyResultsMapsURLAndContent(t *testing.T) {
	raw := []byte(`{
		"results": [
			{"url": "https://www.bddk.org.tr/Mevzuat/DokumanGetir/123", "title": "Karar Sayısı: 123", "content": "özet metni"},
			{"url": "https://www.bddk.org.tr/Mevzuat/DokumanGetir/456", "title": "Karar Sayısı: 456", "content": "ikinci özet"}
		]
	}`)

	entries := parseTavilyResults(raw)
	assert.Len(t, entries, 2)
	assert.Equal(t, "https://www.bddk.org.tr/Mevzuat/DokumanGetir/123", entries[0].Handle.NativeID)
	assert.Equal(t, entries[0].Handle.NativeID, entries[0].Handle.LandingURL, "Tavily results expose no stable record id distinct from their URL")
	assert.Equal(t, "Karar Sayısı: 123", entries[0].Title)
	assert.Equal(t, "özet metni", entries[0].Subject)
}

func TestParseTavilyResultsEmpty(t *testing.T) {
	entries := parseTavilyResults([]byte(`{"results": []}`))
	assert.Empty(t, entries)
}
