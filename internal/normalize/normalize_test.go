package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDeterminism(t *testing.T) {
	n := New(WithChunkSize(10))
	doc, err := n.Normalize([]byte("<p>"+strings.Repeat("ab", 50)+"</p>"), ContainerHTMLFragment)
	require.NoError(t, err)

	first := doc.Chunk(3)
	second := doc.Chunk(3)
	assert.Equal(t, first, second, "chunk(B,S,i) must be a pure function of (B,S,i)")
}

func TestChunkTotality(t *testing.T) {
	n := New(WithChunkSize(7))
	doc, err := n.Normalize([]byte("<p>merhaba dünya, bu bir test metnidir.</p>"), ContainerHTMLFragment)
	require.NoError(t, err)

	var rebuilt strings.Builder
	for i := 1; i <= doc.TotalChunks; i++ {
		rebuilt.WriteString(doc.Chunk(i).Text)
	}
	assert.Equal(t, doc.Markdown, rebuilt.String(), "concatenated chunks must equal the full markdown with no loss or duplication")
}

func TestChunkClamping(t *testing.T) {
	n := New(WithChunkSize(5))
	doc, err := n.Normalize([]byte("<p>abcdefghijklmno</p>"), ContainerHTMLFragment)
	require.NoError(t, err)
	require.Equal(t, 3, doc.TotalChunks)

	over := doc.Chunk(9999)
	assert.Equal(t, 3, over.ChunkIndex)
	assert.NotEmpty(t, over.Text)
	assert.True(t, over.IsPaginated)

	under := doc.Chunk(0)
	assert.Equal(t, 1, under.ChunkIndex)
}

func TestChunkRuneSafe(t *testing.T) {
	// Turkish multi-byte characters must never be split mid-rune.
	n := New(WithChunkSize(3))
	doc, err := n.Normalize([]byte("<p>çiğköşüğİĞÜŞÖÇ</p>"), ContainerHTMLFragment)
	require.NoError(t, err)
	for i := 1; i <= doc.TotalChunks; i++ {
		chunk := doc.Chunk(i)
		assert.True(t, len([]rune(chunk.Text)) <= 3)
		for _, r := range chunk.Text {
			assert.NotEqual(t, rune(0xFFFD), r, "chunk must not contain a replacement rune from a split UTF-8 sequence")
		}
	}
}

func TestIsPaginatedSingleChunk(t *testing.T) {
	n := New(WithChunkSize(5000))
	doc, err := n.Normalize([]byte("<p>short</p>"), ContainerHTMLFragment)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.TotalChunks)
	assert.False(t, doc.Chunk(1).IsPaginated)
}
