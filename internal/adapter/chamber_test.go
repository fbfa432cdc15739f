package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChamberCodeSetResolvesKnownAndWildcard(t *testing.T) {
	set := YargitayChambers()

	native, err := set.Resolve("H1")
	require.NoError(t, err)
	assert.Equal(t, "1. Hukuk Dairesi", native)

	native, err = set.Resolve("CGK")
	require.NoError(t, err)
	assert.Equal(t, "Ceza Genel Kurulu", native)

	native, err = set.Resolve("")
	require.NoError(t, err)
	assert.Empty(t, native, "empty code must resolve to the ALL wildcard with no native filter")

	_, err = set.Resolve("Z99")
	assert.Error(t, err, "unknown chamber code must be rejected before any network call")
}

func TestEncodeTurkishDateFormatsDDMMYYYY(t *testing.T) {
	out, err := EncodeTurkishDate("2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, "05.03.2026", out)

	out, err = EncodeTurkishDate("")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = EncodeTurkishDate("not-a-date")
	assert.Error(t, err)
}

func TestEncodeISODateValidatesYear(t *testing.T) {
	out, err := EncodeISODate("2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", out)

	_, err = EncodeISODate("26-03-05")
	assert.Error(t, err)
}
