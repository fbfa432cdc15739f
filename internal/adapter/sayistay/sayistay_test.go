package sayistay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataTablesResponseGenelKurul(t *testing.T) {
	raw := []byte(`{
		"draw": 1,
		"recordsTotal": 2,
		"recordsFiltered": 2,
		"data": [
			{"Id": 101, "KARARNO": "5/1", "KARARTARIH": "2025-01-10", "KARAROZETI": "ihale usulsüzlüğü"},
			{"Id": "102", "KARARNO": "5/2", "KARARTARIH": "2025-02-11", "KARAROZETI": "zimmet"}
		]
	}`)

	entries, total, err := parseDataTablesResponse(raw, SubtypeGenelKurul)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), *total)

	assert.Equal(t, "101", entries[0].Handle.NativeID, "numeric Id must decode through json.Number regardless of backend's JSON type")
	assert.Equal(t, "102", entries[1].Handle.NativeID, "string Id must decode the same way as numeric Id")
	assert.Equal(t, "5/1", entries[0].DecisionNo)
	assert.Equal(t, "2025-01-10", entries[0].DecisionAt)
	assert.Equal(t, "ihale usulsüzlüğü", entries[0].Subject)
	assert.Equal(t, SubtypeGenelKurul, entries[0].Handle.Subtype)
}

func TestParseDataTablesResponseTemyizKurulu(t *testing.T) {
	raw := []byte(`{
		"draw": 1, "recordsTotal": 1, "recordsFiltered": 1,
		"data": [{"Id": 55, "TEMYIZTUTANAKTARIHI": "2025-05-01", "ILAMDAIRESI": "3. Daire", "TEMYIZKARAR": "onama"}]
	}`)

	entries, total, err := parseDataTablesResponse(raw, SubtypeTemyizKurulu)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), *total)
	assert.Equal(t, "2025-05-01", entries[0].DecisionAt)
	assert.Equal(t, "3. Daire", entries[0].Outcome)
	assert.Equal(t, "onama", entries[0].Subject)
}

func TestParseDataTablesResponseDaire(t *testing.T) {
	raw := []byte(`{
		"draw": 1, "recordsTotal": 1, "recordsFiltered": 1,
		"data": [{"Id": 9, "YARGILAMADAIRESI": "2. Daire", "KARARTRH": "2025-06-06", "KARARNO": "9/3", "WEBKARARMETNI": "karar metni"}]
	}`)

	entries, total, err := parseDataTablesResponse(raw, SubtypeDaire)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), *total)
	assert.Equal(t, "2. Daire", entries[0].Outcome)
	assert.Equal(t, "2025-06-06", entries[0].DecisionAt)
	assert.Equal(t, "9/3", entries[0].DecisionNo)
	assert.Equal(t, "karar metni", entries[0].Subject)
}

func TestParseDataTablesResponseMalformedRowSkipped(t *testing.T) {
	raw := []byte(`{
		"draw": 1, "recordsTotal": 1, "recordsFiltered": 1,
		"data": [123]
	}`)

	entries, total, err := parseDataTablesResponse(raw, SubtypeDaire)
	require.NoError(t, err, "a row that fails to unmarshal into rowFields is skipped, not a hard error")
	assert.Empty(t, entries)
	assert.Equal(t, int64(1), *total)
}

func TestParseDataTablesResponseInvalidJSON(t *testing.T) {
	_, _, err := parseDataTablesResponse([]byte("not json"), SubtypeDaire)
	assert.Error(t, err)
}

func TestDataTablesParamsEncodesPagination(t *testing.T) {
	form := dataTablesParams(SubtypeDaire, 20, 10)
	assert.Equal(t, "1", form.Get("draw"))
	assert.Equal(t, "20", form.Get("start"))
	assert.Equal(t, "10", form.Get("length"))
	assert.Equal(t, "", form.Get("search[value]"))
	assert.Equal(t, "false", form.Get("search[regex]"))
}
