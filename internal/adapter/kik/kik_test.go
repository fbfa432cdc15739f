package kik

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSearchEndpointKnownDecisionTypes(t *testing.T) {
	assert.Equal(t, searchEndpoints["Uyuşmazlık Kararı"], resolveSearchEndpoint("Uyuşmazlık Kararı"))
	assert.Equal(t, searchEndpoints["Düzenleyici İşlem"], resolveSearchEndpoint("Düzenleyici İşlem"))
	assert.Equal(t, searchEndpoints["Mahkeme Kararı"], resolveSearchEndpoint("Mahkeme Kararı"))
}

func TestResolveSearchEndpointDefaultsToUyusmazlik(t *testing.T) {
	assert.Equal(t, searchEndpoints["Uyuşmazlık Kararı"], resolveSearchEndpoint("unknown"))
	assert.Equal(t, searchEndpoints["Uyuşmazlık Kararı"], resolveSearchEndpoint(""))
}

func TestDecisionTypesResolveRejectsUnknownChamberCode(t *testing.T) {
	_, err := decisionTypes.Resolve("NOPE")
	assert.Error(t, err)
}

func TestDecisionTypesResolveEmptyDefaultsToWildcard(t *testing.T) {
	native, err := decisionTypes.Resolve("")
	assert.NoError(t, err)
	assert.Empty(t, native)
}
