package toolregistry

import "fmt"

var dateRangeField = FieldConstraint{Kind: FieldDateRange}
var caseNumberField = FieldConstraint{Kind: FieldCaseNumber}
var phraseField = FieldConstraint{Kind: FieldString}
var pageIndexField = FieldConstraint{Kind: FieldInt, MinInt: 1}
var pageSizeField = FieldConstraint{Kind: FieldInt, MinInt: 1, MaxInt: 100}
var subjectCategoryField = FieldConstraint{Kind: FieldString}

func fetchSchema() ArgSchema {
	return ArgSchema{Fields: map[string]FieldConstraint{
		"document_handle": {Kind: FieldString, Required: true},
		"chunk_index":      {Kind: FieldInt, MinInt: 1},
	}}
}

func baseSearchFields() map[string]FieldConstraint {
	return map[string]FieldConstraint{
		"phrase":     phraseField,
		"date_range": dateRangeField,
		"page_index": pageIndexField,
		"page_size":  pageSizeField,
	}
}

func withChamberCode(fields map[string]FieldConstraint, codes []string) map[string]FieldConstraint {
	fields["chamber_code"] = FieldConstraint{Kind: FieldClosedSet, ClosedSet: codes}
	return fields
}

func withCaseNumber(fields map[string]FieldConstraint) map[string]FieldConstraint {
	fields["case_number"] = caseNumberField
	return fields
}

func withSubjectCategory(fields map[string]FieldConstraint) map[string]FieldConstraint {
	fields["subject_category"] = subjectCategoryField
	return fields
}

// BuildDescriptors returns the complete, literal tool surface for every
// backend named in spec.md §6, plus the federated search_unified/
// fetch_unified pair. This is data, not generated from adapter reflection.
func BuildDescriptors() []Descriptor {
	var out []Descriptor

	yargitayCodes := []string{"ALL", "HGK", "CGK"}
	for i := 1; i <= 23; i++ {
		yargitayCodes = append(yargitayCodes, fmt.Sprintf("H%d", i), fmt.Sprintf("C%d", i))
	}
	out = append(out, Descriptor{
		Name: "search_yargitay", Source: "yargitay", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: withCaseNumber(withChamberCode(baseSearchFields(), yargitayCodes))},
		Annotations: Annotations{Description: "Search supreme civil/criminal court decisions", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_yargitay_document", Source: "yargitay", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a supreme court decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	danistayCodes := []string{"ALL", "IDDK", "VDDK"}
	for i := 1; i <= 17; i++ {
		danistayCodes = append(danistayCodes, fmt.Sprintf("D%d", i))
	}
	out = append(out, Descriptor{
		Name: "search_danistay", Source: "danistay", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: withCaseNumber(withChamberCode(baseSearchFields(), danistayCodes))},
		Annotations: Annotations{Description: "Search council of state decisions", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_danistay_document", Source: "danistay", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a council of state decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	for _, subtype := range []string{"norm_denetimi", "bireysel_basvuru"} {
		out = append(out, Descriptor{
			Name: "search_anayasa_" + subtype, Source: "anayasa", Subtype: subtype, Capability: CapabilitySearch,
			Schema:      ArgSchema{Fields: withSubjectCategory(baseSearchFields())},
			Annotations: Annotations{Description: "Search constitutional court " + subtype + " rulings", Idempotent: true, ReadOnly: true, OpenWorld: true},
		})
	}
	out = append(out, Descriptor{
		Name: "get_anayasa_document", Source: "anayasa", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a constitutional court ruling by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_uyusmazlik", Source: "uyusmazlik", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: withChamberCode(baseSearchFields(), []string{"ALL", "HUKUK", "CEZA", "IDARI"})},
		Annotations: Annotations{Description: "Search jurisdictional-dispute court decisions", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_uyusmazlik_document", Source: "uyusmazlik", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a jurisdictional-dispute court decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_rekabet", Source: "rekabet", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: withChamberCode(baseSearchFields(), []string{"ALL", "UYUSMAZLIK", "DUZENLEYICI", "MAHKEME"})},
		Annotations: Annotations{Description: "Search competition authority decisions", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_rekabet_document", Source: "rekabet", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a competition authority decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_emsal", Source: "emsal", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: baseSearchFields()},
		Annotations: Annotations{Description: "Search the precedent index", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_emsal_document", Source: "emsal", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a precedent-index decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	for _, subtype := range []string{"genel_kurul", "temyiz_kurulu", "daire"} {
		out = append(out, Descriptor{
			Name: "search_sayistay_" + subtype, Source: "sayistay", Subtype: subtype, Capability: CapabilitySearch,
			Schema:      ArgSchema{Fields: baseSearchFields()},
			Annotations: Annotations{Description: "Search court of accounts " + subtype + " decisions", Idempotent: true, ReadOnly: true, OpenWorld: true},
		})
	}
	out = append(out, Descriptor{
		Name: "get_sayistay_document", Source: "sayistay", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a court of accounts decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_kik", Source: "kik", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: withChamberCode(baseSearchFields(), []string{"ALL", "UYUSMAZLIK", "DUZELTICI", "IPTAL"})},
		Annotations: Annotations{Description: "Search procurement authority decisions (v2 API)", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_kik_document", Source: "kik", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a procurement authority decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_kik_legacy", Source: "kik_legacy", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: baseSearchFields()},
		Annotations: Annotations{Description: "Search the procurement authority's legacy decision archive", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_kik_legacy_document", Source: "kik_legacy", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a legacy procurement authority decision by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_bddk", Source: "bddk", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: baseSearchFields()},
		Annotations: Annotations{Description: "Search banking regulator decisions via site-restricted search", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_bddk_document", Source: "bddk", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a banking regulator decision page by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_kvkk", Source: "kvkk", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: baseSearchFields()},
		Annotations: Annotations{Description: "Search data-protection authority decisions via site-restricted search", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "get_kvkk_document", Source: "kvkk", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch a data-protection authority decision page by handle", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	out = append(out, Descriptor{
		Name: "search_unified", Source: "bedesten", Capability: CapabilitySearch,
		Schema:      ArgSchema{Fields: baseSearchFields()},
		Annotations: Annotations{Description: "Search across every federated court in one call", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})
	out = append(out, Descriptor{
		Name: "fetch_unified", Source: "bedesten", Capability: CapabilityFetch,
		Schema:      fetchSchema(),
		Annotations: Annotations{Description: "Fetch any decision by handle, dispatching to its origin court", Idempotent: true, ReadOnly: true, OpenWorld: true},
	})

	return out
}
