package toolregistry

import "github.com/saidsurucu/yargi-mcp-sub000/internal/model"

// buildSearchQuery translates validated argument data into the typed
// SearchQuery every adapter accepts. Validate has already run by the time
// this is called, so field types are trusted.
func buildSearchQuery(descriptor Descriptor, args map[string]any) model.SearchQuery {
	q := model.SearchQuery{
		SourceID: descriptor.Source,
		Subtype:  descriptor.Subtype,
		Pagination: model.Pagination{
			PageIndex: 1,
			PageSize:  20,
		},
	}
	if v, ok := args["phrase"].(string); ok {
		q.Phrase = v
	}
	if v, ok := args["chamber_code"].(string); ok {
		q.ChamberCode = v
	}
	if v, ok := args["subject_category"].(string); ok {
		q.SubjectCategory = v
	}
	if v, ok := args["page_index"]; ok {
		if n, ok := asChunkIndex(v); ok {
			q.Pagination.PageIndex = n
		}
	}
	if v, ok := args["page_size"]; ok {
		if n, ok := asChunkIndex(v); ok {
			q.Pagination.PageSize = n
		}
	}
	if v, ok := args["date_range"].(map[string]any); ok {
		dr := &model.DateRange{}
		if s, ok := v["start"].(string); ok {
			dr.Start = s
		}
		if e, ok := v["end"].(string); ok {
			dr.End = e
		}
		q.DateRange = dr
	}
	if v, ok := args["case_number"].(map[string]any); ok {
		cn := &model.CaseNumber{}
		if y, ok := asChunkIndex(v["year"]); ok {
			cn.Year = y
		}
		if s, ok := asChunkIndex(v["sequence"]); ok {
			cn.Sequence = s
		}
		q.CaseNumber = cn
	}
	return q
}
