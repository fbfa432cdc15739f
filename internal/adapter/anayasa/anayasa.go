// Package anayasa implements the constitutional court adapter (family a,
// JSON-over-HTTP), covering the two decision subtypes the court publishes:
// norm-control review ("norm_denetimi") and individual application
// ("bireysel_basvuru") rulings.
package anayasa

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

const (
	SubtypeNormDenetimi    = "norm_denetimi"
	SubtypeBireyselBasvuru = "bireysel_basvuru"

	backendMaxOffset = 5000
)

var subtypeEndpoints = map[string]string{
	SubtypeNormDenetimi:    "https://normkararlarbilgibankasi.anayasa.gov.tr/ara",
	SubtypeBireyselBasvuru: "https://kararlarbilgibankasi.anayasa.gov.tr/ara",
}

var subtypeDocumentBase = map[string]string{
	SubtypeNormDenetimi:    "https://normkararlarbilgibankasi.anayasa.gov.tr/dokuman",
	SubtypeBireyselBasvuru: "https://kararlarbilgibankasi.anayasa.gov.tr/dokuman",
}

// Adapter implements adapter.Adapter for the constitutional court's two
// decision databases.
type Adapter struct {
	client *adapter.JSONClient
}

// New constructs the adapter against pool, registering a single session
// policy for the source; subtypes share it and differ only in the CSRF
// sub-endpoint key.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceAnayasa),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceAnayasa), logger)}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceAnayasa }
func (a *Adapter) Subtypes() []string        { return []string{SubtypeNormDenetimi, SubtypeBireyselBasvuru} }

type searchRequestBody struct {
	Phrase          string `json:"phrase"`
	StartDate       string `json:"startDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
	SubjectCategory string `json:"subjectCategory,omitempty"`
	SortByCriteria  string `json:"sortByCriteria"`
	PageSize        int    `json:"pageSize"`
	PageIndex       int    `json:"pageIndex"`
}

// sortByDecisionDate is the cross-cutting tie-breaking rule's criterion for
// this backend, mirroring the upstream client's own sort_by_criteria default.
const sortByDecisionDate = "KararTarihi"

// Search dispatches to the subtype's own base URL.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceAnayasa), "search")
	}
	endpoint, ok := subtypeEndpoints[q.Subtype]
	if !ok {
		return model.SearchResultPage{}, gatewayerr.Newf(gatewayerr.InvalidArgument, "unknown subtype %q", q.Subtype).WithSource(string(config.SourceAnayasa), "search")
	}

	body := searchRequestBody{
		Phrase:          q.Phrase,
		SubjectCategory: q.SubjectCategory,
		SortByCriteria:  sortByDecisionDate,
		PageSize:        q.Pagination.PageSize,
		PageIndex:       q.Pagination.PageIndex,
	}
	if q.DateRange != nil {
		body.StartDate, body.EndDate = q.DateRange.Start, q.DateRange.End
	}

	raw, err := a.client.PostJSON(ctx, q.Subtype, endpoint, body)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	result := gjson.ParseBytes(raw)
	var entries []model.Entry
	result.Get("results").ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceAnayasa),
				Subtype:  q.Subtype,
				NativeID: item.Get("id").String(),
			},
			Title:      item.Get("title").String(),
			Outcome:    item.Get("outcome").String(),
			DecisionAt: item.Get("decisionDate").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("totalCount"); t.Exists() {
		v := t.Int()
		total = &v
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceAnayasa),
		Subtype:      q.Subtype,
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch retrieves a ruling's raw HTML page by its native id and subtype.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	base, ok := subtypeDocumentBase[handle.Subtype]
	if !ok {
		return nil, "", "", gatewayerr.Newf(gatewayerr.InvalidArgument, "unknown subtype %q in document handle", handle.Subtype).WithSource(string(config.SourceAnayasa), "fetch")
	}
	url := fmt.Sprintf("%s/%s", base, handle.NativeID)
	raw, err := a.client.GetJSON(ctx, handle.Subtype, url)
	if err != nil {
		return nil, "", "", err
	}
	if len(raw) == 0 {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content").WithSource(string(config.SourceAnayasa), "fetch")
	}
	return raw, adapter.KindHTMLPage, url, nil
}

// Health probes the norm-control endpoint only; both subtypes share
// infrastructure closely enough that one probe is representative.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceAnayasa)}
	start := time.Now()
	raw, err := a.client.PostJSON(ctx, SubtypeNormDenetimi, subtypeEndpoints[SubtypeNormDenetimi], searchRequestBody{PageSize: 1, PageIndex: 1})
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	if !adapter.ProbeHasRecords(raw, "results", "totalCount") {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}
	sample.Status = model.HealthHealthy
	return sample
}
