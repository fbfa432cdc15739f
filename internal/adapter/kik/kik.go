// Package kik implements the procurement authority's modern v2 JSON API
// adapter (family a, JSON-over-HTTP). The legacy browser-driven flow lives
// in internal/adapter/kiklegacy.
package kik

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

const (
	baseURL              = "https://ekapv2.kik.gov.tr"
	sorgulamaURLEndpoint = baseURL + "/b_ihalearaclari/api/KurulKararlari/GetSorgulamaUrl"
	legacyDocumentURL    = "https://ekap.kik.gov.tr/EKAP/Vatandas/KurulKararGoster.aspx"
	backendMaxOffset     = 10000
)

// searchEndpoints maps each resolved decision-type code to its own
// endpoint path, mirroring the three distinct GetKurulKararlari{,Dk,Mk}
// routes the v2 frontend calls per decision type rather than one shared
// search endpoint with a type parameter.
var searchEndpoints = map[string]string{
	"Uyuşmazlık Kararı": baseURL + "/b_ihalearaclari/api/KurulKararlari/GetKurulKararlari",
	"Düzenleyici İşlem": baseURL + "/b_ihalearaclari/api/KurulKararlari/GetKurulKararlariDk",
	"Mahkeme Kararı":    baseURL + "/b_ihalearaclari/api/KurulKararlari/GetKurulKararlariMk",
}

var decisionTypes = adapter.NewChamberCodeSet(map[string]string{
	"UYUSMAZLIK": "Uyuşmazlık Kararı",
	"DUZELTICI":  "Düzenleyici İşlem",
	"IPTAL":      "Mahkeme Kararı",
})

// resolveSearchEndpoint defaults to the Uyuşmazlık endpoint for the ALL
// chamber code; a true fan-out across all three decision-type endpoints for
// an unfiltered search is not implemented, matching this adapter's single
// search_kik tool name rather than three.
func resolveSearchEndpoint(native string) string {
	if url, ok := searchEndpoints[native]; ok {
		return url
	}
	return searchEndpoints["Uyuşmazlık Kararı"]
}

// Adapter implements adapter.Adapter for the procurement authority's v2 API.
type Adapter struct {
	client *adapter.JSONClient
	logger telemetry.Logger
}

// New constructs the adapter against pool. The v2 API rejects requests
// missing its custom X-Custom-Request-* headers; their values are static
// per the upstream frontend bundle except for the per-session request GUID,
// which is generated once here and reused for the adapter's lifetime.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceKIK),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		Referer:   "https://ekap.kik.gov.tr/sorgulamalar/kurul-kararlari",
		Origin:    "https://ekap.kik.gov.tr",
		ExtraHeaders: map[string]string{
			"X-Custom-Request-Guid": uuid.NewString(),
			"X-Custom-Request-R8id": "hwnOjsN8qdgtDw70x3sKkxab0rj2bQ8Uph4+C+oU+9AMmQqRN3eMOEEeet748DOf",
			"X-Custom-Request-Siv":  "p2IQRTitF8z7I39nBjdAqA==",
			"X-Custom-Request-Ts":   "1vB3Wwrt8YQ5U6t3XAzZ+Q==",
			"api-version":           "v1",
		},
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceKIK), logger), logger: logger}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceKIK }
func (a *Adapter) Subtypes() []string        { return []string{""} }

type searchRequestBody struct {
	Phrase        string `json:"karariMetni,omitempty"`
	StartDate     string `json:"baslangicTarihi,omitempty"`
	EndDate       string `json:"bitisTarihi,omitempty"`
	SortBy        string `json:"sortBy"`
	SortDirection string `json:"sortDirection"`
	PageSize      int    `json:"pageSize"`
	PageIndex     int    `json:"pageIndex"`
}

// defaultSortField is the cross-cutting tie-breaking rule's sort key,
// matching this response envelope's own kararTarihi field name.
const defaultSortField = "kararTarihi"

// Search submits a search request and returns one uniform page.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceKIK), "search")
	}
	native, err := decisionTypes.Resolve(q.ChamberCode)
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceKIK), "search")
	}

	body := searchRequestBody{
		Phrase:        q.Phrase,
		SortBy:        defaultSortField,
		SortDirection: "desc",
		PageSize:      q.Pagination.PageSize,
		PageIndex:     q.Pagination.PageIndex,
	}
	if q.DateRange != nil {
		body.StartDate, body.EndDate = q.DateRange.Start, q.DateRange.End
	}

	raw, err := a.client.PostJSON(ctx, "search", resolveSearchEndpoint(native), body)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	result := gjson.ParseBytes(raw)
	var entries []model.Entry
	result.Get("items").ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceKIK),
				NativeID: item.Get("kararNoRaw").String(),
			},
			DecisionNo: item.Get("kararNo").String(),
			DecisionAt: item.Get("kararTarihi").String(),
			Outcome:    item.Get("kararTuru").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("total"); t.Exists() {
		v := t.Int()
		total = &v
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceKIK),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch retrieves a decision's rendered HTML page. The v2 API does not
// return document content inline: it is a two-step resolution, POST
// GetSorgulamaUrl for the current viewer base URL, then GET that URL with
// the native id appended as KararId. If the first step fails, Fetch falls
// back to the long-lived legacy viewer URL, matching the upstream client's
// own degraded-mode behavior when GetSorgulamaUrl is unavailable.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	docURL, err := a.resolveDocumentURL(ctx, handle.NativeID)
	if err != nil {
		a.logger.Warn(ctx, "falling back to legacy document URL", "source_id", string(config.SourceKIK), "native_id", handle.NativeID, "reason", err.Error())
		docURL = fmt.Sprintf("%s?KararId=%s", legacyDocumentURL, handle.NativeID)
	}

	raw, err := a.client.GetJSON(ctx, "document", docURL)
	if err != nil {
		return nil, "", "", err
	}
	if len(raw) == 0 {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content").WithSource(string(config.SourceKIK), "fetch")
	}
	return raw, adapter.KindHTMLFragment, docURL, nil
}

// resolveDocumentURL performs the GetSorgulamaUrl step and appends the
// native id as the KararId query parameter.
func (a *Adapter) resolveDocumentURL(ctx context.Context, nativeID string) (string, error) {
	raw, err := a.client.PostJSON(ctx, "document_url", sorgulamaURLEndpoint, map[string]int{"sorguSayfaTipi": 2})
	if err != nil {
		return "", err
	}
	base := gjson.GetBytes(raw, "sorgulamaUrl").String()
	if base == "" {
		return "", gatewayerr.New(gatewayerr.BackendFailure, "GetSorgulamaUrl response missing sorgulamaUrl field").WithSource(string(config.SourceKIK), "document_url")
	}
	return fmt.Sprintf("%s?KararId=%s", base, nativeID), nil
}

// Health performs a minimal search probe.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceKIK)}
	start := time.Now()
	raw, err := a.client.PostJSON(ctx, "search", resolveSearchEndpoint("Uyuşmazlık Kararı"), searchRequestBody{PageSize: 1, PageIndex: 1})
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	if !adapter.ProbeHasRecords(raw, "items", "total") {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}
	sample.Status = model.HealthHealthy
	return sample
}
