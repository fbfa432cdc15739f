// Package rekabet implements the competition authority adapter (family a,
// JSON-over-HTTP): dispute, regulatory, and court-referral decisions.
package rekabet

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
	searchURL        = "https://www.rekabet.gov.tr/api/kararlar/ara"
	backendMaxOffset = 5000
)

// documentURLPatterns lists the base URL shapes that have been observed to
// serve a decision PDF, in the order tried. The authority has changed its
// publishing path more than once without deprecating the older ones, so a
// fetch tries each in turn and accepts the first that returns a non-empty
// 2xx body. This is a fragile heuristic: a candidate returning 2xx with an
// HTML error page instead of a PDF would be accepted as a false positive.
var documentURLPatterns = []string{
	"https://www.rekabet.gov.tr/api/kararlar/%s/pdf",
	"https://www.rekabet.gov.tr/Dosyalar/kararlar/%s.pdf",
	"https://www.rekabet.gov.tr/tr/Guncel/karar/%s",
}

var decisionTypes = adapter.NewChamberCodeSet(map[string]string{
	"UYUSMAZLIK":  "Uyuşmazlık",
	"DUZENLEYICI": "Düzenleyici İşlem",
	"MAHKEME":     "Mahkeme Kararı",
})

// Adapter implements adapter.Adapter for the competition authority.
type Adapter struct {
	client *adapter.JSONClient
	logger telemetry.Logger
}

// New constructs the adapter against pool.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceRekabet),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		Referer:   "https://www.rekabet.gov.tr/",
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceRekabet), logger), logger: logger}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceRekabet }
func (a *Adapter) Subtypes() []string        { return []string{""} }

type searchRequestBody struct {
	Phrase        string `json:"phrase"`
	KararTuru     string `json:"kararTuru,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
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
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceRekabet), "search")
	}
	native, err := decisionTypes.Resolve(q.ChamberCode)
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceRekabet), "search")
	}

	body := searchRequestBody{
		Phrase:        q.Phrase,
		KararTuru:     native,
		SortBy:        defaultSortField,
		SortDirection: "desc",
		PageSize:      q.Pagination.PageSize,
		PageIndex:     q.Pagination.PageIndex,
	}
	if q.DateRange != nil {
		body.StartDate, body.EndDate = q.DateRange.Start, q.DateRange.End
	}

	raw, err := a.client.PostJSON(ctx, "search", searchURL, body)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	result := gjson.ParseBytes(raw)
	var entries []model.Entry
	result.Get("items").ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceRekabet),
				NativeID: item.Get("kararId").String(),
			},
			Subject:    item.Get("konu").String(),
			DecisionNo: item.Get("kararNo").String(),
			DecisionAt: item.Get("kararTarihi").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("total"); t.Exists() {
		v := t.Int()
		total = &v
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceRekabet),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch retrieves a decision's raw PDF by its native id — the authority
// publishes full decisions only as scanned/typeset PDFs. It tries each of
// documentURLPatterns in order and accepts the first non-empty response.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	var firstErr error
	successCount := 0
	var wonURL string
	var wonRaw []byte
	for _, pattern := range documentURLPatterns {
		url := fmt.Sprintf(pattern, handle.NativeID)
		raw, err := a.client.GetJSON(ctx, "document", url)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(raw) == 0 {
			continue
		}
		successCount++
		if wonURL == "" {
			wonURL, wonRaw = url, raw
		}
	}
	if wonURL == "" {
		if firstErr != nil {
			return nil, "", "", firstErr
		}
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content on any known URL pattern").WithSource(string(config.SourceRekabet), "fetch")
	}
	if successCount > 1 {
		a.logger.Warn(ctx, "multiple document URL patterns returned 2xx", "source_id", string(config.SourceRekabet), "native_id", handle.NativeID, "matched_url", wonURL, "candidate_count", successCount)
	}
	return wonRaw, adapter.KindPDF, wonURL, nil
}

// Health performs a minimal search probe.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceRekabet)}
	start := time.Now()
	raw, err := a.client.PostJSON(ctx, "search", searchURL, searchRequestBody{PageSize: 1, PageIndex: 1})
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
