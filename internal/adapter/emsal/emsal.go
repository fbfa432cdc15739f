// Package emsal implements the precedent index adapter (family a,
// JSON-over-HTTP).
package emsal

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
	searchURL = "https://emsal.uyap.gov.tr/aramadetaylist"
	// getURLEndpoint resolves a decision id to its current document URL.
	// It occasionally 404s for older ids; legacyDocumentURL is an
	// undocumented but still-serving fallback path for those.
	getURLEndpoint    = "https://emsal.uyap.gov.tr/getDokuman"
	legacyDocumentURL = "https://emsal.uyap.gov.tr/getDokumanDetaySayfasi"
	backendMaxOffset  = 10000
)

// Adapter implements adapter.Adapter for the precedent index.
type Adapter struct {
	client *adapter.JSONClient
	logger telemetry.Logger
}

// New constructs the adapter against pool.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceEmsal),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		Referer:   "https://emsal.uyap.gov.tr/",
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceEmsal), logger), logger: logger}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceEmsal }
func (a *Adapter) Subtypes() []string        { return []string{""} }

type searchRequestBody struct {
	Data searchRequestData `json:"data"`
}

type searchRequestData struct {
	ArananKelime      string `json:"aranankelime"`
	BaslangicTarihi   string `json:"baslangictarihi,omitempty"`
	BitisTarihi       string `json:"bitistarihi,omitempty"`
	Siralama          string `json:"siralama"`
	SiralamaDirection string `json:"siralamaDirection"`
	PageSize          int    `json:"pagesize"`
	PageIndex         int    `json:"pageindex"`
}

// defaultSort applies the cross-cutting tie-breaking rule (decision date
// descending), mirroring the upstream client's own sort_criteria="1",
// sort_direction="desc" defaults.
func defaultSort(d searchRequestData) searchRequestData {
	d.Siralama = "1"
	d.SiralamaDirection = "desc"
	return d
}

// Search submits a search request and returns one uniform page.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceEmsal), "search")
	}

	body := searchRequestBody{Data: defaultSort(searchRequestData{
		ArananKelime: q.Phrase,
		PageSize:     q.Pagination.PageSize,
		PageIndex:    q.Pagination.PageIndex,
	})}
	if q.DateRange != nil {
		body.Data.BaslangicTarihi = q.DateRange.Start
		body.Data.BitisTarihi = q.DateRange.End
	}

	raw, err := a.client.PostJSON(ctx, "search", searchURL, body)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	result := gjson.ParseBytes(raw)
	var entries []model.Entry
	result.Get("data.data").ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceEmsal),
				NativeID: item.Get("id").String(),
			},
			ChamberName: item.Get("birimAdi").String(),
			DecisionNo:  item.Get("esasNo").String(),
			DecisionAt:  item.Get("kararTarihi").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("data.recordsTotal"); t.Exists() {
		v := t.Int()
		total = &v
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceEmsal),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch retrieves a decision's raw HTML fragment by its native id. It calls
// getURLEndpoint first; on failure or an empty data field it falls back to the undocumented legacy
// document URL, logging the fallback so it is visible in the field.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	url := fmt.Sprintf("%s?id=%s", getURLEndpoint, handle.NativeID)
	raw, err := a.client.GetJSON(ctx, "document", url)
	if err == nil {
		if content := gjson.GetBytes(raw, "data").String(); content != "" {
			return []byte(content), adapter.KindHTMLFragment, url, nil
		}
	}

	a.logger.Warn(ctx, "falling back to legacy document URL", "fallback", "legacy_url", "source_id", string(config.SourceEmsal), "native_id", handle.NativeID)
	legacyURL := fmt.Sprintf("%s?id=%s", legacyDocumentURL, handle.NativeID)
	raw, legacyErr := a.client.GetJSON(ctx, "document_legacy", legacyURL)
	if legacyErr != nil {
		if err != nil {
			return nil, "", "", err
		}
		return nil, "", "", legacyErr
	}
	content := gjson.GetBytes(raw, "data").String()
	if content == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content on both primary and legacy URLs").WithSource(string(config.SourceEmsal), "fetch")
	}
	return []byte(content), adapter.KindHTMLFragment, legacyURL, nil
}

// Health performs a minimal search probe.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceEmsal)}
	start := time.Now()
	raw, err := a.client.PostJSON(ctx, "search", searchURL, searchRequestBody{Data: searchRequestData{PageSize: 1, PageIndex: 1}})
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	if !adapter.ProbeHasRecords(raw, "data.data", "data.recordsTotal") {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}
	sample.Status = model.HealthHealthy
	return sample
}
