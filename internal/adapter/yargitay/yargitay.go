// Package yargitay implements the supreme civil/criminal court adapter
// (family a, JSON-over-HTTP), per spec.md §6 and SPEC_FULL.md §4.4.
package yargitay

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
	searchURL  = "https://karararama.yargitay.gov.tr/aramadetaylist"
	documentURL = "https://karararama.yargitay.gov.tr/getDokuman"
	backendMaxOffset = 10000
)

// Adapter implements adapter.Adapter for the supreme court's decision search.
type Adapter struct {
	client   *adapter.JSONClient
	chambers adapter.ChamberCodeSet
	logger   telemetry.Logger
}

// New constructs the adapter against pool, warming no session eagerly.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceYargitay),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		Referer:   "https://karararama.yargitay.gov.tr/",
		Origin:    "https://karararama.yargitay.gov.tr",
	})
	return &Adapter{
		client:   adapter.NewJSONClient(pool, string(config.SourceYargitay), logger),
		chambers: adapter.YargitayChambers(),
		logger:   logger,
	}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceYargitay }

func (a *Adapter) Subtypes() []string { return []string{""} }

type searchRequestBody struct {
	Data searchRequestData `json:"data"`
}

type searchRequestData struct {
	ArananKelime      string `json:"aranankelime"`
	Daire             string `json:"daire,omitempty"`
	BaslangicTarihi   string `json:"baslangictarihi,omitempty"`
	BitisTarihi       string `json:"bitistarihi,omitempty"`
	Siralama          string `json:"siralama"`
	SiralamaDirection string `json:"siralamaDirection"`
	PageSize          int    `json:"pagesize"`
	PageIndex         int    `json:"pageindex"`
}

// defaultSort applies the cross-cutting tie-breaking rule (decision date
// descending) to a UYAP "data"-wrapped search body; "1" is the decision-date
// sort criterion code the frontend's detailed-search form sends.
func defaultSort(d searchRequestData) searchRequestData {
	d.Siralama = "1"
	d.SiralamaDirection = "desc"
	return d
}

// Search submits a search request and returns one uniform page.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceYargitay), "search")
	}
	native, err := a.chambers.Resolve(q.ChamberCode)
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceYargitay), "search")
	}

	body := searchRequestBody{Data: defaultSort(searchRequestData{
		ArananKelime: q.Phrase,
		Daire:        native,
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
	if !result.Get("data").Exists() {
		return model.SearchResultPage{}, gatewayerr.New(gatewayerr.ParseFailure, "search response missing data field").WithSource(string(config.SourceYargitay), "search")
	}

	var entries []model.Entry
	result.Get("data.data").ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceYargitay),
				NativeID: id,
			},
			Title:       item.Get("durusmaIcerigi").String(),
			ChamberName: item.Get("daire").String(),
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
		SourceID:     string(config.SourceYargitay),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch retrieves a decision's raw HTML fragment by its native id.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	url := fmt.Sprintf("%s?id=%s", documentURL, handle.NativeID)
	raw, err := a.client.GetJSON(ctx, "document", url)
	if err != nil {
		return nil, "", "", err
	}
	content := gjson.GetBytes(raw, "data").String()
	if content == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content").WithSource(string(config.SourceYargitay), "fetch")
	}
	return []byte(content), adapter.KindHTMLFragment, url, nil
}

// Health performs a minimal search probe to confirm the backend responds.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceYargitay)}
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
