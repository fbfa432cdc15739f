// Package uyusmazlik implements the jurisdictional-dispute court adapter
// (family a, JSON-over-HTTP): civil, criminal, and administrative dispute
// rulings.
package uyusmazlik

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
	searchURL        = "https://www.uyusmazlik.gov.tr/api/karar/ara"
	documentURL      = "https://www.uyusmazlik.gov.tr/api/karar"
	backendMaxOffset = 5000
)

var disputeTypes = adapter.NewChamberCodeSet(map[string]string{
	"HUKUK": "Hukuk Bölümü",
	"CEZA":  "Ceza Bölümü",
	"IDARI": "İdari Bölüm",
})

// Adapter implements adapter.Adapter for the jurisdictional-dispute court.
type Adapter struct {
	client *adapter.JSONClient
}

// New constructs the adapter against pool.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceUyusmazlik),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		Referer:   "https://www.uyusmazlik.gov.tr/",
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceUyusmazlik), logger)}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceUyusmazlik }
func (a *Adapter) Subtypes() []string        { return []string{""} }

type searchRequestBody struct {
	Phrase        string `json:"phrase"`
	BolumKodu     string `json:"bolumKodu,omitempty"`
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
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceUyusmazlik), "search")
	}
	native, err := disputeTypes.Resolve(q.ChamberCode)
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceUyusmazlik), "search")
	}

	body := searchRequestBody{
		Phrase:        q.Phrase,
		BolumKodu:     native,
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
				SourceID: string(config.SourceUyusmazlik),
				NativeID: item.Get("kararId").String(),
			},
			ChamberName: item.Get("bolum").String(),
			DecisionNo:  item.Get("esasNo").String(),
			DecisionAt:  item.Get("kararTarihi").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("total"); t.Exists() {
		v := t.Int()
		total = &v
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceUyusmazlik),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch retrieves a ruling's raw HTML fragment by its native id.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	url := fmt.Sprintf("%s/%s", documentURL, handle.NativeID)
	raw, err := a.client.GetJSON(ctx, "document", url)
	if err != nil {
		return nil, "", "", err
	}
	content := gjson.GetBytes(raw, "content").String()
	if content == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content").WithSource(string(config.SourceUyusmazlik), "fetch")
	}
	return []byte(content), adapter.KindHTMLFragment, url, nil
}

// Health performs a minimal search probe.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceUyusmazlik)}
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
