// Package bedesten implements the cross-court federated index adapter
// (family a, JSON-over-HTTP). It is the backend behind search_unified: each
// returned entry's handle embeds the origin court's own source_id, so
// fetch_unified can dispatch straight to that backend's Fetch without this
// package re-implementing per-backend fetch logic.
package bedesten

import (
	"context"
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
	searchURL        = "https://bedesten.adalet.gov.tr/api/arama"
	backendMaxOffset = 10000
)

// originCourts maps the federated index's own court-code vocabulary onto the
// gateway's closed source_id set; unrecognized codes are dropped from
// results rather than surfaced as an unmapped handle.
var originCourts = map[string]config.SourceID{
	"YARGITAY":    config.SourceYargitay,
	"DANISTAY":    config.SourceDanistay,
	"ANAYASA":     config.SourceAnayasa,
	"UYUSMAZLIK":  config.SourceUyusmazlik,
	"REKABET":     config.SourceRekabet,
	"EMSAL":       config.SourceEmsal,
	"SAYISTAY":    config.SourceSayistay,
}

// Adapter implements adapter.Adapter for the federated cross-court index.
type Adapter struct {
	client *adapter.JSONClient
}

// New constructs the adapter against pool.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceBedesten),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceBedesten), logger)}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceBedesten }
func (a *Adapter) Subtypes() []string        { return []string{""} }

type searchRequestBody struct {
	Phrase        string   `json:"phrase"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	SortFields    []string `json:"sortFields"`
	SortDirection string   `json:"sortDirection"`
	PageSize      int      `json:"pageSize"`
	PageIndex     int      `json:"pageIndex"`
}

// defaultSortFields is the cross-cutting tie-breaking rule's sort key,
// mirroring the upstream client's own sortFields=["KARAR_TARIHI"] default.
var defaultSortFields = []string{"KARAR_TARIHI"}

// Search fans a single phrase search out across every federated court and
// returns one merged, uniform page.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceBedesten), "search")
	}

	body := searchRequestBody{
		Phrase:        q.Phrase,
		SortFields:    defaultSortFields,
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
	result.Get("results").ForEach(func(_, item gjson.Result) bool {
		origin, ok := originCourts[item.Get("mahkeme").String()]
		if !ok {
			return true // unmapped origin: skip rather than emit an undispatchable handle
		}
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(origin),
				Subtype:  item.Get("altTur").String(),
				NativeID: item.Get("belgeId").String(),
			},
			Title:       item.Get("baslik").String(),
			ChamberName: item.Get("daire").String(),
			DecisionNo:  item.Get("esasNo").String(),
			DecisionAt:  item.Get("kararTarihi").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("totalCount"); t.Exists() {
		v := t.Int()
		total = &v
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceBedesten),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// Fetch is intentionally unsupported: fetch_unified resolves the handle's
// embedded origin source_id and dispatches directly to that backend's own
// Fetch (SPEC_FULL.md §3), so the federated index never serves documents
// itself.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	return nil, "", "", gatewayerr.New(gatewayerr.InvalidArgument, "bedesten does not serve documents directly; fetch_unified must dispatch to the handle's origin source").WithSource(string(config.SourceBedesten), "fetch")
}

// Health performs a minimal search probe.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceBedesten)}
	start := time.Now()
	raw, err := a.client.PostJSON(ctx, "search", searchURL, searchRequestBody{PageSize: 1, PageIndex: 1})
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
