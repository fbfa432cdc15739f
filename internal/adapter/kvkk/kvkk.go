// Package kvkk implements the data-protection authority adapter (family d,
// third-party-search): discovery goes through the Brave web search API
// restricted to the authority's own domain, and fetch pulls the decision
// page directly.
package kvkk

import (
	"context"
	"fmt"
	"net/url"
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
	braveSearchURL   = "https://api.search.brave.com/res/v1/web/search"
	siteRestrictTerm = `site:kvkk.gov.tr "karar özeti"`
	backendMaxOffset = 1000
)

// Adapter implements adapter.Adapter for the data-protection authority via
// the Brave web search API restricted to the authority's own domain.
type Adapter struct {
	client *adapter.JSONClient
	apiKey string
}

// New constructs the adapter. apiKey comes from config.Config.KVKKSearchAPIKey,
// sent as the x-subscription-token header on every search request.
func New(pool *httpsession.Pool, apiKey string, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceKVKK),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		ExtraHeaders: map[string]string{
			"x-subscription-token": apiKey,
		},
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceKVKK), logger), apiKey: apiKey}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceKVKK }
func (a *Adapter) Subtypes() []string        { return []string{""} }

// Search queries Brave, offsetting by whole pages the way the upstream
// client does (offset = (page-1) * pageSize), and folds the free-text
// query into the fixed site-restricted query string.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceKVKK), "search")
	}

	query := siteRestrictTerm
	if q.Phrase != "" {
		query = siteRestrictTerm + " " + q.Phrase
	}
	offset := (q.Pagination.PageIndex - 1) * q.Pagination.PageSize

	params := url.Values{}
	params.Set("q", query)
	params.Set("country", "TR")
	params.Set("search_lang", "tr")
	params.Set("ui_lang", "tr-TR")
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("count", fmt.Sprintf("%d", q.Pagination.PageSize))
	searchURL := braveSearchURL + "?" + params.Encode()

	raw, err := a.client.GetJSON(ctx, "search", searchURL)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	entries, total := parseBraveResults(raw)

	return model.SearchResultPage{
		SourceID:     string(config.SourceKVKK),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

// parseBraveResults maps a Brave /web/search response's web.results array
// onto the uniform entry shape; the result URL doubles as the document
// handle's native id since the authority exposes no separate record id.
func parseBraveResults(raw []byte) ([]model.Entry, *int64) {
	result := gjson.ParseBytes(raw)
	var entries []model.Entry
	result.Get("web.results").ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID:   string(config.SourceKVKK),
				NativeID:   item.Get("url").String(),
				LandingURL: item.Get("url").String(),
			},
			Title:   item.Get("title").String(),
			Subject: item.Get("description").String(),
		})
		return true
	})

	var total *int64
	if t := result.Get("query.total_results"); t.Exists() {
		v := t.Int()
		total = &v
	}
	return entries, total
}

// Fetch retrieves the authority's published decision-summary page directly.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	if handle.NativeID == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.InvalidArgument, "document handle has no source URL").WithSource(string(config.SourceKVKK), "fetch")
	}
	raw, err := a.client.GetJSON(ctx, "document", handle.NativeID)
	if err != nil {
		return nil, "", "", err
	}
	if len(raw) == 0 {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content").WithSource(string(config.SourceKVKK), "fetch")
	}
	kind := adapter.KindHTMLPage
	if len(raw) > 4 && string(raw[:4]) == "%PDF" {
		kind = adapter.KindPDF
	}
	return raw, kind, handle.NativeID, nil
}

// Health probes the search API with a representative query.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceKVKK)}
	start := time.Now()
	params := url.Values{
		"q":           {siteRestrictTerm + " veri"},
		"country":     {"TR"},
		"search_lang": {"tr"},
		"ui_lang":     {"tr-TR"},
		"offset":      {"0"},
		"count":       {"1"},
	}
	raw, err := a.client.GetJSON(ctx, "search", braveSearchURL+"?"+params.Encode())
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	entries, total := parseBraveResults(raw)
	if len(entries) == 0 && (total == nil || *total == 0) {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}
	sample.Status = model.HealthHealthy
	return sample
}
