// Package bddk implements the banking regulator adapter (family d,
// third-party-search): the regulator's own site has no usable search index,
// so search is delegated to a site-restricted external search API and fetch
// retrieves the regulator's own published decision page directly.
package bddk

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
	tavilySearchURL  = "https://api.tavily.com/search"
	includeDomain    = "https://www.bddk.org.tr/Mevzuat/DokumanGetir"
	backendMaxOffset = 1000
)

// Adapter implements adapter.Adapter for the banking regulator via the
// Tavily web-search API used for discovery, since the regulator's own site
// has no usable search index of its own.
type Adapter struct {
	client *adapter.JSONClient
	apiKey string
}

// New constructs the adapter. apiKey comes from config.Config.BDDKSearchAPIKey;
// config.Load fails, so the gateway does not start, if it is empty and the
// source is not explicitly disabled (internal/config's validateCredentials).
func New(pool *httpsession.Pool, apiKey string, logger telemetry.Logger) *Adapter {
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceBDDK),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		ExtraHeaders: map[string]string{
			"Authorization": "Bearer " + apiKey,
		},
	})
	return &Adapter{client: adapter.NewJSONClient(pool, string(config.SourceBDDK), logger), apiKey: apiKey}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceBDDK }
func (a *Adapter) Subtypes() []string        { return []string{""} }

type tavilySearchRequest struct {
	Query          string   `json:"query"`
	Country        string   `json:"country"`
	IncludeDomains []string `json:"include_domains"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
}

// Search queries the Tavily search API, restricted to the regulator's
// published-decision URL prefix, and appends the "Karar Sayısı" marker
// phrase to the query the way the upstream client does to bias results
// toward actual decision documents rather than general regulator pages.
// Tavily has no page-offset parameter; pages beyond the first return an
// empty result set rather than erroring.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, true); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceBDDK), "search")
	}

	page := model.SearchResultPage{
		SourceID:  string(config.SourceBDDK),
		PageIndex: q.Pagination.PageIndex,
		PageSize:  q.Pagination.PageSize,
	}
	if q.Pagination.PageIndex > 1 {
		return page, nil
	}

	body := tavilySearchRequest{
		Query:          q.Phrase + ` "Karar Sayısı"`,
		Country:        "turkey",
		IncludeDomains: []string{includeDomain},
		MaxResults:     q.Pagination.PageSize,
		SearchDepth:    "advanced",
	}
	raw, err := a.client.PostJSON(ctx, "search", tavilySearchURL, body)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	entries := parseTavilyResults(raw)
	page.Entries = entries
	total := int64(len(entries))
	page.TotalRecords = &total
	return page, nil
}

// parseTavilyResults maps a Tavily /search response's results array onto the
// uniform entry shape. Tavily returns no stable backend record id, so the
// result URL itself serves as both the document handle's native id and its
// landing-page hint.
func parseTavilyResults(raw []byte) []model.Entry {
	result := gjson.ParseBytes(raw)
	var entries []model.Entry
	result.Get("results").ForEach(func(_, item gjson.Result) bool {
		docURL := item.Get("url").String()
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID:   string(config.SourceBDDK),
				NativeID:   docURL,
				LandingURL: docURL,
			},
			Title:   item.Get("title").String(),
			Subject: item.Get("content").String(),
		})
		return true
	})
	return entries
}

// Fetch retrieves the regulator's published decision page directly — the
// handle's native id is the page URL discovered by Search, not a backend
// record id, since the regulator exposes no stable document identifier.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	if handle.NativeID == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.InvalidArgument, "document handle has no source URL").WithSource(string(config.SourceBDDK), "fetch")
	}
	raw, err := a.client.GetJSON(ctx, "document", handle.NativeID)
	if err != nil {
		return nil, "", "", err
	}
	if len(raw) == 0 {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "document handle resolved to no content").WithSource(string(config.SourceBDDK), "fetch")
	}
	kind := adapter.KindHTMLPage
	if len(raw) > 4 && string(raw[:4]) == "%PDF" {
		kind = adapter.KindPDF
	}
	return raw, kind, handle.NativeID, nil
}

// Health probes the search API with a minimal query.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceBDDK)}
	start := time.Now()
	body := tavilySearchRequest{
		Query:          `banka "Karar Sayısı"`,
		Country:        "turkey",
		IncludeDomains: []string{includeDomain},
		MaxResults:     1,
		SearchDepth:    "basic",
	}
	raw, err := a.client.PostJSON(ctx, "search", tavilySearchURL, body)
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	if len(parseTavilyResults(raw)) == 0 {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}
	sample.Status = model.HealthHealthy
	return sample
}
