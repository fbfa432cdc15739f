// Package kiklegacy implements the procurement authority's legacy
// browser-driven flow (family c): the old decision archive never migrated
// off a JS-rendered ASP.NET form and has no stable JSON API, so search and
// fetch both drive a headless browser context.
package kiklegacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/browserpool"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

const (
	searchFormURL    = "https://ekap.kik.gov.tr/EKAP/Eski/KararArama.aspx"
	documentBaseURL  = "https://ekap.kik.gov.tr/EKAP/Eski/KararGoster.aspx"
	backendMaxOffset = 1000
)

// Adapter implements adapter.Adapter for the procurement authority's legacy
// archive via the headless browser pool.
type Adapter struct {
	browser *browserpool.Pool
	logger  telemetry.Logger
}

// New constructs the adapter against a shared browser pool.
func New(browser *browserpool.Pool, logger telemetry.Logger) *Adapter {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Adapter{browser: browser, logger: logger}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceKIKLegacy }
func (a *Adapter) Subtypes() []string        { return []string{""} }

// Search fills the legacy ASP.NET search form and scrapes the resulting
// postback HTML for result rows.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, false); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceKIKLegacy), "search")
	}

	plan := browserpool.FormPlan{Steps: []browserpool.FormStep{
		{Selector: "#ctl00_ContentPlaceHolder1_txtAranacakKelime", Action: browserpool.ActionFill, Value: q.Phrase},
	}}
	if q.DateRange != nil {
		start, err := adapter.EncodeTurkishDate(q.DateRange.Start)
		if err != nil {
			return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceKIKLegacy), "search")
		}
		end, err := adapter.EncodeTurkishDate(q.DateRange.End)
		if err != nil {
			return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceKIKLegacy), "search")
		}
		plan.Steps = append(plan.Steps,
			browserpool.FormStep{Selector: "#ctl00_ContentPlaceHolder1_txtBaslangicTarihi", Action: browserpool.ActionFill, Value: start},
			browserpool.FormStep{Selector: "#ctl00_ContentPlaceHolder1_txtBitisTarihi", Action: browserpool.ActionFill, Value: end},
		)
	}
	plan.Steps = append(plan.Steps,
		browserpool.FormStep{Selector: "#ctl00_ContentPlaceHolder1_btnAra", Action: browserpool.ActionClick},
		browserpool.FormStep{Selector: "table#gridSonuc", Action: browserpool.ActionWait},
	)

	deadline := time.Now().Add(45 * time.Second)
	html, err := a.browser.FillAndSubmit(ctx, searchFormURL, plan, deadline)
	if err != nil {
		return model.SearchResultPage{}, err
	}

	entries, total, err := parseResultGrid(string(html))
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.ParseFailure, "parse result grid", err).WithSource(string(config.SourceKIKLegacy), "search")
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceKIKLegacy),
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

func parseResultGrid(html string) ([]model.Entry, *int64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, err
	}
	var entries []model.Entry
	doc.Find("table#gridSonuc tr.karar-row").Each(func(_, row *goquery.Selection) {
		nativeID, _ := row.Attr("data-karar-no")
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		entries = append(entries, model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceKIKLegacy),
				NativeID: nativeID,
			},
			DecisionNo: strings.TrimSpace(cells.Eq(0).Text()),
			DecisionAt: strings.TrimSpace(cells.Eq(1).Text()),
		})
	})
	var total *int64
	if countText := strings.TrimSpace(doc.Find("span#lblToplamKayit").Text()); countText != "" {
		// Best-effort: legacy grid reports the count as free text, e.g.
		// "Toplam: 42 kayıt" — extract the first run of digits.
		var digits strings.Builder
		for _, r := range countText {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			} else if digits.Len() > 0 {
				break
			}
		}
		if digits.Len() > 0 {
			var v int64
			fmt.Sscanf(digits.String(), "%d", &v)
			total = &v
		}
	}
	return entries, total, nil
}

// Fetch navigates directly to the decision's detail page and returns the
// rendered HTML.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	url := fmt.Sprintf("%s?kararNo=%s", documentBaseURL, handle.NativeID)
	deadline := time.Now().Add(45 * time.Second)
	html, err := a.browser.Navigate(ctx, url, browserpool.WaitCondition{Selector: "div.karar-detay"}, deadline)
	if err != nil {
		return nil, "", "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, "", "", gatewayerr.Wrap(gatewayerr.ParseFailure, "parse decision page", err).WithSource(string(config.SourceKIKLegacy), "fetch")
	}
	content, err := doc.Find("div.karar-detay").Html()
	if err != nil || strings.TrimSpace(content) == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "decision body not present on page").WithSource(string(config.SourceKIKLegacy), "fetch")
	}
	return []byte(content), adapter.KindHTMLFragment, url, nil
}

// Health submits a trivial search on the legacy form and requires a
// nonzero record count, rather than only confirming the bare form renders —
// the form can render while the postback itself returns an empty grid.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceKIKLegacy)}
	start := time.Now()

	plan := browserpool.FormPlan{Steps: []browserpool.FormStep{
		{Selector: "#ctl00_ContentPlaceHolder1_txtAranacakKelime", Action: browserpool.ActionFill, Value: "ihale"},
		{Selector: "#ctl00_ContentPlaceHolder1_btnAra", Action: browserpool.ActionClick},
		{Selector: "table#gridSonuc", Action: browserpool.ActionWait},
	}}
	deadline := time.Now().Add(45 * time.Second)
	html, err := a.browser.FillAndSubmit(ctx, searchFormURL, plan, deadline)
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	entries, total, err := parseResultGrid(string(html))
	if err != nil || (len(entries) == 0 && (total == nil || *total == 0)) {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}
	sample.Status = model.HealthHealthy
	return sample
}
