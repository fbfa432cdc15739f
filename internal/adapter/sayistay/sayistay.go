// Package sayistay implements the court of accounts adapter (family b,
// ASP.NET WebForms/DataTables): three chamber endpoints, each its own
// anti-forgery-token-gated page whose search results come back as a
// jQuery DataTables JSON payload rather than server-rendered HTML.
package sayistay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

const (
	SubtypeGenelKurul   = "genel_kurul"
	SubtypeTemyizKurulu = "temyiz_kurulu"
	SubtypeDaire        = "daire"

	baseURL          = "https://www.sayistay.gov.tr"
	backendMaxOffset = 2000
)

// landingPages are the plain pages whose initial GET response carries the
// cookie jar's session cookies and the hidden anti-forgery token.
var landingPages = map[string]string{
	SubtypeGenelKurul:   baseURL + "/KararlarGenelKurul",
	SubtypeTemyizKurulu: baseURL + "/KararlarTemyiz",
	SubtypeDaire:        baseURL + "/KararlarDaire",
}

// searchEndpoints are the DataTables ajax endpoints the landing pages post
// to; each returns a JSON {draw, recordsTotal, recordsFiltered, data}
// payload, not HTML.
var searchEndpoints = map[string]string{
	SubtypeGenelKurul:   baseURL + "/KararlarGenelKurul/DataTablesList",
	SubtypeTemyizKurulu: baseURL + "/KararlarTemyiz/DataTablesList",
	SubtypeDaire:        baseURL + "/KararlarDaire/DataTablesList",
}

// documentPathSegments map subtype to the first path segment of a decision's
// detail page: {baseURL}/{segment}/Detay/{id}/.
var documentPathSegments = map[string]string{
	SubtypeGenelKurul:   "KararlarGenelKurul",
	SubtypeTemyizKurulu: "KararlarTemyiz",
	SubtypeDaire:        "KararlarDaire",
}

// freeTextField is the primary search-text form field per subtype; the
// free-text phrase argument maps onto it.
var freeTextField = map[string]string{
	SubtypeGenelKurul:   "KararlarGenelKurulAra.KARARTAMAMI",
	SubtypeTemyizKurulu: "KararlarTemyizAra.TEMYIZKARAR",
	SubtypeDaire:        "KararlarDaireAra.WEBKARARMETNI",
}

// dateRangeFields map subtype to its (start, end) form field names.
var dateRangeFields = map[string][2]string{
	SubtypeGenelKurul:   {"KararlarGenelKurulAra.KARARTARIHBaslangic", "KararlarGenelKurulAra.KARARTARIHBitis"},
	SubtypeTemyizKurulu: {"KararlarTemyizAra.KARARTRHBaslangic", "KararlarTemyizAra.KARARTRHBitis"},
	SubtypeDaire:        {"KararlarDaireAra.KARARTRHBaslangic", "KararlarDaireAra.KARARTRHBitis"},
}

// chamberFields map subtype to the form field its audit-chamber filter
// populates; genel_kurul has no chamber filter, it is a single assembly.
var chamberFields = map[string]string{
	SubtypeTemyizKurulu: "KararlarTemyizAra.ILAMDAIRESI",
	SubtypeDaire:        "KararlarDaireAra.YARGILAMADAIRESI",
}

// Adapter implements adapter.Adapter for the court of accounts' three
// chamber-specific WebForms endpoints.
type Adapter struct {
	pool     *httpsession.Pool
	logger   telemetry.Logger
	chambers adapter.ChamberCodeSet
}

// New constructs the adapter against pool.
func New(pool *httpsession.Pool, logger telemetry.Logger) *Adapter {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	pool.Register(httpsession.SourcePolicy{
		SourceID:  string(config.SourceSayistay),
		UserAgent: "Mozilla/5.0 (compatible; legal-research-gateway/1.0)",
		Timeout:   60 * time.Second,
	})
	return &Adapter{pool: pool, logger: logger, chambers: adapter.SayistayChambers()}
}

func (a *Adapter) SourceID() config.SourceID { return config.SourceSayistay }

func (a *Adapter) Subtypes() []string {
	return []string{SubtypeGenelKurul, SubtypeTemyizKurulu, SubtypeDaire}
}

// fetchLandingToken performs the Cold→Warm GET and scrapes the hidden
// __RequestVerificationToken field goquery-style, matching the teacher
// pack's DataTables-scraping idiom.
func (a *Adapter) fetchLandingToken(ctx context.Context, endpoint string) (string, error) {
	sess, err := a.pool.Borrow(ctx, string(config.SourceSayistay))
	if err != nil {
		return "", gatewayerr.Wrap(gatewayerr.BackendFailure, "borrow session", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", gatewayerr.Wrap(gatewayerr.BackendFailure, "build landing request", err)
	}
	req.Header.Set("User-Agent", sess.UserAgent)
	resp, err := sess.Client.Do(req)
	if err != nil {
		return "", gatewayerr.Wrap(gatewayerr.BackendFailure, "landing page request failed", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", gatewayerr.Wrap(gatewayerr.ParseFailure, "parse landing page", err)
	}
	token, ok := doc.Find(`input[name="__RequestVerificationToken"]`).First().Attr("value")
	if !ok || token == "" {
		return "", gatewayerr.New(gatewayerr.ParseFailure, "landing page did not expose an anti-forgery token")
	}
	return token, nil
}

// dataTablesColumn describes one jQuery DataTables column descriptor block;
// orderable columns are the only ones the sort-order field may reference.
type dataTablesColumn struct {
	data      string
	orderable bool
}

// dataTablesColumns and dataTablesOrderColumn mirror the exact column/order
// blocks the upstream WebForms frontend sends per subtype
// (sayistay_mcp_module/client.py: _build_{genel_kurul,temyiz_kurulu,daire}_form_data).
// The backend rejects a DataTables request missing these descriptors with an
// empty result set rather than an error, so they are not optional.
var dataTablesColumns = map[string][]dataTablesColumn{
	SubtypeGenelKurul: {
		{"KARARNO", false},
		{"KARARNO", true},
		{"KARARTARIH", true},
		{"KARAROZETI", false},
		{"", false},
	},
	SubtypeTemyizKurulu: {
		{"TEMYIZTUTANAKTARIHI", false},
		{"TEMYIZTUTANAKTARIHI", true},
		{"ILAMDAIRESI", true},
		{"TEMYIZKARAR", false},
		{"", false},
	},
	SubtypeDaire: {
		{"YARGILAMADAIRESI", false},
		{"KARARTRH", true},
		{"KARARNO", true},
		{"YARGILAMADAIRESI", true},
		{"WEBKARARMETNI", false},
		{"", false},
	},
}

// dataTablesOrderColumn is the column index each subtype sorts by default,
// matching the tie-breaking rule (decision date desc) the upstream frontend
// itself applies: every subtype sorts on its decision-date column
// (KARARTARIH, TEMYIZTUTANAKTARIHI and KARARTRH respectively).
var dataTablesOrderColumn = map[string]int{
	SubtypeGenelKurul:   2,
	SubtypeTemyizKurulu: 1,
	SubtypeDaire:        1,
}

// dataTablesParams builds the standard jQuery DataTables ajax parameters
// shared by all three endpoints, plus the per-subtype column descriptors and
// default sort order the backend requires to return results at all.
func dataTablesParams(subtype string, start, length int) url.Values {
	form := url.Values{}
	form.Set("draw", "1")
	form.Set("start", strconv.Itoa(start))
	form.Set("length", strconv.Itoa(length))
	form.Set("search[value]", "")
	form.Set("search[regex]", "false")

	for i, col := range dataTablesColumns[subtype] {
		prefix := fmt.Sprintf("columns[%d]", i)
		form.Set(prefix+"[data]", col.data)
		form.Set(prefix+"[name]", "")
		form.Set(prefix+"[searchable]", "true")
		form.Set(prefix+"[orderable]", strconv.FormatBool(col.orderable))
		form.Set(prefix+"[search][value]", "")
		form.Set(prefix+"[search][regex]", "false")
	}
	form.Set("order[0][column]", strconv.Itoa(dataTablesOrderColumn[subtype]))
	form.Set("order[0][dir]", "desc")
	return form
}

// Search posts the DataTables ajax search and parses the JSON result page.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (model.SearchResultPage, error) {
	if err := q.Validate(backendMaxOffset, false); err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceSayistay), "search")
	}
	searchURL, ok := searchEndpoints[q.Subtype]
	if !ok {
		return model.SearchResultPage{}, gatewayerr.Newf(gatewayerr.InvalidArgument, "unknown subtype %q", q.Subtype).WithSource(string(config.SourceSayistay), "search")
	}
	chamberNative, err := a.chambers.Resolve(q.ChamberCode)
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceSayistay), "search")
	}

	token, err := a.pool.WarmUp(ctx, string(config.SourceSayistay), q.Subtype, func(ctx context.Context) (string, error) {
		return a.fetchLandingToken(ctx, landingPages[q.Subtype])
	})
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.AuthExpired, "warm up session", err).WithSource(string(config.SourceSayistay), "search")
	}

	start := (q.Pagination.PageIndex - 1) * q.Pagination.PageSize
	form := dataTablesParams(q.Subtype, start, q.Pagination.PageSize)
	form.Set(freeTextField[q.Subtype], q.Phrase)
	if q.DateRange != nil {
		fields := dateRangeFields[q.Subtype]
		startDate, err := adapter.EncodeTurkishDate(q.DateRange.Start)
		if err != nil {
			return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceSayistay), "search")
		}
		endDate, err := adapter.EncodeTurkishDate(q.DateRange.End)
		if err != nil {
			return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.InvalidArgument, err.Error(), err).WithSource(string(config.SourceSayistay), "search")
		}
		form.Set(fields[0], startDate)
		form.Set(fields[1], endDate)
	}
	if field, ok := chamberFields[q.Subtype]; ok {
		if chamberNative == "" {
			chamberNative = "Tüm Daireler" // upstream form's literal value for "no chamber filter"
		}
		form.Set(field, chamberNative)
	}
	form.Set("__RequestVerificationToken", token)

	raw, status, err := a.post(ctx, searchURL, form)
	if err != nil {
		return model.SearchResultPage{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		a.pool.OnAuthFailure(string(config.SourceSayistay), q.Subtype)
		token, err = a.pool.WarmUp(ctx, string(config.SourceSayistay), q.Subtype, func(ctx context.Context) (string, error) {
			return a.fetchLandingToken(ctx, landingPages[q.Subtype])
		})
		if err != nil {
			return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.AuthExpired, "refresh anti-forgery token", err).WithSource(string(config.SourceSayistay), "search")
		}
		form.Set("__RequestVerificationToken", token)
		raw, status, err = a.post(ctx, searchURL, form)
		if err != nil {
			return model.SearchResultPage{}, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return model.SearchResultPage{}, gatewayerr.New(gatewayerr.BackendFailure, "anti-forgery token rejected after refresh").WithSource(string(config.SourceSayistay), "search")
		}
	}
	if status >= 400 {
		return model.SearchResultPage{}, gatewayerr.Newf(gatewayerr.BackendFailure, "backend returned status %d", status).WithSource(string(config.SourceSayistay), "search")
	}

	entries, total, err := parseDataTablesResponse(raw, q.Subtype)
	if err != nil {
		return model.SearchResultPage{}, gatewayerr.Wrap(gatewayerr.ParseFailure, "parse DataTables response", err).WithSource(string(config.SourceSayistay), "search")
	}

	return model.SearchResultPage{
		SourceID:     string(config.SourceSayistay),
		Subtype:      q.Subtype,
		TotalRecords: total,
		PageIndex:    q.Pagination.PageIndex,
		PageSize:     q.Pagination.PageSize,
		Entries:      entries,
	}, nil
}

func (a *Adapter) post(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	sess, err := a.pool.Borrow(ctx, string(config.SourceSayistay))
	if err != nil {
		return nil, 0, gatewayerr.Wrap(gatewayerr.BackendFailure, "borrow session", err)
	}
	if err := sess.Wait(ctx); err != nil {
		return nil, 0, gatewayerr.Wrap(gatewayerr.Timeout, "rate limiter wait", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, gatewayerr.Wrap(gatewayerr.BackendFailure, "build search request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("User-Agent", sess.UserAgent)
	resp, err := sess.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, gatewayerr.Wrap(gatewayerr.Timeout, "request deadline exceeded", ctx.Err())
		}
		return nil, 0, gatewayerr.Wrap(gatewayerr.BackendFailure, "transport error", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, gatewayerr.Wrap(gatewayerr.BackendFailure, "read response body", err)
	}
	return data, resp.StatusCode, nil
}

type dataTablesResponse struct {
	Draw            int               `json:"draw"`
	RecordsTotal    int64             `json:"recordsTotal"`
	RecordsFiltered int64             `json:"recordsFiltered"`
	Data            []json.RawMessage `json:"data"`
}

// rowFields covers the union of fields any of the three subtypes' rows may
// carry; each subtype populates a different subset.
type rowFields struct {
	ID              json.Number `json:"Id"`
	KararNo         string      `json:"KARARNO"`
	KararTarih      string      `json:"KARARTARIH"`
	KararOzeti      string      `json:"KARAROZETI"`
	TemyizTarihi    string      `json:"TEMYIZTUTANAKTARIHI"`
	IlamDairesi     string      `json:"ILAMDAIRESI"`
	TemyizKarar     string      `json:"TEMYIZKARAR"`
	YargilamaDaire  string      `json:"YARGILAMADAIRESI"`
	KararTarihDaire string      `json:"KARARTRH"`
	WebKararMetni   string      `json:"WEBKARARMETNI"`
}

func parseDataTablesResponse(raw []byte, subtype string) ([]model.Entry, *int64, error) {
	var resp dataTablesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, err
	}
	entries := make([]model.Entry, 0, len(resp.Data))
	for _, rowRaw := range resp.Data {
		var row rowFields
		if err := json.Unmarshal(rowRaw, &row); err != nil {
			continue
		}
		entry := model.Entry{
			Handle: model.DocumentHandle{
				SourceID: string(config.SourceSayistay),
				Subtype:  subtype,
				NativeID: row.ID.String(),
			},
		}
		switch subtype {
		case SubtypeGenelKurul:
			entry.DecisionNo = row.KararNo
			entry.DecisionAt = row.KararTarih
			entry.Subject = row.KararOzeti
		case SubtypeTemyizKurulu:
			entry.DecisionAt = row.TemyizTarihi
			entry.Outcome = row.IlamDairesi
			entry.Subject = row.TemyizKarar
		case SubtypeDaire:
			entry.Outcome = row.YargilamaDaire
			entry.DecisionAt = row.KararTarihDaire
			entry.DecisionNo = row.KararNo
			entry.Subject = row.WebKararMetni
		}
		entries = append(entries, entry)
	}
	total := resp.RecordsTotal
	return entries, &total, nil
}

// Fetch retrieves a decision's rendered detail page by its native id and
// subtype. Unlike the search endpoints, the detail page is plain
// server-rendered HTML, no DataTables JSON involved.
func (a *Adapter) Fetch(ctx context.Context, handle model.DocumentHandle) ([]byte, adapter.NormalizeKind, string, error) {
	segment, ok := documentPathSegments[handle.Subtype]
	if !ok {
		return nil, "", "", gatewayerr.Newf(gatewayerr.InvalidArgument, "unknown subtype %q in document handle", handle.Subtype).WithSource(string(config.SourceSayistay), "fetch")
	}
	docURL := fmt.Sprintf("%s/%s/Detay/%s/", baseURL, segment, handle.NativeID)

	sess, err := a.pool.Borrow(ctx, string(config.SourceSayistay))
	if err != nil {
		return nil, "", "", gatewayerr.Wrap(gatewayerr.BackendFailure, "borrow session", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, "", "", gatewayerr.Wrap(gatewayerr.BackendFailure, "build fetch request", err)
	}
	req.Header.Set("User-Agent", sess.UserAgent)
	resp, err := sess.Client.Do(req)
	if err != nil {
		return nil, "", "", gatewayerr.Wrap(gatewayerr.BackendFailure, "transport error", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "decision not found").WithSource(string(config.SourceSayistay), "fetch")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", gatewayerr.Wrap(gatewayerr.BackendFailure, "read response body", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, "", "", gatewayerr.New(gatewayerr.NotFound, "decision body not present on page").WithSource(string(config.SourceSayistay), "fetch")
	}
	return data, adapter.KindHTMLPage, docURL, nil
}

// Health runs a minimal daire search end-to-end — warming the anti-forgery
// token, posting the DataTables query, and parsing the response — rather
// than only confirming the landing page loads, since a warmed token alone
// does not establish the search endpoint itself is returning results.
func (a *Adapter) Health(ctx context.Context) model.HealthSample {
	sample := model.HealthSample{SourceID: string(config.SourceSayistay)}
	start := time.Now()

	token, err := a.fetchLandingToken(ctx, landingPages[SubtypeDaire])
	if err != nil {
		sample.LatencyMs = time.Since(start).Milliseconds()
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}

	form := dataTablesParams(SubtypeDaire, 0, 1)
	form.Set(chamberFields[SubtypeDaire], "Tüm Daireler")
	form.Set("__RequestVerificationToken", token)
	raw, status, err := a.post(ctx, searchEndpoints[SubtypeDaire], form)
	sample.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		sample.Status = model.HealthUnhealthy
		sample.Reason = err.Error()
		return sample
	}
	if status >= 400 {
		sample.Status = model.HealthUnhealthy
		sample.Reason = fmt.Sprintf("backend returned status %d", status)
		return sample
	}
	entries, total, err := parseDataTablesResponse(raw, SubtypeDaire)
	if err != nil || (len(entries) == 0 && (total == nil || *total == 0)) {
		sample.Status = model.HealthUnhealthy
		sample.Reason = "probe returned a 2xx response with zero records"
		return sample
	}

	sample.Status = model.HealthHealthy
	return sample
}
