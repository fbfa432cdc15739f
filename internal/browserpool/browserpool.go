// Package browserpool implements the headless browser pool (C3) used only by
// JS-rendered backends (the procurement authority's legacy flow), per
// spec.md §4.3.
package browserpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

// WaitCondition names the predicate a navigation waits on before the DOM is
// serialized.
type WaitCondition struct {
	// Selector is a CSS selector chromedp.WaitVisible/WaitReady waits for.
	// Empty means "network idle" (a fixed settle delay), matching the
	// reference crawler's pragmatic stand-in for network-idle detection.
	Selector string
	Settle   time.Duration
}

// FormStep is one declarative fill/click/wait step of a FormPlan.
type FormStep struct {
	Selector string
	Action   FormAction
	Value    string
}

// FormAction enumerates the primitives the pool owns on behalf of adapters.
type FormAction string

const (
	ActionClick  FormAction = "click"
	ActionFill   FormAction = "fill"
	ActionSelect FormAction = "select"
	ActionWait   FormAction = "wait"
)

// FormPlan is a declarative sequence of fill/click/wait steps executed
// against a navigated page.
type FormPlan struct {
	Steps []FormStep
}

// stealthScript overrides navigator.webdriver, the plugin list, languages,
// platform, and WebGL vendor/renderer so automated navigation does not
// trivially fingerprint as headless Chrome. Canvas and audio fingerprints
// and the timezone are not overridden.
const stealthScript = `
(() => {
  Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
  Object.defineProperty(navigator, 'languages', { get: () => ['tr-TR', 'tr', 'en-US'] });
  Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
  Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
  const getParameter = WebGLRenderingContext.prototype.getParameter;
  WebGLRenderingContext.prototype.getParameter = function (parameter) {
    if (parameter === 37445) return 'Intel Inc.';
    if (parameter === 37446) return 'Intel Iris OpenGL Engine';
    return getParameter.call(this, parameter);
  };
  delete window.cdc_adoQpoasnfa76pfcZLmcfl_Array;
  delete window.cdc_adoQpoasnfa76pfcZLmcfl_Promise;
  delete window.cdc_adoQpoasnfa76pfcZLmcfl_Symbol;
})();
`

// Pool lazily launches a single browser instance and hands out fresh
// contexts per navigation to avoid cross-request state leakage.
type Pool struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserDone context.CancelFunc
	sem         *semaphore.Weighted
	logger      telemetry.Logger
	started     bool
}

// New constructs a Pool. The browser process is launched lazily on first
// Navigate/FillAndSubmit call.
func New(maxParallelContexts int, logger telemetry.Logger) *Pool {
	if maxParallelContexts < 1 {
		maxParallelContexts = 1
	}
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(maxParallelContexts)), logger: logger}
}

func (p *Pool) ensureBrowser() error {
	if p.started {
		return nil
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserDone := chromedp.NewContext(allocCtx)
	// Force the browser process to start now so launch failures surface
	// immediately rather than on the first caller's navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserDone()
		allocCancel()
		return fmt.Errorf("launch headless browser: %w", err)
	}
	p.allocCtx, p.allocCancel = allocCtx, allocCancel
	p.browserCtx, p.browserDone = browserCtx, browserDone
	p.started = true
	return nil
}

// newTabContext creates a fresh browser tab with a 1920×1080 viewport and
// stealthScript applied. Beyond stealthScript's tr-TR navigator.languages,
// no locale, timezone or geolocation emulation is set.
func (p *Pool) newTabContext(parent context.Context) (context.Context, context.CancelFunc, error) {
	tabCtx, cancel := chromedp.NewContext(parent)
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return nil
		}),
		chromedp.Evaluate(stealthScript, nil),
	)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return tabCtx, cancel, nil
}

// Navigate loads url, waits for wait's predicate, and returns the final
// DOM-serialized HTML. Returns Timeout if deadline elapses.
func (p *Pool) Navigate(ctx context.Context, url string, wait WaitCondition, deadline time.Time) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.ResourceExhausted, "acquire browser context", err)
	}
	defer p.sem.Release(1)

	if err := p.ensureBrowser(); err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.BackendFailure, "browser unavailable", err)
	}

	navCtx, navCancel := context.WithDeadline(p.browserCtx, deadline)
	defer navCancel()
	tabCtx, tabCancel, err := p.newTabContext(navCtx)
	if err != nil {
		return nil, classifyBrowserErr(err)
	}
	defer tabCancel()

	var html string
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if wait.Selector != "" {
		actions = append(actions, chromedp.WaitVisible(wait.Selector, chromedp.ByQuery))
	} else {
		settle := wait.Settle
		if settle <= 0 {
			settle = 1500 * time.Millisecond
		}
		actions = append(actions, chromedp.Sleep(settle))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, classifyBrowserErr(err)
	}
	if looksLikeChallenge(html) {
		return nil, gatewayerr.New(gatewayerr.AccessDenied, "bot-challenge page detected")
	}
	return []byte(html), nil
}

// FillAndSubmit navigates to url and executes plan's declarative steps, then
// returns the resulting DOM-serialized HTML.
func (p *Pool) FillAndSubmit(ctx context.Context, url string, plan FormPlan, deadline time.Time) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.ResourceExhausted, "acquire browser context", err)
	}
	defer p.sem.Release(1)

	if err := p.ensureBrowser(); err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.BackendFailure, "browser unavailable", err)
	}

	navCtx, navCancel := context.WithDeadline(p.browserCtx, deadline)
	defer navCancel()
	tabCtx, tabCancel, err := p.newTabContext(navCtx)
	if err != nil {
		return nil, classifyBrowserErr(err)
	}
	defer tabCancel()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	for _, step := range plan.Steps {
		switch step.Action {
		case ActionClick:
			actions = append(actions, chromedp.Click(step.Selector, chromedp.ByQuery))
		case ActionFill:
			actions = append(actions, chromedp.SendKeys(step.Selector, step.Value, chromedp.ByQuery))
		case ActionSelect:
			actions = append(actions, chromedp.SetValue(step.Selector, step.Value, chromedp.ByQuery))
		case ActionWait:
			actions = append(actions, chromedp.WaitVisible(step.Selector, chromedp.ByQuery))
		}
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, classifyBrowserErr(err)
	}
	if looksLikeChallenge(html) {
		return nil, gatewayerr.New(gatewayerr.AccessDenied, "bot-challenge page detected")
	}
	return []byte(html), nil
}

// Shutdown closes the browser process. Idempotent; safe to call on a pool
// that was never started.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.started {
		return nil
	}
	if p.browserDone != nil {
		p.browserDone()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	p.started = false
	return nil
}

func classifyBrowserErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return gatewayerr.Wrap(gatewayerr.Timeout, "browser navigation deadline exceeded", err)
	}
	return gatewayerr.Wrap(gatewayerr.BackendFailure, "browser navigation failed", err)
}

// looksLikeChallenge is a minimal heuristic for bot-challenge detection:
// Cloudflare/Akamai style interstitials carry a small number of stable
// marker strings. Real deployments would widen this list per backend.
func looksLikeChallenge(html string) bool {
	markers := []string{"Attention Required!", "cf-browser-verification", "Just a moment...", "g-recaptcha"}
	for _, m := range markers {
		if containsFold(html, m) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexFold(haystack, needle) >= 0
}

func indexFold(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if equalFold(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
