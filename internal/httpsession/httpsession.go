// Package httpsession implements the per-backend HTTP session pool (C2):
// cookie jars, CSRF token caches, TLS policy, rate limiting, and the
// Cold→Warm session lifecycle from spec.md §4.2 and §4.4.x.
package httpsession

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

// TLSPolicy centralizes per-source TLS relaxations (spec.md §9: "centralize
// in the Session Pool as a per-source policy struct").
type TLSPolicy struct {
	InsecureSkipVerify       bool
	AllowLegacyRenegotiation bool
	CipherSuites             []uint16
}

func (p TLSPolicy) tlsConfig() *tls.Config {
	cfg := &tls.Config{InsecureSkipVerify: p.InsecureSkipVerify} //nolint:gosec // per-source override documented in spec.md §4.2
	if p.AllowLegacyRenegotiation {
		cfg.Renegotiation = tls.RenegotiateFreelyAsClient
	}
	if len(p.CipherSuites) > 0 {
		cfg.CipherSuites = p.CipherSuites
	}
	return cfg
}

// SourcePolicy configures one backend's session: headers, TLS, timeout, and
// request rate.
type SourcePolicy struct {
	SourceID  string
	UserAgent string
	Referer   string
	Origin    string
	TLS       TLSPolicy
	Timeout   time.Duration
	RateLimit rate.Limit // requests per second, 0 disables limiting
	RateBurst int
	// ExtraHeaders are applied to every request on top of UserAgent/Referer/
	// Origin, for backends that require static backend-specific headers
	// (e.g. the procurement authority's v2 API custom request headers).
	ExtraHeaders map[string]string
}

// csrfCache maps sub-endpoint to its harvested anti-forgery token.
type csrfCache struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func newCSRFCache() *csrfCache {
	return &csrfCache{tokens: make(map[string]string)}
}

func (c *csrfCache) get(subEndpoint string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.tokens[subEndpoint]
	return tok, ok
}

func (c *csrfCache) set(subEndpoint, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[subEndpoint] = token
}

func (c *csrfCache) invalidate(subEndpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, subEndpoint)
}

// Session is a borrowed handle to a backend's HTTP client, CSRF cache, and
// headers profile. Concurrent borrows of the same source_id are independent
// logical sessions sharing the same cookie jar and CSRF cache, per spec.md
// §4.2's ordering guarantee.
type Session struct {
	SourceID     string
	Client       *http.Client
	UserAgent    string
	Referer      string
	Origin       string
	ExtraHeaders map[string]string
	csrf         *csrfCache
	limiter      *rate.Limiter
}

// CSRFToken returns the cached token for subEndpoint, fetching nothing
// itself — callers use Pool.WarmUp to populate it.
func (s *Session) CSRFToken(subEndpoint string) (string, bool) {
	return s.csrf.get(subEndpoint)
}

// Wait blocks until the per-source rate limiter admits one request, or ctx
// is done.
func (s *Session) Wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// entry holds the per-source state owned exclusively by the Pool.
type entry struct {
	policy    SourcePolicy
	client    *http.Client
	transport *http.Transport // underlying transport, for Shutdown's CloseIdleConnections
	csrf      *csrfCache
	limiter   *rate.Limiter
}

// retryMax, retryWaitMin, and retryWaitMax bound the transient-failure
// backoff every backend's transport shares: a handful of retries with
// exponential backoff covers a backend's momentary 5xx blip without
// turning a genuinely down backend into a long hang.
const (
	retryMax     = 3
	retryWaitMin = 250 * time.Millisecond
	retryWaitMax = 4 * time.Second
)

// Pool owns one long-lived client per source_id. Adapters borrow a Session
// for the duration of a single logical operation; the Pool itself is safe
// for concurrent use.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group // serializes Cold→Warm landing-page fetches per source
	logger  telemetry.Logger
}

// New constructs an empty Pool. Sources are registered lazily via Register
// or on first Borrow with a zero-value policy.
func New(logger telemetry.Logger) *Pool {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Pool{entries: make(map[string]*entry), logger: logger}
}

// Register installs the policy for a source_id. Safe to call before any
// Borrow; re-registering after first use recreates the underlying client.
func (p *Pool) Register(policy SourcePolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[policy.SourceID] = p.buildEntry(policy)
}

func (p *Pool) buildEntry(policy SourcePolicy) *entry {
	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = policy.TLS.tlsConfig()

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	inner := &http.Client{Transport: transport, Jar: jar, Timeout: timeout}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = inner
	retryClient.Logger = nil // silence retryablehttp's default stderr logging
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = retryWaitMin
	retryClient.RetryWaitMax = retryWaitMax
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	// Once retries are exhausted, hand the last response back to the caller
	// so its status (429, 5xx) can be classified rather than lost.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client := retryClient.StandardClient()

	var limiter *rate.Limiter
	if policy.RateLimit > 0 {
		burst := policy.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(policy.RateLimit, burst)
	}

	return &entry{policy: policy, client: client, transport: transport, csrf: newCSRFCache(), limiter: limiter}
}

// Borrow returns a ready-to-use Session for source_id, lazily constructing
// its backing client from a zero-value policy if none was registered.
func (p *Pool) Borrow(ctx context.Context, sourceID string) (*Session, error) {
	p.mu.RLock()
	e, ok := p.entries[sourceID]
	p.mu.RUnlock()
	if !ok {
		p.mu.Lock()
		if e, ok = p.entries[sourceID]; !ok {
			e = p.buildEntry(SourcePolicy{SourceID: sourceID})
			p.entries[sourceID] = e
		}
		p.mu.Unlock()
	}
	return &Session{
		SourceID:     sourceID,
		Client:       e.client,
		UserAgent:    e.policy.UserAgent,
		Referer:      e.policy.Referer,
		Origin:       e.policy.Origin,
		ExtraHeaders: e.policy.ExtraHeaders,
		csrf:         e.csrf,
		limiter:      e.limiter,
	}, nil
}

// WarmUp ensures the Cold→Warm transition for (sourceID, subEndpoint) runs at
// most once concurrently: N concurrent callers targeting a Cold session
// observe exactly one invocation of fetchToken, per spec.md §4.4.x and §8's
// concurrent-CSRF testable property. fetchToken performs the landing-page
// GET and returns the harvested anti-forgery token.
func (p *Pool) WarmUp(ctx context.Context, sourceID, subEndpoint string, fetchToken func(context.Context) (string, error)) (string, error) {
	p.mu.RLock()
	e, ok := p.entries[sourceID]
	p.mu.RUnlock()
	if !ok {
		return "", errSourceNotRegistered(sourceID)
	}
	if tok, ok := e.csrf.get(subEndpoint); ok {
		return tok, nil
	}
	key := sourceID + "|" + subEndpoint
	v, err, _ := p.group.Do(key, func() (any, error) {
		if tok, ok := e.csrf.get(subEndpoint); ok {
			return tok, nil
		}
		p.logger.Info(ctx, "session warm-up: fetching landing page", "source_id", sourceID, "sub_endpoint", subEndpoint)
		tok, err := fetchToken(ctx)
		if err != nil {
			return "", err
		}
		e.csrf.set(subEndpoint, tok)
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// OnAuthFailure invalidates the stored CSRF token for (sourceID,
// subEndpoint), forcing a re-fetch on the next WarmUp call. Callers retry
// the original request at most once after invalidation (spec.md §4.2).
func (p *Pool) OnAuthFailure(sourceID, subEndpoint string) {
	p.mu.RLock()
	e, ok := p.entries[sourceID]
	p.mu.RUnlock()
	if !ok {
		return
	}
	e.csrf.invalidate(subEndpoint)
}

// Shutdown closes every registered source's connection pool. Persists
// nothing; idempotent.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.transport.CloseIdleConnections()
	}
	p.entries = make(map[string]*entry)
	return nil
}

type sourceNotRegisteredError struct{ sourceID string }

func (e sourceNotRegisteredError) Error() string {
	return "httpsession: source not registered: " + e.sourceID
}

func errSourceNotRegistered(sourceID string) error {
	return sourceNotRegisteredError{sourceID: sourceID}
}
