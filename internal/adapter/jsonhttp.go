package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

// JSONClient is the shared transport helper for family-(a) JSON-over-HTTP
// adapters: it borrows a session, applies standard headers, retries exactly
// once on an auth failure by invalidating the cached CSRF token, and
// classifies transport/HTTP failures into the closed gatewayerr taxonomy.
type JSONClient struct {
	Pool      *httpsession.Pool
	SourceID  string
	Logger    telemetry.Logger
}

// NewJSONClient constructs a JSONClient bound to one backend's session pool
// entry.
func NewJSONClient(pool *httpsession.Pool, sourceID string, logger telemetry.Logger) *JSONClient {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &JSONClient{Pool: pool, SourceID: sourceID, Logger: logger}
}

// PostJSON sends body (already-marshaled JSON) to url and returns the raw
// response body. CSRF token for subEndpoint, if previously warmed, is
// attached as the X-CSRF-Token header; a 401/403 response triggers one
// token invalidation + re-send per spec.md §4.2.
func (c *JSONClient) PostJSON(ctx context.Context, subEndpoint, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.InvalidArgument, "marshal request body", err)
	}
	return c.doWithRetry(ctx, subEndpoint, func(csrf string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/plain, */*")
		if csrf != "" {
			req.Header.Set("X-CSRF-Token", csrf)
		}
		return req, nil
	})
}

// GetJSON issues a GET to url, following the same CSRF retry-once policy.
func (c *JSONClient) GetJSON(ctx context.Context, subEndpoint, url string) ([]byte, error) {
	return c.doWithRetry(ctx, subEndpoint, func(csrf string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json, text/html, */*")
		if csrf != "" {
			req.Header.Set("X-CSRF-Token", csrf)
		}
		return req, nil
	})
}

func (c *JSONClient) doWithRetry(ctx context.Context, subEndpoint string, build func(csrf string) (*http.Request, error)) ([]byte, error) {
	sess, err := c.Pool.Borrow(ctx, c.SourceID)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.BackendFailure, "borrow session", err)
	}
	if err := sess.Wait(ctx); err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.Timeout, "rate limiter wait", err)
	}

	csrf, _ := sess.CSRFToken(subEndpoint)
	body, status, err := c.send(ctx, sess, build, csrf)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.Logger.Warn(ctx, "auth failure, invalidating csrf and retrying once",
			"source_id", c.SourceID, "sub_endpoint", subEndpoint, "http_status", status)
		c.Pool.OnAuthFailure(c.SourceID, subEndpoint)
		body, status, err = c.send(ctx, sess, build, "")
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, gatewayerr.Newf(gatewayerr.BackendFailure, "backend rejected retried request with status %d", status).WithSource(c.SourceID, subEndpoint)
		}
	}
	if status >= 500 {
		return nil, (&gatewayerr.Error{Kind: gatewayerr.BackendFailure, Message: fmt.Sprintf("backend returned status %d", status), HTTPStatus: status, Excerpt: excerpt(body)}).WithSource(c.SourceID, subEndpoint)
	}
	if status == http.StatusTooManyRequests {
		return nil, gatewayerr.Newf(gatewayerr.AccessDenied, "backend rate-limited the request (status %d)", status).WithSource(c.SourceID, subEndpoint)
	}
	if status >= 400 {
		return nil, (&gatewayerr.Error{Kind: gatewayerr.BackendFailure, Message: fmt.Sprintf("backend returned status %d", status), HTTPStatus: status, Excerpt: excerpt(body)}).WithSource(c.SourceID, subEndpoint)
	}
	return body, nil
}

func (c *JSONClient) send(ctx context.Context, sess *httpsession.Session, build func(csrf string) (*http.Request, error), csrf string) ([]byte, int, error) {
	req, err := build(csrf)
	if err != nil {
		return nil, 0, gatewayerr.Wrap(gatewayerr.InvalidArgument, "build request", err)
	}
	if sess.UserAgent != "" {
		req.Header.Set("User-Agent", sess.UserAgent)
	}
	if sess.Referer != "" {
		req.Header.Set("Referer", sess.Referer)
	}
	if sess.Origin != "" {
		req.Header.Set("Origin", sess.Origin)
	}
	for k, v := range sess.ExtraHeaders {
		req.Header.Set(k, v)
	}
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

func excerpt(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max])
}
