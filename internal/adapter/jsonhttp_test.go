package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
)

func TestJSONClientRetriesOnceOnAuthFailure(t *testing.T) {
	var requestCount int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&requestCount, 1)
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	pool := httpsession.New(nil)
	pool.Register(httpsession.SourcePolicy{SourceID: "test_source"})
	client := NewJSONClient(pool, "test_source", nil)

	raw, err := client.GetJSON(context.Background(), "search", srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(raw))
	assert.EqualValues(t, 2, atomic.LoadInt64(&requestCount), "one failed attempt plus exactly one retry")
}

func TestJSONClientFailsAfterRepeatedAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	pool := httpsession.New(nil)
	pool.Register(httpsession.SourcePolicy{SourceID: "test_source"})
	client := NewJSONClient(pool, "test_source", nil)

	_, err := client.GetJSON(context.Background(), "search", srv.URL)
	require.Error(t, err)
	assert.Equal(t, gatewayerr.BackendFailure, gatewayerr.KindOf(err))
}

func TestJSONClientClassifiesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend trouble"))
	}))
	defer srv.Close()

	pool := httpsession.New(nil)
	pool.Register(httpsession.SourcePolicy{SourceID: "test_source"})
	client := NewJSONClient(pool, "test_source", nil)

	_, err := client.PostJSON(context.Background(), "search", srv.URL, map[string]string{"q": "x"})
	require.Error(t, err)
	assert.Equal(t, gatewayerr.BackendFailure, gatewayerr.KindOf(err))
}

func TestJSONClientClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	pool := httpsession.New(nil)
	pool.Register(httpsession.SourcePolicy{SourceID: "test_source"})
	client := NewJSONClient(pool, "test_source", nil)

	_, err := client.GetJSON(context.Background(), "search", srv.URL)
	require.Error(t, err)
	assert.Equal(t, gatewayerr.AccessDenied, gatewayerr.KindOf(err))
}

func TestJSONClientSendsExtraHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom-Request-Guid")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	pool := httpsession.New(nil)
	pool.Register(httpsession.SourcePolicy{
		SourceID:     "test_source",
		ExtraHeaders: map[string]string{"X-Custom-Request-Guid": "fixed-guid"},
	})
	client := NewJSONClient(pool, "test_source", nil)

	_, err := client.GetJSON(context.Background(), "search", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "fixed-guid", gotHeader)
}
