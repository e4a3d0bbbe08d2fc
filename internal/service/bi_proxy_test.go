package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"sales-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamCall struct {
	method      string
	path        string
	query       url.Values
	contentType string
	accept      string
	apikey      string
	user        string
	pass        string
	body        string
}

func fakeUpstream(t *testing.T, status int, contentType, body string) (*httptest.Server, *upstreamCall, *int32) {
	t.Helper()
	var hits int32
	call := &upstreamCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		raw, _ := io.ReadAll(r.Body)
		call.method = r.Method
		call.path = r.URL.Path
		call.query = r.URL.Query()
		call.contentType = r.Header.Get("Content-Type")
		call.accept = r.Header.Get("Accept")
		call.apikey = r.Header.Get("apikey")
		call.user, call.pass, _ = r.BasicAuth()
		call.body = string(raw)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, call, &hits
}

func testBIConfig(baseURL string) config.BIConfig {
	return config.BIConfig{
		BaseURL:  baseURL,
		Username: "bi-user",
		Password: "bi-pass",
		APIKey:   "secret-key",
	}
}

func TestForwardDropsPathParam(t *testing.T) {
	srv, call, _ := fakeUpstream(t, http.StatusOK, "application/json", `{"rows":[]}`)
	proxy := NewBIProxy(testBIConfig(srv.URL + "/api"))

	q := url.Values{"path": {"sales"}, "a": {"1"}, "startdate": {"2024-01-01"}, "enddate": {"2024-01-31"}}
	resp, err := proxy.Forward(context.Background(), &ProxyRequest{
		Method:       http.MethodGet,
		UpstreamPath: ResolveUpstreamPath("/bi", "/bi", q),
		Query:        q,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"rows":[]}`, string(resp.Body))
	assert.Equal(t, "/api/sales", call.path)
	assert.Equal(t, "1", call.query.Get("a"))
	assert.NotContains(t, call.query, "path")
	assert.Equal(t, "2024-01-01", call.query.Get("startdate"))
	assert.Equal(t, "2024-01-31", call.query.Get("enddate"))
}

func TestForwardInjectsCredentials(t *testing.T) {
	srv, call, _ := fakeUpstream(t, http.StatusOK, "application/json", `{}`)
	proxy := NewBIProxy(testBIConfig(srv.URL))

	_, err := proxy.Forward(context.Background(), &ProxyRequest{
		Method: http.MethodGet,
		Query:  url.Values{"startdate": {"2024-01-01"}, "enddate": {"2024-01-31"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "bi-user", call.user)
	assert.Equal(t, "bi-pass", call.pass)
	assert.Equal(t, "secret-key", call.apikey)
	assert.Equal(t, "application/json", call.accept)
	assert.Equal(t, "/", call.path)
}

func TestForwardMissingDatesMakesNoCall(t *testing.T) {
	srv, _, hits := fakeUpstream(t, http.StatusOK, "application/json", `{}`)
	proxy := NewBIProxy(testBIConfig(srv.URL))

	_, err := proxy.Forward(context.Background(), &ProxyRequest{
		Method: http.MethodGet,
		Query:  url.Values{"startdate": {"2024-01-01"}},
	})

	var missing *MissingParamsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"enddate"}, missing.Missing)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestForwardMergesBodyDates(t *testing.T) {
	srv, call, _ := fakeUpstream(t, http.StatusOK, "application/json", `{}`)
	proxy := NewBIProxy(testBIConfig(srv.URL))

	body := `{"startdate":"2023-12-01","enddate":"2023-12-31","group":"store"}`
	_, err := proxy.Forward(context.Background(), &ProxyRequest{
		Method:       http.MethodPost,
		UpstreamPath: "report",
		Query:        url.Values{"startdate": {"2024-01-01"}},
		ContentType:  "application/json; charset=utf-8",
		Body:         []byte(body),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "2024-01-01", call.query.Get("startdate"))
	assert.Equal(t, "2023-12-31", call.query.Get("enddate"))
	assert.Equal(t, body, call.body)
	assert.Equal(t, "application/json", call.contentType)
}

func TestForwardIgnoresBodyOnGet(t *testing.T) {
	srv, _, hits := fakeUpstream(t, http.StatusOK, "application/json", `{}`)
	proxy := NewBIProxy(testBIConfig(srv.URL))

	_, err := proxy.Forward(context.Background(), &ProxyRequest{
		Method:      http.MethodGet,
		ContentType: "application/json",
		Body:        []byte(`{"startdate":"2024-01-01","enddate":"2024-01-31"}`),
	})

	var missing *MissingParamsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"startdate", "enddate"}, missing.Missing)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestForwardCredentialChecks(t *testing.T) {
	srv, _, hits := fakeUpstream(t, http.StatusOK, "application/json", `{}`)
	q := url.Values{"startdate": {"2024-01-01"}, "enddate": {"2024-01-31"}}

	noBasic := testBIConfig(srv.URL)
	noBasic.Password = ""
	_, err := NewBIProxy(noBasic).Forward(context.Background(), &ProxyRequest{Method: http.MethodGet, Query: q})
	var basicErr *ConfigError
	require.ErrorAs(t, err, &basicErr)
	assert.Contains(t, basicErr.Msg, "username/password")

	noKey := testBIConfig(srv.URL)
	noKey.APIKey = ""
	_, err = NewBIProxy(noKey).Forward(context.Background(), &ProxyRequest{Method: http.MethodGet, Query: q})
	var keyErr *ConfigError
	require.ErrorAs(t, err, &keyErr)
	assert.Contains(t, keyErr.Msg, "API key")

	assert.NotEqual(t, basicErr.Msg, keyErr.Msg)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestForwardRelaysUpstreamAnswer(t *testing.T) {
	srv, _, _ := fakeUpstream(t, http.StatusTeapot, "text/plain", "short and stout")
	proxy := NewBIProxy(testBIConfig(srv.URL))

	resp, err := proxy.Forward(context.Background(), &ProxyRequest{
		Method: http.MethodGet,
		Query:  url.Values{"startdate": {"2024-01-01"}, "enddate": {"2024-01-31"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.ContentType)
	assert.Equal(t, "short and stout", string(resp.Body))
}

func TestForwardUnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	_, err := NewBIProxy(testBIConfig(baseURL)).Forward(context.Background(), &ProxyRequest{
		Method: http.MethodGet,
		Query:  url.Values{"startdate": {"2024-01-01"}, "enddate": {"2024-01-31"}},
	})

	var upErr *UpstreamError
	assert.ErrorAs(t, err, &upErr)
}

func TestForwardInvalidBaseURL(t *testing.T) {
	_, err := NewBIProxy(testBIConfig("not a url")).Forward(context.Background(), &ProxyRequest{
		Method: http.MethodGet,
		Query:  url.Values{"startdate": {"2024-01-01"}, "enddate": {"2024-01-31"}},
	})

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResolveUpstreamPath(t *testing.T) {
	assert.Equal(t, "sales", ResolveUpstreamPath("/bi", "/bi/sales", nil))
	assert.Equal(t, "sales/daily", ResolveUpstreamPath("/bi", "/bi/sales/daily", url.Values{"path": {"other"}}))
	assert.Equal(t, "sales", ResolveUpstreamPath("/bi", "/bi", url.Values{"path": {"sales"}}))
	assert.Equal(t, "", ResolveUpstreamPath("/bi", "/bi", url.Values{}))
}
