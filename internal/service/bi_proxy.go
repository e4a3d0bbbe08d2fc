package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sales-service/config"
	"sales-service/internal/util"

	"go.uber.org/zap"
)

// ExampleBIInvocation is returned to callers that omit the date range.
const ExampleBIInvocation = "curl --location '<host>/bi?startdate=YYYY-MM-DD&enddate=YYYY-MM-DD'"

// RequiredBIParams must resolve from the query string or the JSON body.
var RequiredBIParams = []string{"startdate", "enddate"}

// internal query parameter naming the upstream path; never forwarded
const pathParam = "path"

// BIProxy forwards analytics queries to the BI API with credentials the
// caller never sees.
type BIProxy struct {
	cfg    config.BIConfig
	client *http.Client
	logger *zap.Logger
}

// NewBIProxy creates a proxy. The client's only deadline is cfg.Timeout.
func NewBIProxy(cfg config.BIConfig) *BIProxy {
	return &BIProxy{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: util.GetLogger(),
	}
}

// ProxyRequest is the inbound call as seen by the proxy
type ProxyRequest struct {
	Method       string
	UpstreamPath string
	Query        url.Values
	ContentType  string
	Body         []byte
}

// ProxyResponse is relayed to the caller unchanged
type ProxyResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// ResolveUpstreamPath takes the upstream path from the segment after prefix
// ("/bi/sales" -> "sales"), else from the path query parameter. Empty means
// the upstream root.
func ResolveUpstreamPath(prefix, inboundPath string, q url.Values) string {
	if p := strings.TrimSuffix(prefix, "/") + "/"; strings.HasPrefix(inboundPath, p) {
		return strings.TrimPrefix(inboundPath, p)
	}
	return q.Get(pathParam)
}

// Forward sends req upstream and returns the upstream answer as is. Errors
// are *MissingParamsError, *ConfigError or *UpstreamError. Once dispatched the
// call is not cancelled with ctx.
func (p *BIProxy) Forward(ctx context.Context, req *ProxyRequest) (*ProxyResponse, error) {
	ctx, span := util.StartSpan(ctx, "BIProxy.Forward")
	defer span.End()

	query := make(url.Values, len(req.Query))
	for k, v := range req.Query {
		if k == pathParam {
			continue
		}
		query[k] = append([]string(nil), v...)
	}

	startdate := query.Get("startdate")
	enddate := query.Get("enddate")

	var body []byte
	if carriesBody(req.Method) && strings.Contains(req.ContentType, "application/json") && len(req.Body) > 0 {
		body = req.Body
		fields := jsonFields(body)
		if startdate == "" {
			startdate = paramString(fields["startdate"])
		}
		if enddate == "" {
			enddate = paramString(fields["enddate"])
		}
	}

	var missing []string
	if startdate == "" {
		missing = append(missing, "startdate")
	}
	if enddate == "" {
		missing = append(missing, "enddate")
	}
	if len(missing) > 0 {
		util.BIProxyRequestsTotal.WithLabelValues("missing_params").Inc()
		return nil, &MissingParamsError{Missing: missing}
	}
	query.Set("startdate", startdate)
	query.Set("enddate", enddate)

	if err := p.checkCredentials(); err != nil {
		util.BIProxyRequestsTotal.WithLabelValues("config_error").Inc()
		p.logger.Error("BI proxy misconfigured", zap.Error(err))
		return nil, err
	}

	target, err := p.upstreamURL(req.UpstreamPath, query)
	if err != nil {
		util.BIProxyRequestsTotal.WithLabelValues("config_error").Inc()
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(context.WithoutCancel(ctx), req.Method, target, reader)
	if err != nil {
		util.BIProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamError{Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	httpReq.Header.Set("apikey", p.cfg.APIKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	util.BIProxyUpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.BIProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		p.logger.Warn("BI upstream unreachable",
			zap.String("method", req.Method),
			zap.String("path", req.UpstreamPath),
			zap.Error(err))
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		util.BIProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamError{Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	util.BIProxyRequestsTotal.WithLabelValues("relayed").Inc()
	p.logger.Debug("BI call relayed",
		zap.String("method", req.Method),
		zap.String("path", req.UpstreamPath),
		zap.Int("status", resp.StatusCode))

	return &ProxyResponse{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        respBody,
	}, nil
}

// checkCredentials verifies both credential schemes separately.
func (p *BIProxy) checkCredentials() error {
	if p.cfg.Username == "" || p.cfg.Password == "" {
		return &ConfigError{Msg: "BI basic credentials (username/password) are not configured"}
	}
	if p.cfg.APIKey == "" {
		return &ConfigError{Msg: "BI API key is not configured"}
	}
	return nil
}

func (p *BIProxy) upstreamURL(upstreamPath string, query url.Values) (string, error) {
	base := strings.TrimSuffix(p.cfg.BaseURL, "/")
	if path := strings.TrimPrefix(upstreamPath, "/"); path != "" {
		base += "/" + path
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &ConfigError{Msg: "BI API URL is not a valid absolute URL: " + p.cfg.BaseURL}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func carriesBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// jsonFields decodes a JSON object body; anything else yields no fields and
// the body is still forwarded raw.
func jsonFields(body []byte) map[string]interface{} {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil
	}
	return fields
}

func paramString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	}
	return ""
}
