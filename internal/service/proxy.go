// Package service implements the core request translation and forwarding logic.
package service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git-cors-proxy/internal/client"
	"git-cors-proxy/internal/config"
	"git-cors-proxy/internal/model"
)

// Translator errors. The messages are part of the HTTP contract and are
// returned verbatim in the JSON error body.
var (
	ErrInvalidProxyURL = errors.New("Invalid proxy URL format")
	ErrInvalidPath     = errors.New("Invalid path format")
)

// UpstreamError wraps a transport failure reaching the target, carrying the
// URL that was attempted so the error response can report it.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return "upstream " + e.URL + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// allowedRequestHeaders are the only inbound headers forwarded upstream.
// Order matters only for the Access-Control-Allow-Headers value.
var allowedRequestHeaders = []string{
	"accept-encoding",
	"accept-language",
	"accept",
	"access-control-allow-origin",
	"authorization",
	"cache-control",
	"connection",
	"content-length",
	"content-type",
	"dnt",
	"pragma",
	"range",
	"referer",
	"user-agent",
	"x-authorization",
	"x-http-method-override",
	"x-requested-with",
}

// exposedResponseHeaders are the only upstream response headers relayed to
// the client. content-length is advertised but never copied: the body is
// streamed and the transport owns the length.
var exposedResponseHeaders = []string{
	"accept-ranges",
	"age",
	"cache-control",
	"content-length",
	"content-language",
	"content-type",
	"date",
	"etag",
	"expires",
	"last-modified",
	"pragma",
	"server",
	"transfer-encoding",
	"vary",
	"x-github-request-id",
	"x-redirected-url",
}

// proxyUserAgent replaces any user-agent that does not identify a Git
// client. Git hosting services vary their smart-HTTP behavior by UA, so
// browsers and curl are presented upstream as Git.
const proxyUserAgent = "git/git-cors-proxy"

// forwardedForSentinel is used when the caller sent no x-forwarded-for.
const forwardedForSentinel = "0.0.0.0"

// CORS header values, computed once at init.
var (
	corsAllowHeaders  = strings.Join(allowedRequestHeaders, ", ")
	corsExposeHeaders = strings.Join(exposedResponseHeaders, ", ")
)

// ApplyCORS sets the permissive CORS headers carried by every response,
// including preflights and errors.
func ApplyCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
	h.Set("Access-Control-Max-Age", "86400")
}

// ProxyService translates inbound requests into upstream calls and filters
// headers in both directions. It holds no per-request state.
type ProxyService struct {
	client *client.UpstreamClient
	cfg    *config.Config
	logger *slog.Logger
	scheme string
}

// NewProxyService creates a ProxyService that forwards over HTTPS.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "proxy_service"),
		scheme: "https",
	}
}

// NewProxyServiceForTest creates a ProxyService with an explicit upstream
// scheme. This is intended only for tests that use httptest servers, which
// listen on plain HTTP.
func NewProxyServiceForTest(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, scheme string) *ProxyService {
	s := NewProxyService(c, cfg, logger)
	s.scheme = scheme
	return s
}

// ResolveTarget splits an inbound path (leading slash already stripped)
// into the target domain and remainder. The domain is taken as-is: no
// hostname validation is performed, and malformed domains surface later as
// upstream fetch failures.
func ResolveTarget(path, rawQuery string) (model.Target, error) {
	if path == "" {
		return model.Target{}, ErrInvalidProxyURL
	}
	domain, remainder, _ := strings.Cut(path, "/")
	if domain == "" {
		return model.Target{}, ErrInvalidPath
	}
	return model.Target{
		Domain:    domain,
		Remainder: remainder,
		RawQuery:  rawQuery,
	}, nil
}

// targetURL builds the upstream URL for a target. The query string is
// appended verbatim, never parsed or re-encoded.
func (s *ProxyService) targetURL(t model.Target) string {
	u := s.scheme + "://" + t.Domain + "/" + t.Remainder
	if t.RawQuery != "" {
		u += "?" + t.RawQuery
	}
	return u
}

// Forward translates pr into an upstream request, executes it and returns
// the filtered response. The caller is responsible for closing the response
// body. At most one upstream attempt is made; failures are never retried.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, err := ResolveTarget(pr.Path, pr.RawQuery)
	if err != nil {
		return nil, err
	}

	upstreamURL := s.targetURL(target)
	header := s.filterRequestHeaders(pr)

	var body io.Reader
	if pr.Method != http.MethodGet && pr.Method != http.MethodHead {
		body = pr.Body
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"domain", target.Domain,
	)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, upstreamURL, header, body)
	if err != nil {
		return nil, &UpstreamError{URL: upstreamURL, Err: err}
	}

	header = s.filterResponseHeaders(resp.Header)
	if resp.Redirected {
		header.Set("X-Redirected-Url", resp.FinalURL)
	}
	resp.Header = header
	return resp, nil
}

// filterRequestHeaders builds the outbound header set: the allowlisted
// inbound headers, the forwarding-context headers, and a normalized
// user-agent. Host is never forwarded; the target host lives in the URL.
func (s *ProxyService) filterRequestHeaders(pr *model.ProxyRequest) http.Header {
	dst := make(http.Header)
	for _, key := range allowedRequestHeaders {
		if vals := pr.Header.Values(key); len(vals) > 0 {
			dst[http.CanonicalHeaderKey(key)] = vals
		}
	}

	dst.Set("X-Forwarded-Proto", strings.TrimSuffix(pr.Scheme, "://"))
	forwardedFor := pr.Header.Get("X-Forwarded-For")
	if forwardedFor == "" {
		forwardedFor = forwardedForSentinel
	}
	dst.Set("X-Forwarded-For", forwardedFor)
	dst.Set("X-Forwarded-Host", pr.Host)

	if ua := dst.Get("User-Agent"); !strings.HasPrefix(strings.ToLower(ua), "git/") {
		dst.Set("User-Agent", proxyUserAgent)
	}

	return dst
}

// filterResponseHeaders copies the exposelisted upstream headers, skipping
// content-length: the body is re-streamed, so the transport determines the
// length of what the client actually receives.
func (s *ProxyService) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for _, key := range exposedResponseHeaders {
		ck := http.CanonicalHeaderKey(key)
		if ck == "Content-Length" {
			continue
		}
		if vals := src.Values(key); len(vals) > 0 {
			dst[ck] = vals
		}
	}
	return dst
}
