// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents a client request to be forwarded upstream.
// Path is the inbound request path with the leading slash stripped;
// RawQuery is the query string exactly as received, never parsed.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string
	RawQuery string
	Scheme   string
	Host     string
	Header   http.Header
	Body     io.ReadCloser
}

// Target describes the upstream destination derived from one inbound path.
// It is built once per request and never mutated.
type Target struct {
	Domain    string
	Remainder string
	RawQuery  string
}

// ProxyResponse represents the upstream response to be streamed back.
// FinalURL is the URL the upstream request ended up at after any
// redirects; Redirected reports whether a redirect occurred.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	FinalURL   string
	Redirected bool
}
