// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// BodyKind discriminates the forms an upstream response body can take.
type BodyKind int

const (
	// BodyJSON is a fully buffered body decoded as a JSON object or array;
	// it is re-serialized when written to the caller.
	BodyJSON BodyKind = iota
	// BodyRaw is a fully buffered body that is not a JSON structure
	// (invalid JSON or a bare scalar); written back verbatim.
	BodyRaw
	// BodyStream is an open byte stream relayed to the caller as bytes arrive.
	BodyStream
)

// Body holds the upstream response payload in exactly one of three forms,
// selected by Kind. For BodyStream, ownership of Stream transfers to the
// consumer, which must close it.
type Body struct {
	Kind   BodyKind
	JSON   any
	Raw    []byte
	Stream io.ReadCloser
}

// ProxyRequest represents a client request to be forwarded upstream.
// The body is opaque payload, passed through unread.
type ProxyRequest struct {
	Ctx    context.Context
	Header http.Header
	Body   io.ReadCloser
}

// UpstreamResponse is the raw response from the upstream before the
// buffered/streamed decision is applied. The caller owns Body.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ProxyResponse represents the response to relay back to the caller:
// mirrored status, filtered headers, and a tagged body.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       Body
}
