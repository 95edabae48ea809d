package service

import "net/http"

// strippedRequestHeaders are removed from inbound headers before forwarding.
// Authorization and Content-Type are in the list because they are re-added
// afterwards with controlled values; the rest are hop-by-hop or recomputed by
// the outbound transport.
var strippedRequestHeaders = []string{
	"Authorization",
	"Content-Type",
	"Host",
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Transfer-Encoding",
	"Upgrade",
	"Te",
	"Trailers",
	"Proxy-Authorization",
	"Proxy-Authenticate",
	"Content-Length",
}

// strippedResponseHeaders are recomputed by the outbound transport and must
// not be forwarded verbatim from the upstream response.
var strippedResponseHeaders = []string{
	"Transfer-Encoding",
	"Content-Length",
	"Connection",
}

// SanitizeRequestHeaders returns the header set to send upstream: the inbound
// headers minus the deny-list, with Content-Type forced to application/json
// and Authorization carried over verbatim (empty string when the caller sent
// none — the credential passes through, it is never validated here).
// Pure and idempotent; the input is not modified.
func SanitizeRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}
	for _, key := range strippedRequestHeaders {
		dst.Del(key)
	}
	dst.Set("Content-Type", "application/json")
	dst.Set("Authorization", src.Get("Authorization"))
	return dst
}

// FilterResponseHeaders returns a copy of the upstream response headers with
// transport-owned fields removed. Anything the outbound transport later
// rejects as malformed is dropped by net/http at write time rather than
// failing the response.
func FilterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}
	for _, key := range strippedResponseHeaders {
		dst.Del(key)
	}
	return dst
}
