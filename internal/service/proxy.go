// Package service implements the core proxy forwarding logic.
package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"sonar-proxy-go/internal/client"
	"sonar-proxy-go/internal/config"
	"sonar-proxy-go/internal/model"
)

const userAgent = "sonar-proxy-go/1.0"

// ProxyService handles the forwarding logic for proxy requests. It holds no
// mutable state; the upstream URL is fixed at construction.
type ProxyService struct {
	client      *client.UpstreamClient
	logger      *slog.Logger
	upstreamURL string
}

// NewProxyService creates a ProxyService for the configured upstream endpoint.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	u, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no scheme or host", cfg.Upstream.URL)
	}

	return &ProxyService{
		client:      c,
		logger:      logger.With("component", "proxy_service"),
		upstreamURL: u.String(),
	}, nil
}

// WantsStream reports whether the caller asked for a server-sent-event stream.
// Substring match on the Accept value as sent; no further negotiation.
func WantsStream(header http.Header) bool {
	return strings.Contains(header.Get("Accept"), "text/event-stream")
}

// Forward sends one POST to the upstream with sanitized headers and the
// inbound body passed through unread, then shapes the response. The response
// mode is fixed before dispatch from the caller's Accept header and never
// changes mid-request: stream mode hands the open upstream body to the caller
// (who must close it); buffered mode reads it fully and classifies it.
// Upstream 4xx/5xx come back as normal responses; only transport failures
// return an error.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	wantsStream := WantsStream(pr.Header)

	header := SanitizeRequestHeaders(pr.Header)
	header.Set("User-Agent", userAgent)

	s.logger.Debug("forwarding request", "stream", wantsStream)

	resp, err := s.client.DoStream(pr.Ctx, http.MethodPost, s.upstreamURL, header, pr.Body)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	out := &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     FilterResponseHeaders(resp.Header),
	}

	if wantsStream {
		out.Body = model.Body{Kind: model.BodyStream, Stream: resp.Body}
		return out, nil
	}

	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	out.Body = classifyBuffered(raw)
	return out, nil
}

// classifyBuffered decodes a buffered upstream body: JSON objects and arrays
// are carried as structured values and re-serialized on write; scalars and
// invalid JSON fall back to raw bytes.
func classifyBuffered(raw []byte) model.Body {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return model.Body{Kind: model.BodyJSON, JSON: v}
		}
	}
	return model.Body{Kind: model.BodyRaw, Raw: raw}
}
