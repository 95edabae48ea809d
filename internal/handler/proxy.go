package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"sonar-proxy-go/internal/model"
	"sonar-proxy-go/internal/service"
)

// ProxyHandler forwards chat-completion requests to the configured upstream
// and relays the response back, buffered or streamed.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle forwards the request upstream and writes the outbound response:
// mirrored status, filtered upstream headers, and the body in whichever mode
// was negotiated from the caller's Accept header.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:    req.Context(),
		Header: req.Header,
		Body:   req.Body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}

	header := c.Response().Header()
	for key, vals := range resp.Header {
		for _, v := range vals {
			header.Add(key, v)
		}
	}

	switch resp.Body.Kind {
	case model.BodyStream:
		return h.relayStream(c, resp)
	case model.BodyJSON:
		return c.JSON(resp.StatusCode, resp.Body.JSON)
	default:
		ctype := resp.Header.Get(echo.HeaderContentType)
		if ctype == "" {
			ctype = echo.MIMETextPlainCharsetUTF8
		}
		return c.Blob(resp.StatusCode, ctype, resp.Body.Raw)
	}
}

// relayStream copies upstream bytes to the caller as they arrive, flushing
// after every chunk so partial output reaches the caller before the upstream
// call completes. Status and headers are written with the first chunk; once a
// byte is out they are frozen and a later upstream error can only truncate
// the response. An error before the first byte still becomes a 502.
func (h *ProxyHandler) relayStream(c echo.Context, resp *model.ProxyResponse) error {
	body := resp.Body.Stream
	defer func() { _ = body.Close() }()

	res := c.Response()
	buf := make([]byte, 32*1024)
	sent := false

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if !sent {
				res.WriteHeader(resp.StatusCode)
				sent = true
			}
			if _, werr := res.Write(buf[:n]); werr != nil {
				h.logger.Error("writing stream to client", "err", werr)
				return nil
			}
			res.Flush()
		}
		if err == io.EOF {
			if !sent {
				res.WriteHeader(resp.StatusCode)
			}
			return nil
		}
		if err != nil {
			if !sent {
				res.Header().Del(echo.HeaderContentType)
				return c.JSON(http.StatusBadGateway, errorBody(err))
			}
			h.logger.Error("upstream stream terminated",
				"err", err,
				"path", c.Request().URL.Path,
			)
			return nil
		}
	}
}

// mapError converts a transport-level upstream failure into an HTTP response.
// Go transport errors never carry an upstream status code, so the mapping is
// 504 for a timed-out call and 502 for everything else (refused connection,
// DNS failure, TLS error). The handler never lets these propagate.
func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	return c.JSON(status, errorBody(err))
}

func errorBody(err error) map[string]string {
	return map[string]string{
		"error":  "Upstream request failed",
		"detail": err.Error(),
	}
}
