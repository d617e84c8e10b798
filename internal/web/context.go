package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/logging"
)

// WithRequestMetadata adds the client IP, User-Agent and window id to ctx
// for mutation logs.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.WithClient(ctx, core.Client{IP: clientIP(r), UserAgent: r.UserAgent()})
	if id := windowID(r); id != "" {
		ctx = logging.ContextWithWindow(ctx, id)
	}
	return ctx
}

// clientIP returns the client address without port. RemoteAddr has already
// been rewritten by TrustedRealIP for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
