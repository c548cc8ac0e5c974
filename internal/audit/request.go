package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// RequestInfo is the client identity attached to audit entries.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

type requestKey struct{}

// WithRequest attaches the client identity of r to ctx.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	if r == nil {
		return ctx
	}
	return context.WithValue(ctx, requestKey{}, RequestInfo{
		IPAddress: ClientIP(r),
		UserAgent: strings.TrimSpace(r.UserAgent()),
	})
}

// RequestFromContext returns the attached client identity with "unknown" for missing values.
func RequestFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestKey{}).(RequestInfo)
	if info.IPAddress == "" {
		info.IPAddress = Unknown
	}
	if info.UserAgent == "" {
		info.UserAgent = Unknown
	}
	return info
}

// ClientIP picks the first X-Forwarded-For hop, then X-Real-IP, then the remote address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
