package utils

import (
	"net"
	"net/http"
	"strings"
)

// HostNoPort returns the host part (no port) from strings like "ip:port",
// "[v6]:port", or "ip".
func HostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// firstForwardedFor returns the left-most IP from X-Forwarded-For, trimmed.
func firstForwardedFor(xff string) string {
	xff = strings.TrimSpace(xff)
	if xff == "" {
		return ""
	}
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

// ClientIP resolves the client IP for a request.
// If trustProxy is true, prefers X-Forwarded-For (first hop) then X-Real-IP;
// otherwise only RemoteAddr is consulted.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if v := firstForwardedFor(r.Header.Get("X-Forwarded-For")); v != "" {
			if ip := HostNoPort(v); ip != "" {
				return ip
			}
		}
		if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
			if ip := HostNoPort(v); ip != "" {
				return ip
			}
		}
	}
	return HostNoPort(r.RemoteAddr)
}
