package fingerprint

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address, preferring proxy headers in this
// order: CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For (first valid
// entry), X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	for _, h := range []string{"CF-Connecting-IP", "DO-Connecting-IP"} {
		if ip := normalizeIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for part := range strings.SplitSeq(fwd, ",") {
			if ip := normalizeIP(part); ip != "" {
				return ip
			}
		}
	}

	if ip := normalizeIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalizeIP(r.RemoteAddr)
	}
	return normalizeIP(host)
}

func normalizeIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
