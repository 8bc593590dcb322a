// Package clientip extracts client addresses from requests. Two
// flavors: RealClientIP trusts only the socket and keys rate limiters;
// Forwarded honors proxy headers and is for logging, where a spoofed
// value costs nothing.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from r.RemoteAddr only. Proxy
// headers are deliberately ignored so a client cannot dodge per-IP
// rate limits by forging them.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// Forwarded returns the best-guess original client IP behind proxies:
// the first X-Forwarded-For hop, then X-Real-IP, then the socket.
func Forwarded(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	return RealClientIP(r)
}
