package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardingHeaders are checked in order when the service sits behind a
// trusted proxy.
var forwardingHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

type clientIPFunc func(r *http.Request) string

func clientIPResolver(trustedProxy bool) clientIPFunc {
	if trustedProxy {
		return proxyClientIP
	}
	return directClientIP
}

// proxyClientIP takes the first public address found in the forwarding
// headers and falls back on the peer address.
func proxyClientIP(r *http.Request) string {
	for _, header := range forwardingHeaders {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" {
			continue
		}

		// X-Forwarded-For lists the client first
		first, _, _ := strings.Cut(value, ",")
		addr, err := netip.ParseAddr(strings.TrimSpace(first))
		if err != nil || !isPublic(addr) {
			continue
		}
		return addr.Unmap().String()
	}

	return directClientIP(r)
}

// directClientIP returns the peer address, or "" when it is not an IP.
func directClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(host))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

// isPublic rejects loopback, private and link local ranges, which a client
// could put in a header to pass as someone else.
func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return !addr.IsLoopback() && !addr.IsPrivate() && !addr.IsLinkLocalUnicast() && !addr.IsUnspecified()
}
