package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestProxyClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "no forwarding headers",
			remote: "192.168.0.1:999",
			want:   "192.168.0.1",
		},
		{
			name:   "padded peer address",
			remote: "   192.168.0.1     :   999   ",
			want:   "192.168.0.1",
		},
		{
			name:    "cloudflare header",
			headers: map[string]string{"CF-Connecting-IP": "20.55.20.55"},
			remote:  "192.168.0.1:999",
			want:    "20.55.20.55",
		},
		{
			name: "header precedence",
			headers: map[string]string{
				"CF-Connecting-IP": "     20.55.20.55 ",
				"X-Forwarded-For":  "1.2.3.4     ,    5.6.7.8  ",
			},
			remote: "192.168.0.1:999",
			want:   "20.55.20.55",
		},
		{
			name: "malformed header skipped",
			headers: map[string]string{
				"CF-Connecting-IP": "mistake",
				"X-Forwarded-For":  "1.2.3.4, 5.6.7.8",
			},
			remote: "192.168.0.1:999",
			want:   "1.2.3.4",
		},
		{
			name:    "real ip header",
			headers: map[string]string{"X-Real-IP": "2001:db8::1"},
			remote:  "[::1]:999",
			want:    "2001:db8::1",
		},
		{
			name:    "mapped ipv4",
			headers: map[string]string{"X-Forwarded-For": "::ffff:20.55.20.55"},
			remote:  "192.168.0.1:999",
			want:    "20.55.20.55",
		},
		{
			name:    "private address in header",
			headers: map[string]string{"CF-Connecting-IP": "10.0.0.55"},
			remote:  "192.168.0.1:999",
			want:    "192.168.0.1",
		},
		{
			name:    "link local address in header",
			headers: map[string]string{"X-Forwarded-For": "fe80::1"},
			remote:  "192.168.0.1:999",
			want:    "192.168.0.1",
		},
		{
			name:   "out of range peer",
			remote: "500.500.600.500",
			want:   "",
		},
		{
			name:   "peer is not an ip",
			remote: "mistake",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := proxyClientIP(req); got != tt.want {
				t.Errorf("proxyClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectClientIPIgnoresHeaders(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.0.1:999"
	req.Header.Set("CF-Connecting-IP", "20.55.20.55")

	if got := clientIPResolver(false)(req); got != "192.168.0.1" {
		t.Errorf("direct resolver = %q, want the peer address", got)
	}
}
