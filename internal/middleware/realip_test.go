package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			trusted:    nil,
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			trusted:    nil,
			remoteAddr: "203.0.113.7:54321",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "cloudflare header from trusted proxy",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "first hop of forwarded chain",
			trusted:    []string{"10.0.0.5"},
			remoteAddr: "10.0.0.5:443",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.5"},
			want:       "198.51.100.1",
		},
		{
			name:       "trusted proxy without forwarded headers",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			want:       "10.1.2.3",
		},
		{
			name:       "ipv6 peer without port",
			trusted:    nil,
			remoteAddr: "2001:db8::1",
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := NewRealIPMiddleware(tt.trusted).Handler(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got = r.Header.Get("X-Real-IP")
				}))

			req := httptest.NewRequest(http.MethodGet, "/api/counter", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("X-Real-IP = %q, want %q", got, tt.want)
			}
		})
	}
}
