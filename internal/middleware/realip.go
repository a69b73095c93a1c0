package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// RealIPMiddleware resolves the client IP behind the reverse proxy in front
// of the site. Forwarded headers (CF-Connecting-IP from Cloudflare, then
// X-Forwarded-For) are honored only when the direct peer is a configured
// trusted proxy; otherwise a client could spoof its IP past the rate
// limiter and the security-event log.
type RealIPMiddleware struct {
	trusted []*net.IPNet
}

// NewRealIPMiddleware builds the middleware from a list of proxy addresses,
// each an IP or a CIDR. Unparseable entries are skipped.
func NewRealIPMiddleware(trustedProxies []string) *RealIPMiddleware {
	m := &RealIPMiddleware{}

	for _, proxy := range trustedProxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}

		if !strings.Contains(proxy, "/") {
			// Bare IP: treat as a single-address network.
			if ip := net.ParseIP(proxy); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				proxy += "/" + strconv.Itoa(bits)
			}
		}
		if _, network, err := net.ParseCIDR(proxy); err == nil {
			m.trusted = append(m.trusted, network)
		}
	}

	return m
}

// Handler stamps the resolved client IP into X-Real-IP for the rest of the
// chain (request logging, rate limiting, security events).
func (m *RealIPMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := m.resolve(r); ip != "" {
			r.Header.Set("X-Real-IP", ip)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RealIPMiddleware) resolve(r *http.Request) string {
	peer := peerIP(r.RemoteAddr)
	if !m.isTrusted(peer) {
		return peer
	}

	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
		return strings.TrimSpace(cf)
	}

	// First hop in the X-Forwarded-For chain is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	return peer
}

func (m *RealIPMiddleware) isTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range m.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// peerIP strips the port from a RemoteAddr, tolerating bare IPs (IPv6
// without a port fails SplitHostPort).
func peerIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
