package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers commonly set by reverse proxies, in the order they are usually trusted.
const (
	HeaderCloudflare   = "CF-Connecting-IP"
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// Config lists the proxy headers that may carry the client address.
// Leave it empty when the service is reachable directly: any header is then
// client-controlled and only the TCP peer address is used.
type Config struct {
	TrustedHeaders []string `env:"CLIENT_IP_TRUSTED_HEADERS" envSeparator:","`
}

// Resolver extracts the client address from requests.
type Resolver struct {
	headers []string
}

// NewResolver returns a Resolver that consults headers in order before
// falling back to the remote address.
func NewResolver(headers ...string) *Resolver {
	r := &Resolver{}
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			r.headers = append(r.headers, http.CanonicalHeaderKey(h))
		}
	}
	return r
}

// NewFromConfig is NewResolver(cfg.TrustedHeaders...).
func NewFromConfig(cfg Config) *Resolver {
	return NewResolver(cfg.TrustedHeaders...)
}

// IP returns the normalized client address, or "" when none is valid.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		value := r.Header.Get(h)
		if value == "" {
			continue
		}
		if h == HeaderForwardedFor {
			// The left-most valid entry is the original client.
			for part := range strings.SplitSeq(value, ",") {
				if ip := parseIP(part); ip != "" {
					return ip
				}
			}
			continue
		}
		if ip := parseIP(value); ip != "" {
			return ip
		}
	}
	return RemoteIP(r)
}

// RemoteIP returns the TCP peer address of r.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates an address and returns its canonical form.
// IPv4-mapped IPv6 addresses are unmapped and zones dropped.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
