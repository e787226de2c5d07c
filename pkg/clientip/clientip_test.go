package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/contentauth/pkg/clientip"
)

func TestResolver_IP(t *testing.T) {
	t.Parallel()

	trusting := clientip.NewResolver(clientip.HeaderCloudflare, "x-forwarded-for", clientip.HeaderRealIP)

	tests := []struct {
		name     string
		resolver *clientip.Resolver
		remote   string
		headers  map[string]string
		want     string
	}{
		{
			name:     "remote address without trusted headers",
			resolver: clientip.NewResolver(),
			remote:   "203.0.113.7:51234",
			headers:  map[string]string{clientip.HeaderForwardedFor: "198.51.100.1"},
			want:     "203.0.113.7",
		},
		{
			name:     "first trusted header wins",
			resolver: trusting,
			remote:   "10.0.0.1:80",
			headers: map[string]string{
				clientip.HeaderCloudflare:   "198.51.100.9",
				clientip.HeaderForwardedFor: "198.51.100.1",
			},
			want: "198.51.100.9",
		},
		{
			name:     "left-most valid forwarded entry",
			resolver: trusting,
			remote:   "10.0.0.1:80",
			headers:  map[string]string{clientip.HeaderForwardedFor: "garbage, 198.51.100.1 , 10.0.0.2"},
			want:     "198.51.100.1",
		},
		{
			name:     "invalid header falls through",
			resolver: trusting,
			remote:   "10.0.0.1:80",
			headers:  map[string]string{clientip.HeaderCloudflare: "not-an-ip", clientip.HeaderRealIP: "2001:db8::1"},
			want:     "2001:db8::1",
		},
		{
			name:     "ipv4 mapped address is unmapped",
			resolver: clientip.NewResolver(),
			remote:   "[::ffff:192.0.2.10]:443",
			want:     "192.0.2.10",
		},
		{
			name:     "zone is dropped",
			resolver: clientip.NewResolver(),
			remote:   "[fe80::1%eth0]:443",
			want:     "fe80::1",
		},
		{
			name:     "remote address without port",
			resolver: clientip.NewResolver(),
			remote:   "192.0.2.44",
			want:     "192.0.2.44",
		},
		{
			name:     "unparseable remote address",
			resolver: clientip.NewResolver(),
			remote:   "pipe",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.resolver.IP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware(clientip.NewFromConfig(clientip.Config{TrustedHeaders: []string{clientip.HeaderRealIP}}))(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = clientip.FromContext(r.Context())
		}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(clientip.HeaderRealIP, "198.51.100.23")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "198.51.100.23", got)
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := clientip.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(clientip.WithIP(context.Background(), "192.0.2.1"))
	assert.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)
	assert.Equal(t, "192.0.2.1", attr.Value.String())
}
