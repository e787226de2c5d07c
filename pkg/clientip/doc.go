// Package clientip resolves the originating client address of an HTTP request.
//
// Proxy headers are client-controlled unless a trusted proxy overwrites them,
// so a Resolver only reads the headers it was configured with and otherwise
// uses the TCP peer address:
//
//	res := clientip.NewFromConfig(clientip.Config{
//		TrustedHeaders: []string{clientip.HeaderCloudflare, clientip.HeaderForwardedFor},
//	})
//	r.Use(clientip.Middleware(res))
//
// Handlers and the rate limiter read the stored value with FromContext, and
// LoggerExtractor attaches it to every log record as client_ip.
package clientip
