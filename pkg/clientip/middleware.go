package clientip

import "net/http"

// Middleware resolves the client address once per request and stores it in the context.
func Middleware(res *Resolver) func(http.Handler) http.Handler {
	if res == nil {
		res = NewResolver()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithIP(r.Context(), res.IP(r))))
		})
	}
}
