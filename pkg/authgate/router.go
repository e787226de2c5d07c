package authgate

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router registers chi routes together with their authentication policy.
// Each route's policy is resolved once, at registration.
type Router struct {
	mux    chi.Router
	gate   *Gate
	policy Policy
}

// NewRouter wraps mux. Routes registered directly on it have no group policy.
func NewRouter(gate *Gate, mux chi.Router) *Router {
	return &Router{mux: mux, gate: gate}
}

// Use appends middleware to the underlying chi router.
func (rt *Router) Use(middlewares ...func(http.Handler) http.Handler) {
	rt.mux.Use(middlewares...)
}

// With returns a router whose routes run middlewares before authentication.
func (rt *Router) With(middlewares ...func(http.Handler) http.Handler) *Router {
	return &Router{mux: rt.mux.With(middlewares...), gate: rt.gate, policy: rt.policy}
}

// Group registers routes sharing policy. An unset policy inherits the parent's.
func (rt *Router) Group(policy Policy, fn func(r *Router)) {
	rt.mux.Group(func(mux chi.Router) {
		fn(&Router{mux: mux, gate: rt.gate, policy: Resolve(policy, rt.policy, Inherit())})
	})
}

// Handle registers h for method and pattern under policy.
func (rt *Router) Handle(method, pattern string, h http.Handler, policy Policy) {
	effective := Resolve(policy, rt.policy, DefaultPolicy())
	rt.mux.Method(method, pattern, rt.gate.Protect(effective)(h))
}

func (rt *Router) Get(pattern string, h http.HandlerFunc, policy Policy) {
	rt.Handle(http.MethodGet, pattern, h, policy)
}

func (rt *Router) Post(pattern string, h http.HandlerFunc, policy Policy) {
	rt.Handle(http.MethodPost, pattern, h, policy)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}
