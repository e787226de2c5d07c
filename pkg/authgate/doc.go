// Package authgate decides, per route, which authentication strategies admit a
// request.
//
// A Policy is attached at registration time. Resolution is static: the route
// policy wins outright, otherwise the group policy applies, otherwise the
// default of bearer tokens only.
//
//	gate := authgate.New(
//		authgate.WithStrategy(authgate.NewBearerStrategy(issuer)),
//		authgate.WithStrategy(apiKeys),
//	)
//	r := authgate.NewRouter(gate, chi.NewRouter())
//	r.Post("/auth/signin", signIn, authgate.None())
//	r.Group(authgate.Require(authgate.StrategyBearer, authgate.StrategyAPIKey), func(r *authgate.Router) {
//		r.Get("/auth/me", me, authgate.Inherit())
//	})
//
// Rejected requests receive a generic 401. The reason is only logged.
package authgate
