// Package metrics exposes Prometheus collectors for the HTTP surface and the
// authentication flows.
//
// Every Metrics value owns its registry, so tests can create as many as they
// need. Wiring:
//
//	m := metrics.New("contentauth")
//	gate := authgate.New(authgate.WithObserver(m.GateObserver()))
//	r.Use(m.Instrument)
//	r.Handle("/metrics", m.Handler())
package metrics
