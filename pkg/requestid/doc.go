// Package requestid tags every request with a correlation id.
//
// Middleware reuses a client supplied X-Request-ID when it is short and made
// of letters, digits, '-' and '_'; otherwise it generates a UUID. The id is
// echoed in the response header, stored in the request context and added to
// log records through LoggerExtractor:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
