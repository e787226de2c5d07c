// Package logger provides a context-aware wrapper around Go's slog package
// with functional options, helper attribute constructors, and transparent
// injection of values stored in context.Context.
//
// New builds a text or JSON slog.Handler and wraps it with a context handler
// that runs every registered ContextExtractor before delegating. Request ids
// and client addresses are attached this way without threading them through
// call sites.
//
// Helper constructors such as Error, AccountID, Strategy and Flow keep
// attribute naming consistent across the authentication flows.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment("production", "contentauth"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "signed in", logger.AccountID(id), logger.Flow("signin"))
//
// Error and Errors return an empty attribute for nil errors, so
//
//	log.Info("operation finished", logger.Error(err))
//
// needs no nil check. Attributes named like credentials (password, token,
// refresh_token and the rest of DefaultRedactedKeys) are written as Redacted.
package logger
