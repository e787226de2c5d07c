// Package accountstore persists accounts in PostgreSQL and implements
// auth.Directory. Schema migrations are embedded and applied with pg.Migrate.
package accountstore
