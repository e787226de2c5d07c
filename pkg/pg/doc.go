// Package pg bootstraps PostgreSQL access with pgx/v5: a retrying pool
// constructor, a database/sql bridge, goose migrations from an fs.FS,
// readiness probes and helpers that classify driver errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	db := pg.OpenDB(pool)
//	if err := pg.Migrate(ctx, db, accountstore.Migrations, cfg, log); err != nil {
//		return err
//	}
package pg
