// Package pg stores the session record in PostgreSQL through pgx/v5.
//
// Connect opens a pool with exponential-backoff retries, Migrate applies the
// embedded goose migrations that create the kv_store table, Store implements
// kvstore.Store on top of it and Healthcheck feeds readiness probes.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pg.NewStore(pool)
//
// All Config fields are read from PG_* environment variables.
package pg
