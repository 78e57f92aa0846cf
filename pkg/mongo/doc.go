// Package mongo connects to MongoDB and exposes a collection as a
// kvstore.Store, one document per key.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := mongo.NewStore(db.Collection(cfg.Collection))
//
// New retries the initial ping, errors wrap ErrConnect and
// Healthcheck plugs the client into readiness probes.
package mongo
