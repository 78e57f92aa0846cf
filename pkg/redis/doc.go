// Package redis connects to Redis and exposes it as a kvstore.Store.
//
// Connect retries the initial ping according to Config, Healthcheck plugs
// the client into readiness probes and Store keeps the session record
// under a configurable key prefix.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewStore(client, cfg)
package redis
