// Package ratelimiter implements a token bucket limiter with an in-memory
// store and an HTTP middleware.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity: 5, RefillRate: 1, RefillInterval: 10 * time.Second,
//	})
//	r.With(ratelimiter.Middleware(bucket, ratelimiter.ByRemoteIP)).Post("/login", login)
package ratelimiter
