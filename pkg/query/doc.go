// Package query caches the results of slow fetch functions by key.
//
// A cached value younger than StaleTime is returned without calling the
// fetcher. Otherwise concurrent callers for the same key share one call,
// which is retried up to Retries extra times with exponential backoff.
// Entries nobody has read for GCTime are evicted in the background.
//
//	client := query.New(query.DefaultConfig())
//	defer client.Close()
//
//	dash, err := query.Fetch(ctx, client, "dashboard", source.Dashboard)
package query
