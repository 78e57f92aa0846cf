// Package opensearch wraps the official OpenSearch client with env-driven
// configuration, a startup health check and an Indexer used to ship
// telemetry documents.
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//	    // errors.Is(err, opensearch.ErrHealthcheckFailed)
//	}
//	sink := telemetry.NewSearchSink(opensearch.NewIndexer(client), searchCfg, log)
package opensearch
