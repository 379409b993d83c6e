// Package connector runs commands against named endpoints through a fixed
// chain of guards and always returns a Result.
//
// Guard order, outermost first:
//
//	cache -> bulkhead -> rate limiter -> circuit breaker -> retry -> timeout -> command
//
// A cache hit never reaches the bulkhead. The circuit breaker sees one outcome
// per retry sequence. Rejections by bulkhead, rate limiter or circuit breaker
// are never retried. Each attempt is bounded by the endpoint timeout; a
// command that ignores cancellation keeps running in the background after its
// attempt has timed out.
//
// Usage:
//
//	c := connector.New(connector.WithStores(cache.NewStores(redis.StoreFactory(rcfg, log))))
//	defer c.Close(ctx)
//
//	cfg := connector.NewEndpointConfig("users")
//	cfg.Retries = 2
//	res := connector.Execute(ctx, c, connector.Descriptor[User]{
//	    Endpoint:     cfg,
//	    Deserializer: connector.JSON[User](),
//	    Command:      httpclient.Get(client, "/users/42"),
//	})
//	if !res.IsSuccess() {
//	    log.Warn("lookup failed", logger.Fields("error_code", res.Code()))
//	}
package connector
