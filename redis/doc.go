// Package redis connects the connector to Redis through go-redis.
//
// It provides:
//   - Client: a logged go-redis wrapper with string-valued Get/Set
//   - Store: a cache.Store for cache-enabled endpoints
//   - StoreFactory: builds one Store per configured store address
//   - GetCommand / SetCommand: KV commands run through the pipeline like any other call
//   - Component: lifecycle management for the default client
//
// # Quick Start
//
//	client, err := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	stores := cache.NewStores(redis.StoreFactory(cfg, log))
//	res := connector.Execute(ctx, c, connector.Descriptor[string]{
//	    Endpoint:     kvEndpoint,
//	    Deserializer: connector.String(),
//	    Command:      redis.NewGetCommand(client, command.NewCacheKey("user:42")),
//	})
package redis
