// Package cache implements cache-aside short-circuiting for command results.
//
// A Store is a plain string key/value contract. Stores resolves one Store per
// configured address through a StoreFactory, and Decorator wraps a guarded
// call with a bounded read-through lookup and a fire-and-forget write-back:
//
//	dec := cache.NewDecorator(cache.NewStores(cache.MemoryFactory(0)))
//	out, err := dec.Execute(ctx, "orders", cfg, key, guarded)
//	if out.FromCache {
//	    // guarded was never called
//	}
package cache
