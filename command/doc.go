// Package command defines the unit of work executed by the connector.
//
// A Command performs one asynchronous call and yields a raw string. It may
// advertise a CacheKey, in which case a cache-enabled endpoint serves repeated
// calls from its store:
//
//	cmd := command.WithCacheKey(command.Func(fetchProfile), command.NewCacheKey("profile:42"))
//
// Blocking work (legacy clients, file IO) is moved onto a bounded Pool so it
// never occupies the caller's goroutine beyond its timeout:
//
//	pool := command.NewPool(8)
//	cmd := command.Blocking(pool, func() (string, error) { return legacy.Fetch(id) })
package command
