// Package component manages the lifecycle of the infrastructure a binary
// runs: the Redis client, the connector itself and the status server.
//
// Components are started in registration order and stopped in reverse, so
// register dependencies first.
package component
