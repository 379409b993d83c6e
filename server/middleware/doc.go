// Package middleware holds the gin middleware used by the status server.
package middleware
