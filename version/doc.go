// Package version exposes build identity for the connector binary and the
// status server.
//
//	go build -ldflags "-X github.com/kbukum/connector/version.Version=1.0.0"
package version
