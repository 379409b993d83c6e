// Package server runs a small Gin HTTP server, with h2c, that exposes the
// connector's read-only status API: service health derived from circuit
// states, build version, and per-endpoint guard state.
//
// Recovery, request-id and request logging middleware live in
// server/middleware.
package server
