// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, log level configuration,
// component-scoped loggers and call-scoped fields carried on the context.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("connector")
//	log.Info("call completed", logger.Fields(logger.FieldEndpoint, "orders", logger.FieldDuration, 12))
package logger
