// Package config loads service configuration from YAML files, .env files
// and environment variables using Viper.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.Load("connector", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//
// Environment variables prefixed with the upper-cased service name override
// file values, with underscores standing for nesting:
// CONNECTOR_REDIS_ADDR sets redis.addr.
package config
