// Package config loads runtime settings from the environment and monitoring
// reference data (brand profiles, alert thresholds, notification channels)
// from a YAML file. All validation happens at load time; a malformed
// configuration fails startup and is never recoverable at runtime.
package config
